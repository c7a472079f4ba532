package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnInTerminal_TestOutCapturesInsteadOfSpawning(t *testing.T) {
	out := filepath.Join(t.TempDir(), "captured.txt")
	t.Setenv("PACSEA_TEST_OUT", out)

	require.NoError(t, SpawnInTerminal("xterm", "pacman -S ripgrep"))
	require.NoError(t, SpawnInTerminal("xterm", "pacman -S fd"))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "pacman -S ripgrep")
	assert.Contains(t, string(raw), "pacman -S fd", "appends rather than truncating")
}

func TestDetectTerminal_PrefersSessionSpecific(t *testing.T) {
	t.Setenv("KDE_FULL_SESSION", "true")
	t.Setenv("XDG_CURRENT_DESKTOP", "KDE")
	restore := lookPath
	defer func() { lookPath = restore }()
	lookPath = func(name string) (string, error) {
		if name == "konsole" || name == "kitty" {
			return "/usr/bin/" + name, nil
		}
		return "", os.ErrNotExist
	}

	term, ok := DetectTerminal()
	require.True(t, ok)
	assert.Equal(t, "konsole", term)
}

func TestIsGnomeTerminal(t *testing.T) {
	assert.True(t, IsGnomeTerminal("gnome-terminal"))
	assert.False(t, IsGnomeTerminal("kitty"))
}
