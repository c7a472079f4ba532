package executor

import (
	"testing"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan_InstallSplitsOfficialFromAUR(t *testing.T) {
	steps := BuildPlan(Request{Kind: KindInstall, Password: "hunter2"}, []string{"ripgrep", "fd"}, []string{"yay-bin"})
	require.Len(t, steps, 1)
	assert.Contains(t, steps[0].ShellLine, "pacman -S --needed --noconfirm ripgrep fd")
	assert.Contains(t, steps[0].ShellLine, "sudo -S")
}

func TestBuildPlan_RemoveCascadeFlags(t *testing.T) {
	t.Run("no cascade uses -Rs", func(t *testing.T) {
		steps := BuildPlan(Request{Kind: KindRemove, Items: []string{"foo"}, Cascade: appstate.CascadeNone}, nil, nil)
		assert.Contains(t, steps[0].ShellLine, "pacman -Rs --noconfirm foo")
	})

	t.Run("cascade with configs uses -Rscn", func(t *testing.T) {
		steps := BuildPlan(Request{Kind: KindRemove, Items: []string{"foo"}, Cascade: appstate.CascadeWithConfigs}, nil, nil)
		assert.Contains(t, steps[0].ShellLine, "pacman -Rscn --noconfirm foo")
	})
}

func TestSudoPipe_EscapesEmbeddedQuote(t *testing.T) {
	line := sudoPipe(`it's a secret`, "pacman -Syu")
	assert.Contains(t, line, `it'\''s a secret`)
}
