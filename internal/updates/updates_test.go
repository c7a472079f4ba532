package updates

import (
	"testing"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQu(t *testing.T) {
	out := "linux 6.9.1-1 -> 6.9.2-1\n" +
		"glibc 2.39-1 -> 2.39-2 [ignored]\n" +
		"garbage line\n" +
		"\n"
	entries := ParseQu(out)
	require.Len(t, entries, 2)
	assert.Equal(t, appstate.UpdateEntry{Name: "linux", OldVersion: "6.9.1-1", NewVersion: "6.9.2-1"}, entries[0])
	assert.Equal(t, "2.39-2", entries[1].NewVersion, "[ignored] marker is stripped, versions kept")
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	entries := []appstate.UpdateEntry{
		{Name: "linux", OldVersion: "6.9.1-1", NewVersion: "6.9.2-1"},
		{Name: "yay", OldVersion: "12.0.0-1", NewVersion: "12.1.0-1"},
	}
	require.NoError(t, Persist(fs, "/lists/available_updates.txt", entries))

	raw, err := afero.ReadFile(fs, "/lists/available_updates.txt")
	require.NoError(t, err)
	assert.Equal(t, "linux - 6.9.1-1 -> linux - 6.9.2-1\nyay - 12.0.0-1 -> yay - 12.1.0-1\n", string(raw))

	loaded := Load(fs, "/lists/available_updates.txt")
	assert.Equal(t, entries, loaded)
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/u.txt", []byte("not an update line\nfoo - 1 -> foo - 2\n"), 0o644))
	loaded := Load(fs, "/u.txt")
	require.Len(t, loaded, 1)
	assert.Equal(t, "foo", loaded[0].Name)
}
