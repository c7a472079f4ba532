package cache

import (
	"testing"

	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/paths"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_OrderIndependent(t *testing.T) {
	a := []model.PackageItem{
		{Name: "fd", Version: "10.2.0"},
		{Name: "ripgrep", Version: "14.1.0"},
	}
	b := []model.PackageItem{
		{Name: "ripgrep", Version: "14.1.0"},
		{Name: "fd", Version: "10.2.0"},
	}
	assert.Equal(t, Signature(a), Signature(b))
}

func TestSignature_DiffersOnVersionChange(t *testing.T) {
	a := []model.PackageItem{{Name: "fd", Version: "10.2.0"}}
	b := []model.PackageItem{{Name: "fd", Version: "10.2.1"}}
	assert.NotEqual(t, Signature(a), Signature(b))
}

func TestStore_DepsRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := paths.Layout{CacheDir: "/cache", DepsCache: "/cache/deps_cache.json"}
	require.NoError(t, paths.EnsureDirs(fs, paths.Layout{
		ConfigDir: "/cfg", ListsDir: "/cfg/lists", CacheDir: "/cache", ExportDir: "/cfg/export",
	}))

	store := NewStore(fs, layout)

	sig := Signature([]model.PackageItem{{Name: "fd", Version: "10.2.0"}})
	entries := map[string]DepsEntry{
		sig: {Signature: sig, Deps: []model.DependencyInfo{{Name: "pcre2"}}},
	}
	require.NoError(t, store.SaveDeps(entries))

	loaded, err := store.LoadDeps()
	require.NoError(t, err)
	assert.Equal(t, "pcre2", loaded[sig].Deps[0].Name)
}

func TestStore_MissingFileLoadsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, paths.New())
	loaded, err := store.LoadDeps()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStore_ListRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := paths.New()
	require.NoError(t, paths.EnsureDirs(fs, layout))
	store := NewStore(fs, layout)

	require.NoError(t, store.SaveRecent([]string{"ripgrep", "fd", "bat"}))
	loaded, err := store.LoadRecent()
	require.NoError(t, err)
	assert.Equal(t, []string{"ripgrep", "fd", "bat"}, loaded)
}

func TestStore_ExportInstallListNumbersPerDay(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := paths.New()
	require.NoError(t, paths.EnsureDirs(fs, layout))
	store := NewStore(fs, layout)

	first, err := store.ExportInstallList([]string{"ripgrep"})
	require.NoError(t, err)
	second, err := store.ExportInstallList([]string{"ripgrep", "fd"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "same-day exports get distinct suffixes")

	raw, err := afero.ReadFile(fs, second)
	require.NoError(t, err)
	assert.Equal(t, "ripgrep\nfd\n", string(raw))
}

func TestStore_InstalledSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	layout := paths.New()
	require.NoError(t, paths.EnsureDirs(fs, layout))
	store := NewStore(fs, layout)

	require.NoError(t, store.SaveInstalledSnapshot([]string{"glibc", "pacman"}))
	raw, err := afero.ReadFile(fs, layout.InstalledSnap)
	require.NoError(t, err)
	assert.Equal(t, "glibc\npacman\n", string(raw))
}
