package index

import (
	"context"
	"testing"

	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_FindAndListCatalog(t *testing.T) {
	idx := New()
	idx.LoadCatalog([]model.PackageItem{
		{Name: "ripgrep", Version: "14.1.0"},
		{Name: "fd", Version: "10.2.0"},
	})

	t.Run("exact match", func(t *testing.T) {
		item, ok := idx.FindPackageByName("ripgrep")
		assert.True(t, ok)
		assert.Equal(t, "14.1.0", item.Version)
	})

	t.Run("missing returns not-found", func(t *testing.T) {
		_, ok := idx.FindPackageByName("does-not-exist")
		assert.False(t, ok)
	})

	t.Run("all official clones the catalog", func(t *testing.T) {
		all := idx.AllOfficial()
		assert.Len(t, all, 2)
	})
}

func TestIndex_RefreshExplicitCache(t *testing.T) {
	t.Run("leaf only uses -Qetq", func(t *testing.T) {
		var gotArgs []string
		idx := New().WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = args
			return []byte("ripgrep\nfd\n"), nil
		})

		err := idx.RefreshExplicitCache(context.Background(), LeafOnly)
		assert.NoError(t, err)
		assert.Equal(t, []string{"-Qetq"}, gotArgs)

		names := idx.ExplicitNames()
		assert.Contains(t, names, "ripgrep")
		assert.Contains(t, names, "fd")
	})

	t.Run("all explicit uses -Qeq", func(t *testing.T) {
		var gotArgs []string
		idx := New().WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = args
			return []byte("git\n"), nil
		})

		err := idx.RefreshExplicitCache(context.Background(), AllExplicit)
		assert.NoError(t, err)
		assert.Equal(t, []string{"-Qeq"}, gotArgs)
	})

	t.Run("empty explicit set on nonzero exit is not an error", func(t *testing.T) {
		idx := New().WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, assertErr{}
		})
		err := idx.RefreshExplicitCache(context.Background(), LeafOnly)
		assert.NoError(t, err)
		assert.Empty(t, idx.ExplicitNames())
	})
}

func TestIndex_ReadsNeverBlockOnRefresh(t *testing.T) {
	idx := New()
	assert.False(t, idx.IsInstalled("anything"))

	started := make(chan struct{})
	release := make(chan struct{})
	idx.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		close(started)
		<-release
		return []byte("ripgrep\n"), nil
	})
	done := make(chan error, 1)
	go func() { done <- idx.RefreshInstalledSet(context.Background()) }()

	<-started
	assert.False(t, idx.IsInstalled("ripgrep"), "a read during the pacman call sees the previous set")
	close(release)
	require.NoError(t, <-done)
	assert.True(t, idx.IsInstalled("ripgrep"))
}

type assertErr struct{}

func (assertErr) Error() string { return "exit status 1" }

func TestIndex_LoadFromPacman(t *testing.T) {
	idx := New().WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("core glibc 2.39-1 [installed]\nextra ripgrep 14.1.0-1\nmalformed\n"), nil
	})
	count, err := idx.LoadFromPacman(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	item, ok := idx.FindPackageByName("ripgrep")
	require.True(t, ok)
	assert.Equal(t, "extra", item.Source.Repo)
	assert.Equal(t, "14.1.0-1", item.Version)
}
