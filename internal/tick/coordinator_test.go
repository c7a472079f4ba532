package tick

import (
	"context"
	"testing"
	"time"

	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/cache"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/index"
	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/paths"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, run func(ctx context.Context, name string, args ...string) ([]byte, error)) *Coordinator {
	t.Helper()
	fs := afero.NewMemMapFs()
	layout := paths.Layout{
		DepsCache:     "/cache/deps.json",
		FilesCache:    "/cache/files.json",
		ServicesCache: "/cache/services.json",
		SandboxCache:  "/cache/sandbox.json",
		RecentSearch:  "/lists/recent.txt",
		InstallList:   "/lists/install.txt",
		RemoveList:    "/lists/remove.txt",
	}
	store := cache.NewStore(fs, layout)
	idx := index.New()
	client := fetch.NewClient(fs, "/cache/fetch", nil)
	return New(run, idx, client, store)
}

func TestCoordinator_ReconcileSpawnsAndApplyClearsInFlight(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(""), nil
	}
	c := newTestCoordinator(t, run)
	app := appstate.New()
	app.InFlight[appstate.StageFiles] = &appstate.InFlight{
		Items: []model.PackageItem{{Name: "ripgrep"}},
		Scope: appstate.ScopeGlobal,
	}

	cmds := c.Reconcile(app)
	require.Len(t, cmds, 1)

	msg := cmds[0]().(StageResultMsg)
	assert.Equal(t, appstate.StageFiles, msg.Stage)

	c.Apply(app, msg)
	assert.Nil(t, app.InFlight[appstate.StageFiles])
	assert.True(t, app.Cache.FilesDirty)
}

func TestCoordinator_ApplyCancelledResultUpdatesMirrorButNotModal(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(""), nil
	}
	c := newTestCoordinator(t, run)
	app := appstate.New()
	app.OpenModal(appstate.PreflightModal{Items: []model.PackageItem{{Name: "ripgrep"}}})
	app.PreflightCancelled.Store(true)

	c.Apply(app, StageResultMsg{
		Stage: appstate.StageFiles,
		Scope: appstate.ScopePreflight,
		Files: map[string]model.PackageFileInfo{"ripgrep": {Package: "ripgrep"}},
	})

	// The mirror still benefits from the finished work; only UI sync stops.
	assert.Contains(t, app.Cache.Files, "ripgrep")
	assert.True(t, app.Cache.FilesDirty)
	pf := app.Modal.(appstate.PreflightModal)
	assert.Empty(t, pf.Files, "a cancelled preflight's tabs must not be mutated")
}

func TestSyncOpenPreflight_BuildsFileRowsFromCache(t *testing.T) {
	app := appstate.New()
	app.OpenModal(appstate.PreflightModal{Items: []model.PackageItem{{Name: "ripgrep"}}})
	info := model.PackageFileInfo{
		Package: "ripgrep",
		Changes: []model.FileChange{{Path: "usr/bin/rg", Type: model.ChangeNew}},
	}
	info.Recompute()
	app.Cache.Files["ripgrep"] = info

	syncOpenPreflight(app, StageResultMsg{Stage: appstate.StageFiles})

	pf := app.Modal.(appstate.PreflightModal)
	require.Len(t, pf.Files, 1)
	assert.Equal(t, "ripgrep", pf.Files[0].Package)
	assert.Contains(t, pf.Files[0].Summary, "1 new")
}

func TestSyncOpenPreflight_FlattensSandboxEntries(t *testing.T) {
	app := appstate.New()
	app.OpenModal(appstate.PreflightModal{Items: []model.PackageItem{{Name: "yay-bin", Source: model.AURSource()}}})
	app.Cache.Sandbox["yay-bin"] = model.SandboxInfo{
		Package: "yay-bin",
		Entries: []model.SandboxEntry{
			{Name: "go", Class: model.SandboxMakedepends, Installed: true},
			{Name: "git", Class: model.SandboxDepends, Installed: false},
		},
	}

	syncOpenPreflight(app, StageResultMsg{Stage: appstate.StageSandbox})

	pf := app.Modal.(appstate.PreflightModal)
	require.Len(t, pf.Sandbox, 2)
	assert.True(t, pf.SandboxLoaded)
}

func TestDebounceSearch_WaitsForIdlePeriod(t *testing.T) {
	app := appstate.New()
	app.LastInputAt = time.Now()
	assert.False(t, DebounceSearch(app))

	app.LastInputAt = time.Now().Add(-searchDebounce * 2)
	assert.True(t, DebounceSearch(app))
}

func TestExpireToast_ClearsAfterExpiry(t *testing.T) {
	app := appstate.New()
	app.SetToast("done", -time.Second)
	ExpireToast(app)
	assert.Empty(t, app.Toast)
}

func TestDrive_FlushesDirtyMirrorsAndRecent(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(""), nil
	}
	c := newTestCoordinator(t, run)
	app := appstate.New()
	app.Cache.Files["ripgrep"] = model.PackageFileInfo{Package: "ripgrep"}
	app.Cache.FilesDirty = true
	app.Recent.Upsert("ripgrep")
	app.Cache.RecentDirty = true
	app.Cache.LastMutated = time.Now().Add(-recentSaveDebounce * 2)

	c.Drive(app)

	assert.False(t, app.Cache.FilesDirty, "dirty mirror flushed to disk")
	assert.False(t, app.Cache.RecentDirty, "settled recent list persisted")
}
