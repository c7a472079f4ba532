package tick

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/cache"
)

// flushInterval bounds how often a dirty cache mirror is written to disk,
// so a burst of resolver results doesn't turn into a burst of file writes.
const flushInterval = 3 * time.Second

// Drive is the single entry point internal/tui calls once per Update cycle:
// it reconciles in-flight resolver workers, expires a stale toast, and
// flushes whatever cache mirrors have gone dirty since the last flush. It
// returns every tea.Cmd the caller must fold into its own Cmd batch.
func (c *Coordinator) Drive(app *appstate.AppState) []tea.Cmd {
	ExpireToast(app)
	cmds := c.Reconcile(app)

	if DebounceRecentSave(app) {
		if err := c.store.SaveRecent(app.Recent.Entries()); err == nil {
			app.Cache.RecentDirty = false
		}
	}

	c.flushDirty(app)
	return cmds
}

func (c *Coordinator) flushDirty(app *appstate.AppState) {
	if time.Since(c.lastFlush) < flushInterval {
		return
	}

	flushed := false
	if app.Cache.DepsDirty {
		entries := make(map[string]cache.DepsEntry, len(app.Cache.Deps))
		for sig, deps := range app.Cache.Deps {
			entries[sig] = cache.DepsEntry{Signature: sig, Deps: deps}
		}
		if err := c.store.SaveDeps(entries); err == nil {
			app.Cache.DepsDirty = false
			flushed = true
		}
	}
	if app.Cache.FilesDirty {
		entries := make(map[string]cache.FilesEntry, len(app.Cache.Files))
		for name, info := range app.Cache.Files {
			entries[name] = cache.FilesEntry{Signature: name, Files: info}
		}
		if err := c.store.SaveFiles(entries); err == nil {
			app.Cache.FilesDirty = false
			flushed = true
		}
	}
	if app.Cache.ServicesDirty {
		entries := make(map[string]cache.ServicesEntry, len(app.Cache.Services))
		for unit, impact := range app.Cache.Services {
			entries[unit] = cache.ServicesEntry{Package: unit, Impact: impact}
		}
		if err := c.store.SaveServices(entries); err == nil {
			app.Cache.ServicesDirty = false
			flushed = true
		}
	}
	if app.Cache.SandboxDirty {
		entries := make(map[string]cache.SandboxEntry, len(app.Cache.Sandbox))
		for name, info := range app.Cache.Sandbox {
			entries[name] = cache.SandboxEntry{Signature: name, Sandbox: info}
		}
		if err := c.store.SaveSandbox(entries); err == nil {
			app.Cache.SandboxDirty = false
			flushed = true
		}
	}
	if app.Cache.InstallDirty {
		names := make([]string, len(app.InstallQueue))
		for i, p := range app.InstallQueue {
			names[i] = p.Name
		}
		if err := c.store.SaveInstallList(names); err == nil {
			app.Cache.InstallDirty = false
			flushed = true
		}
	}
	if app.Cache.RemoveDirty {
		names := make([]string, len(app.RemoveQueue))
		for i, p := range app.RemoveQueue {
			names[i] = p.Name
		}
		if err := c.store.SaveRemoveList(names); err == nil {
			app.Cache.RemoveDirty = false
			flushed = true
		}
	}

	if flushed {
		c.lastFlush = time.Now()
	}
}
