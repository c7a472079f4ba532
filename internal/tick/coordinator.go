// Package tick implements the central coordinator: it reconciles
// appstate.AppState.InFlight entries into spawned resolver goroutines, drains
// their results back into the state's cache mirrors, debounces search and
// recent-history saves, and flushes dirty caches to disk. It is built
// around a listen Cmd idiom: a tea.Cmd blocks on a channel, returns the
// result as a tea.Msg, and is re-issued after every delivery — one channel
// per resolver stage, drained through a shared apply path since the five
// stages' payloads don't share a common shape.
package tick

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/cache"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/hostinfo"
	"github.com/pacsea-project/pacsea/internal/index"
	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/resolver"
)

// ResultEnvelope is what one resolver worker reports back. Exactly one of
// the payload fields is populated, matching Stage.
type ResultEnvelope struct {
	Stage    appstate.Stage
	Scope    appstate.InFlightScope
	Err      error
	Deps     []model.DependencyInfo
	Files    map[string]model.PackageFileInfo
	Services map[string]model.ServiceImpact
	Sandbox  map[string]model.SandboxInfo
	Summary  *appstate.PreflightSummaryData
}

// StageResultMsg is the tea.Msg carrying a finished resolver stage back to
// the tick loop.
type StageResultMsg ResultEnvelope

// searchDebounce is how long the search box must sit idle before a query is
// actually dispatched.
const searchDebounce = 150 * time.Millisecond

// recentSaveDebounce is the quiescence window before the recent-search list
// is persisted to disk.
const recentSaveDebounce = 2 * time.Second

// Coordinator owns the channels and in-flight bookkeeping the tick loop
// drains every Update cycle. One Coordinator is created per running program.
type Coordinator struct {
	run       resolver.Runner
	idx       *index.Index
	client    *fetch.Client
	store     *cache.Store
	aurHelper string

	mu      sync.Mutex
	running map[appstate.Stage]bool
	ch      map[appstate.Stage]chan ResultEnvelope

	lastFlush time.Time
}

func New(run resolver.Runner, idx *index.Index, client *fetch.Client, store *cache.Store) *Coordinator {
	return &Coordinator{
		run:       run,
		idx:       idx,
		client:    client,
		store:     store,
		aurHelper: hostinfo.AURHelper(),
		running:   map[appstate.Stage]bool{},
		ch: map[appstate.Stage]chan ResultEnvelope{
			appstate.StageDeps:     make(chan ResultEnvelope, 1),
			appstate.StageFiles:    make(chan ResultEnvelope, 1),
			appstate.StageServices: make(chan ResultEnvelope, 1),
			appstate.StageSandbox:  make(chan ResultEnvelope, 1),
			appstate.StageSummary:  make(chan ResultEnvelope, 1),
		},
	}
}

// Reconcile spawns a goroutine for every Stage that has an InFlight request
// recorded but no worker already running, and returns a listen Cmd for each
// stage currently running so bubbletea keeps polling it.
func (c *Coordinator) Reconcile(app *appstate.AppState) []tea.Cmd {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cmds []tea.Cmd
	for stage, inFlight := range app.InFlight {
		if inFlight == nil {
			continue
		}
		if !c.running[stage] {
			c.running[stage] = true
			go c.runStage(stage, inFlight.Scope, inFlight.Action, inFlight.Items)
		}
		cmds = append(cmds, c.listen(stage))
	}
	return cmds
}

func (c *Coordinator) listen(stage appstate.Stage) tea.Cmd {
	ch := c.ch[stage]
	return func() tea.Msg {
		env := <-ch
		return StageResultMsg(env)
	}
}

func (c *Coordinator) runStage(stage appstate.Stage, scope appstate.InFlightScope, action appstate.PreflightAction, items []model.PackageItem) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env := ResultEnvelope{Stage: stage, Scope: scope}
	switch stage {
	case appstate.StageDeps:
		deps, err := resolver.ResolveDependencies(ctx, c.run, c.idx, c.client, items, resolver.DepOptions{AURHelper: c.aurHelper})
		env.Deps, env.Err = deps, err
	case appstate.StageFiles:
		fileAction := resolver.FileActionInstall
		if action == appstate.ActionRemove {
			fileAction = resolver.FileActionRemove
		}
		files, err := resolver.ResolveFiles(ctx, c.run, fileAction, items)
		env.Files, env.Err = files, err
	case appstate.StageServices:
		svcAction := resolver.ServiceActionInstall
		if action == appstate.ActionRemove {
			svcAction = resolver.ServiceActionRemove
		}
		services, err := resolver.ResolveServices(ctx, c.run, svcAction, items)
		env.Services, env.Err = services, err
	case appstate.StageSandbox:
		env.Sandbox, env.Err = c.resolveSandboxStage(ctx, items)
	case appstate.StageSummary:
		summary, err := resolver.FullSummary(ctx, c.run, action, items)
		env.Summary, env.Err = &summary, err
	}

	c.ch[stage] <- env
}

func (c *Coordinator) resolveSandboxStage(ctx context.Context, items []model.PackageItem) (map[string]model.SandboxInfo, error) {
	raw := map[string]string{}
	for _, item := range items {
		if !item.Source.IsAUR {
			continue
		}
		text, err := c.client.SRCINFO(ctx, item.Name)
		if err != nil {
			raw[item.Name] = ""
			continue
		}
		raw[item.Name] = text
	}
	out := resolver.ResolveSandbox(raw, nil)
	return resolver.MarkInstalled(out, c.idx), nil
}

// Apply merges a finished stage's result into the state's cache mirrors,
// clears its InFlight entry, and skips UI sync if the preflight was
// cancelled while the worker was running — a post-hoc cancellation check
// instead of threading context cancellation through every resolver call,
// since a pacman invocation cannot be interrupted cleanly anyway.
func (c *Coordinator) Apply(app *appstate.AppState, msg StageResultMsg) {
	c.mu.Lock()
	c.running[msg.Stage] = false
	c.mu.Unlock()

	inFlight := app.InFlight[msg.Stage]
	delete(app.InFlight, msg.Stage)

	cancelled := msg.Scope == appstate.ScopePreflight && app.PreflightCancelled.Load()

	if msg.Err != nil {
		if !cancelled {
			setTabError(app, msg)
		}
		return
	}

	// Cache mirrors update even for a cancelled preflight's result, so the
	// next open benefits from the data; only UI sync is skipped.
	switch msg.Stage {
	case appstate.StageDeps:
		app.Cache.Deps[cacheKeyFor(app, inFlight)] = msg.Deps
		app.Cache.DepsDirty = true
	case appstate.StageFiles:
		for name, info := range msg.Files {
			app.Cache.Files[name] = info
		}
		app.Cache.FilesDirty = true
	case appstate.StageServices:
		for unit, impact := range msg.Services {
			app.Cache.Services[unit] = impact
		}
		app.Cache.ServicesDirty = true
	case appstate.StageSandbox:
		mergeSandboxMirror(app.Cache.Sandbox, msg.Sandbox)
		app.Cache.SandboxDirty = true
		// Completeness: the stage only counts as finished once every AUR
		// item it was launched for has a record (fresh or cached); a
		// partial result for a global-scope resolve is re-requested.
		if msg.Scope == appstate.ScopeGlobal && inFlight != nil && !sandboxComplete(app, inFlight.Items, msg.Sandbox) {
			app.InFlight[msg.Stage] = inFlight
		}
	case appstate.StageSummary:
		app.Cache.RemovePreflightSummary = msg.Summary
	}
	app.Cache.LastMutated = time.Now()

	if cancelled {
		return
	}
	syncOpenPreflight(app, msg)
}

// mergeSandboxMirror applies the sandbox merge policy at the mirror level: a
// fresh empty entry never overwrites a cached non-empty one for the same
// package, and packages absent from the new result are left untouched.
func mergeSandboxMirror(mirror, fresh map[string]model.SandboxInfo) {
	for name, info := range fresh {
		if prior, ok := mirror[name]; ok && len(info.Entries) == 0 && len(prior.Entries) > 0 {
			continue
		}
		mirror[name] = info
	}
}

// sandboxComplete reports whether every AUR item in the launched set has a
// record in either the fresh result or the merged mirror.
func sandboxComplete(app *appstate.AppState, items []model.PackageItem, fresh map[string]model.SandboxInfo) bool {
	for _, it := range items {
		if !it.Source.IsAUR {
			continue
		}
		if _, ok := fresh[it.Name]; ok {
			continue
		}
		if _, ok := app.Cache.Sandbox[it.Name]; ok {
			continue
		}
		return false
	}
	return true
}

// setTabError surfaces a stage failure on the open preflight's matching tab
// instead of dropping it silently.
func setTabError(app *appstate.AppState, msg StageResultMsg) {
	pf, ok := app.Modal.(appstate.PreflightModal)
	if !ok {
		return
	}
	switch msg.Stage {
	case appstate.StageDeps:
		pf.DepsError = msg.Err.Error()
	case appstate.StageFiles:
		pf.FilesError = msg.Err.Error()
	case appstate.StageServices:
		pf.ServicesError = msg.Err.Error()
		pf.ServicesLoaded = true
	case appstate.StageSandbox:
		pf.SandboxError = msg.Err.Error()
		pf.SandboxLoaded = true
	}
	app.Modal = pf
}

// cacheKeyFor keys the deps mirror by the signature of the item set the
// worker was launched with (falling back to the open preflight's set);
// outside any preflight a constant key serves the single global refresh.
func cacheKeyFor(app *appstate.AppState, inFlight *appstate.InFlight) string {
	if inFlight != nil && len(inFlight.Items) > 0 {
		return cache.Signature(inFlight.Items)
	}
	if pf, ok := app.Modal.(appstate.PreflightModal); ok {
		return cache.Signature(pf.Items)
	}
	return "global"
}

// syncOpenPreflight refreshes an open PreflightModal's tab data from the
// freshly landed cache mirrors, filtered to the modal's own item set -- so
// a result for a stale/closed preflight never bleeds into a new one.
func syncOpenPreflight(app *appstate.AppState, msg StageResultMsg) {
	pf, ok := app.Modal.(appstate.PreflightModal)
	if !ok {
		return
	}
	itemSet := map[string]bool{}
	for _, it := range pf.Items {
		itemSet[it.Name] = true
	}

	switch msg.Stage {
	case appstate.StageDeps:
		pf.Deps = nil
		for _, d := range app.Cache.Deps[cache.Signature(pf.Items)] {
			if !itemSet[d.Name] && !dependedOnBy(d, itemSet) {
				continue
			}
			pf.Deps = append(pf.Deps, appstate.DependencyRow{
				Name:        d.Name,
				Requirement: d.Requirement,
				StatusText:  FormatDepStatus(d.Status),
				Source:      FormatSource(d.Source),
				RequiredBy:  d.RequiredBy,
				Children:    d.Children,
				Optional:    d.Optional,
				Note:        d.Note,
				IsCore:      d.IsCore,
				IsSystem:    d.IsSystem,
			})
		}
	case appstate.StageFiles:
		pf.Files = nil
		for name, info := range app.Cache.Files {
			if itemSet[name] {
				pf.Files = append(pf.Files, appstate.FileRow{
					Package: name,
					Summary: formatFileRowSummary(info),
					Changes: formatFileRowChanges(info),
				})
			}
		}
	case appstate.StageSandbox:
		pf.Sandbox = nil
		for name, info := range app.Cache.Sandbox {
			if !itemSet[name] {
				continue
			}
			for _, entry := range info.Entries {
				pf.Sandbox = append(pf.Sandbox, appstate.SandboxRow{
					Name:      entry.Name,
					Class:     formatSandboxClass(entry.Class),
					Installed: entry.Installed,
				})
			}
		}
		pf.SandboxLoaded = true
	case appstate.StageServices:
		pf.Services = nil
		for unit, impact := range app.Cache.Services {
			pf.Services = append(pf.Services, appstate.ServiceRow{
				Unit:         unit,
				Providers:    impact.ProvidingPackages,
				NeedsRestart: impact.NeedsRestart,
				Decision:     formatDecision(impact.UserDecision),
			})
		}
		pf.ServicesLoaded = true
	case appstate.StageSummary:
		if msg.Summary != nil {
			pf.Summary = *msg.Summary
		}
	}
	app.Modal = pf
}

// dependedOnBy reports whether d is required by any package in the
// preflight's own item set, so transitive deps of the target packages still
// show up even though their own name isn't in itemSet.
func dependedOnBy(d model.DependencyInfo, itemSet map[string]bool) bool {
	for _, parent := range d.RequiredBy {
		if itemSet[parent] {
			return true
		}
	}
	return false
}

// DebounceSearch reports whether enough idle time has passed since the
// last keystroke to fire the search.
func DebounceSearch(app *appstate.AppState) bool {
	return !app.LastInputAt.IsZero() && time.Since(app.LastInputAt) >= searchDebounce
}

// DebounceRecentSave reports whether the recent-search list has been
// quiescent long enough to persist.
func DebounceRecentSave(app *appstate.AppState) bool {
	return app.Cache.RecentDirty && time.Since(app.Cache.LastMutated) >= recentSaveDebounce
}

// ExpireToast clears a toast whose TTL has elapsed.
func ExpireToast(app *appstate.AppState) {
	if app.Toast != "" && time.Now().After(app.ToastExpiry) {
		app.Toast = ""
	}
}
