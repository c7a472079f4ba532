// Package tui hosts the event loop: a bubbletea Model owning the single
// appstate.AppState, routing keys through internal/router, driving the tick
// coordinator each cycle, and starting/draining executor transactions. All
// state mutation happens inside Update — background work only ever comes
// back as messages.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/cache"
	"github.com/pacsea-project/pacsea/internal/executor"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/index"
	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/netstate"
	"github.com/pacsea-project/pacsea/internal/paths"
	"github.com/pacsea-project/pacsea/internal/plog"
	"github.com/pacsea-project/pacsea/internal/resolver"
	"github.com/pacsea-project/pacsea/internal/router"
	"github.com/pacsea-project/pacsea/internal/search"
	"github.com/pacsea-project/pacsea/internal/tick"
	"github.com/pacsea-project/pacsea/internal/updates"
	"github.com/spf13/afero"
)

// tickInterval is the event loop's heartbeat; every handler that needs
// wall-clock progress (debounce, flush, toast expiry) samples on it.
const tickInterval = 100 * time.Millisecond

// newsCutoffWindow bounds how far back the news feed is walked.
const newsCutoffWindow = 90 * 24 * time.Hour

type Model struct {
	version string

	app    *appstate.AppState
	coord  *tick.Coordinator
	engine *search.Engine
	idx    *index.Index
	client *fetch.Client
	store  *cache.Store
	layout paths.Layout
	fs     afero.Fs

	styles  Styles
	spinner spinner.Model
	logView viewport.Model
	width   int
	height  int

	// lastDispatched prevents re-dispatching the same settled query text
	// every tick once the debounce window has elapsed.
	lastDispatched string

	// details caches fetched package metadata by name; detailFetching
	// gates one in-flight fetch at a time. comments holds AUR page
	// comments fetched alongside an AUR package's details.
	details        map[string]model.PackageDetails
	comments       map[string][]fetch.AURComment
	detailFetching bool

	// execCh is non-nil while a transaction streams output.
	execCh chan executor.Output

	archStatus fetch.ArchStatus
	haveStatus bool

	// gnomeNoticeShown gates the one-time gnome-terminal notice before the
	// first externally spawned command.
	gnomeNoticeShown   bool
	validatingPassword bool
	lastRequest        executor.Request

	quitting bool
}

func NewModel(version string) Model {
	fs := afero.NewOsFs()
	layout := paths.New()
	idx := index.New()
	client := fetch.NewClient(fs, layout.CacheDir, netstate.New())
	store := cache.NewStore(fs, layout)
	app := appstate.New()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		version: version,
		app:     app,
		coord:   tick.New(resolver.Exec, idx, client, store),
		engine:  search.NewEngine(idx, client),
		idx:     idx,
		client:  client,
		store:   store,
		layout:  layout,
		fs:      fs,
		styles:  NewStyles(),
		spinner: sp,
		logView:  viewport.New(80, 20),
		details:  map[string]model.PackageDetails{},
		comments: map[string][]fetch.AURComment{},
	}
	m.loadPersisted()
	return m
}

// loadPersisted warms the state from disk: queues, recent searches, and the
// resolver cache mirrors whose signatures still match the install queue.
func (m *Model) loadPersisted() {
	if names, err := m.store.LoadInstallList(); err == nil {
		for _, n := range names {
			m.app.InstallQueue = append(m.app.InstallQueue, model.PackageItem{Name: n})
		}
	}
	if names, err := m.store.LoadRemoveList(); err == nil {
		for _, n := range names {
			m.app.RemoveQueue = append(m.app.RemoveQueue, model.PackageItem{Name: n})
		}
	}
	if recent, err := m.store.LoadRecent(); err == nil {
		m.app.Recent.LoadFrom(recent)
	}
	// Loading queues from disk must not immediately mark them dirty again.
	m.app.Cache.InstallDirty = false
	m.app.Cache.RemoveDirty = false
	m.app.Cache.RecentDirty = false

	sig := cache.Signature(m.app.InstallQueue)
	if entries, err := m.store.LoadDeps(); err == nil {
		if e, ok := entries[sig]; ok {
			m.app.Cache.Deps[sig] = e.Deps
		}
	}
	if entries, err := m.store.LoadFiles(); err == nil {
		for name, e := range entries {
			m.app.Cache.Files[name] = e.Files
		}
	}
	if entries, err := m.store.LoadServices(); err == nil {
		for unit, e := range entries {
			m.app.Cache.Services[unit] = e.Impact
		}
	}
	if entries, err := m.store.LoadSandbox(); err == nil {
		for name, e := range entries {
			m.app.Cache.Sandbox[name] = e.Sandbox
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.spinner.Tick,
		m.loadIndexCmd(),
		m.fetchStatusCmd(),
		m.checkAnnouncementCmd(),
	)
}

// checkAnnouncementCmd surfaces the newest news item once per item: if the
// feed's head is newer than the last-seen stamp, it opens as an
// announcement on startup.
func (m Model) checkAnnouncementCmd() tea.Cmd {
	client := m.client
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		items, err := client.ArchNews(ctx, time.Now().Add(-newsCutoffWindow))
		if err != nil || len(items) == 0 {
			return announcementMsg{}
		}
		newest := items[0]
		if newest.Date <= store.LoadAnnouncementSeen() {
			return announcementMsg{}
		}
		_ = store.SaveAnnouncementSeen(newest.Date)
		return announcementMsg{item: newest, show: true}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

// loadIndexCmd lazily initializes C1: the official catalog from a bulk
// `pacman -Sl`-shaped listing plus both installed sets.
func (m Model) loadIndexCmd() tea.Cmd {
	idx := m.idx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		count, err := idx.LoadFromPacman(ctx)
		if err != nil {
			return indexReadyMsg{err: err}
		}
		_ = idx.RefreshInstalledSet(ctx)
		_ = idx.RefreshExplicitCache(ctx, index.LeafOnly)
		return indexReadyMsg{count: count}
	}
}

func (m Model) fetchStatusCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		status, err := client.ArchStatusSummary(ctx)
		return statusMsg{status: status, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logView.Width = msg.Width - 8
		m.logView.Height = msg.Height - 10
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tickMsg:
		return m.handleTick()

	case indexReadyMsg:
		if msg.err != nil {
			plog.Warnf("loading package index: %v", msg.err)
			m.app.SetToast("Could not load the official package index", 4*time.Second)
		}
		return m, nil

	case searchResultMsg:
		search.ApplyResult(m.app, search.QueryResult(msg))
		search.AllowRing(resultNames(m.app.Results), m.app.Selection, 3)
		return m, nil

	case tick.StageResultMsg:
		m.coord.Apply(m.app, msg)
		return m, nil

	case newsMsg:
		if msg.err != nil {
			m.noteNetworkError("Could not fetch Arch news")
			return m, nil
		}
		m.app.OpenModal(appstate.NewsModal{Items: msg.items})
		return m, nil

	case updatesMsg:
		if msg.err != nil {
			m.noteNetworkError("Could not check for updates")
		}
		m.app.OpenModal(appstate.UpdatesModal{Entries: msg.entries})
		if msg.err == nil {
			if err := updates.Persist(m.fs, m.layout.AvailUpdates, msg.entries); err != nil {
				plog.Warnf("persisting available updates: %v", err)
			}
		}
		return m, nil

	case statusMsg:
		if msg.err == nil {
			m.archStatus = msg.status
			m.haveStatus = true
		}
		return m, nil

	case detailsMsg:
		m.detailFetching = false
		if msg.err == nil && msg.details.Name != "" {
			m.details[msg.details.Name] = msg.details
			if len(msg.comments) > 0 {
				m.comments[msg.details.Name] = msg.comments
			}
		}
		return m, nil

	case announcementMsg:
		if msg.show && m.app.Modal == nil {
			m.app.OpenModal(appstate.AnnouncementModal{Title: msg.item.Title, Body: msg.item.Content})
		}
		return m, nil

	case newsArticleMsg:
		if nm, ok := m.app.Modal.(appstate.NewsModal); ok {
			if msg.err != nil {
				m.noteNetworkError("Could not fetch the article")
			} else if msg.index < len(nm.Items) {
				nm.Items[msg.index].Content = msg.content
				m.app.Modal = nm
			}
		}
		return m, nil

	case passwordValidMsg:
		return m.handlePasswordValidated(msg)

	case execOutputMsg:
		return m.handleExecOutput(executor.Output(msg))

	case execDoneMsg:
		m.execCh = nil
		return m, nil

	case postSummaryMsg:
		m.app.Modal = appstate.PostSummaryModal{
			Installed: msg.installed,
			Removed:   msg.removed,
			Failed:    msg.failed,
		}
		return m, m.loadIndexCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Opening a news article needs a network fetch, which a modal handler
	// cannot issue; intercept it here before generic dispatch.
	if nm, ok := m.app.Modal.(appstate.NewsModal); ok && msg.String() == "enter" {
		return m, m.fetchArticleCmd(nm)
	}

	handled, action := router.Dispatch(m.app, msg)
	if handled {
		return m, nil
	}

	switch action {
	case router.ActionQuit:
		m.quitting = true
		m.flushOnExit()
		return m, tea.Quit
	case router.ActionFocusNext:
		router.CycleFocus(m.app, true)
	case router.ActionFocusPrev:
		router.CycleFocus(m.app, false)
	case router.ActionAddSelectedToInstall:
		m.addSelected(false)
	case router.ActionAddSelectedToRemove:
		m.addSelected(true)
	case router.ActionOpenPreflightInstall:
		return m.openPreflight(appstate.ActionInstall)
	case router.ActionOpenPreflightRemove:
		return m.openPreflight(appstate.ActionRemove)
	case router.ActionOpenSystemUpdate:
		m.app.OpenModal(appstate.SystemUpdateModal{
			RefreshMirrors: false, UpgradeSystem: true, UpgradeAUR: true,
			Country: "auto", MirrorCount: 20,
		})
	case router.ActionOpenUpdates:
		m.app.OpenModal(appstate.LoadingModal{Message: "Checking for updates..."})
		return m, m.checkUpdatesCmd()
	case router.ActionOpenHelp:
		m.app.OpenModal(appstate.HelpModal{})
	case router.ActionOpenNews:
		m.app.OpenModal(appstate.LoadingModal{Message: "Fetching Arch news..."})
		return m, m.fetchNewsCmd()
	case router.ActionOpenScanConfig:
		m.app.OpenModal(appstate.ScanConfigModal{Rows: []appstate.ScanToolRow{
			{Name: "clamscan", Enabled: true},
			{Name: "rkhunter"},
			{Name: "trivy"},
		}})
	case router.ActionToggleInstalledOnly:
		if names, entered := search.ToggleInstalledOnly(m.app, m.idx); entered {
			if err := m.store.SaveInstalledSnapshot(names); err != nil {
				plog.Warnf("writing installed snapshot: %v", err)
			}
		}
	case router.ActionExportInstallList:
		m.exportInstallList()
	case router.ActionRecallRecent:
		m.recallRecent()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonWheelUp {
			m.scrollFocused(-1)
		} else if msg.Button == tea.MouseButtonWheelDown {
			m.scrollFocused(1)
		} else if region, ok := router.DispatchMouse(m.app, msg.X, msg.Y); ok {
			return m.handleRegionClick(region)
		}
	}
	return m, nil
}

func (m *Model) scrollFocused(delta int) {
	if pf, ok := m.app.Modal.(appstate.PreflightModal); ok {
		pf.MoveSelection(delta)
		m.app.Modal = pf
		return
	}
	m.app.Selection += delta
	if m.app.Selection < 0 {
		m.app.Selection = 0
	}
	if m.app.Selection >= len(m.app.Results) && len(m.app.Results) > 0 {
		m.app.Selection = len(m.app.Results) - 1
	}
}

func (m Model) handleRegionClick(region string) (tea.Model, tea.Cmd) {
	switch region {
	case "search":
		m.app.Focus = appstate.FocusSearch
	case "recent":
		m.app.Focus = appstate.FocusRecent
	case "install":
		m.app.Focus = appstate.FocusInstall
	case "remove":
		m.app.Focus = appstate.FocusRemove
	case "preflight-install":
		return m.openPreflight(appstate.ActionInstall)
	case "preflight-remove":
		return m.openPreflight(appstate.ActionRemove)
	}
	return m, nil
}

// handleTick is one pass of the event loop: drive the coordinator (reconcile,
// flush, toast expiry), then the debounce steps and transaction hooks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := m.coord.Drive(m.app)

	if cmd := m.maybeDispatchSearch(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	m.debounceRecentSave()

	if cmd := m.maybeStartTransaction(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := m.maybeFetchDetails(); cmd != nil {
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.tickCmd())
	return m, tea.Batch(cmds...)
}

// maybeFetchDetails lazily fills the selected result's full metadata, gated
// to the ring of names around the selection so rapid scrolling doesn't
// queue a fetch per row passed through.
func (m *Model) maybeFetchDetails() tea.Cmd {
	if m.detailFetching || m.app.Selection >= len(m.app.Results) || len(m.app.Results) == 0 {
		return nil
	}
	item := m.app.Results[m.app.Selection]
	if _, have := m.details[item.Name]; have || !search.DetailAllowed(item.Name) {
		return nil
	}
	m.detailFetching = true
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		details, err := client.PackageDetails(ctx, item)
		msg := detailsMsg{details: details, err: err}
		if err == nil && item.Source.IsAUR {
			// Comments are best-effort flavor; a scrape failure must not
			// discard the details that did arrive.
			if comments, cerr := client.AURComments(ctx, item.Name); cerr == nil {
				msg.comments = comments
			}
		}
		return msg
	}
}

// fetchArticleCmd loads the selected news item's full body, replacing the
// feed's truncated description once it lands.
func (m Model) fetchArticleCmd(nm appstate.NewsModal) tea.Cmd {
	if nm.Selection >= len(nm.Items) {
		return nil
	}
	index := nm.Selection
	articleURL := nm.Items[index].URL
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		content, err := client.NewsArticle(ctx, articleURL)
		return newsArticleMsg{index: index, content: content, err: err}
	}
}

// maybeDispatchSearch fires a query once the input has settled, tagging it
// with a fresh monotonically increasing id.
func (m *Model) maybeDispatchSearch() tea.Cmd {
	term := strings.TrimSpace(m.app.Input)
	if term == m.lastDispatched || !tick.DebounceSearch(m.app) {
		return nil
	}
	m.lastDispatched = term
	if term == "" {
		m.app.AllResults = nil
		m.app.Results = nil
		m.app.Selection = 0
		return nil
	}

	m.app.LatestQueryID++
	id := m.app.LatestQueryID
	engine := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return searchResultMsg(engine.Run(ctx, id, term))
	}
}

// debounceRecentSave upserts the settled search term into the LRU after the
// 2s quiescence window; the coordinator's Drive flushes it to disk.
func (m *Model) debounceRecentSave() {
	term := strings.TrimSpace(m.app.Input)
	if term == "" || term == m.app.LastSavedValue {
		return
	}
	if time.Since(m.app.LastInputAt) < 2*time.Second {
		return
	}
	m.app.Recent.Upsert(term)
	m.app.LastSavedValue = term
	m.app.Cache.RecentDirty = true
	m.app.Cache.LastMutated = time.Now()
}

func (m *Model) addSelected(toRemove bool) {
	if m.app.Selection >= len(m.app.Results) {
		return
	}
	item := m.app.Results[m.app.Selection]
	if toRemove {
		m.app.AddToRemove(item)
	} else {
		m.app.AddToInstall(item)
	}
}

func (m *Model) recallRecent() {
	entries := m.app.Recent.Entries()
	if m.app.Selection < len(entries) {
		m.app.Input = entries[m.app.Selection]
		m.app.InputCursor = len(m.app.Input)
		m.app.Focus = appstate.FocusSearch
		m.app.MarkInputChanged()
	}
}

func (m *Model) exportInstallList() {
	path, err := m.store.ExportInstallList(queueNames(m.app.InstallQueue))
	if err != nil {
		m.app.SetToast("Export failed: "+err.Error(), 4*time.Second)
		return
	}
	m.app.SetToast("Exported install list to "+path, 4*time.Second)
}

func (m *Model) noteNetworkError(toast string) {
	if !m.app.NetworkErrorFlag {
		m.app.NetworkErrorFlag = true
		m.app.SetToast(toast, 4*time.Second)
	}
}

// flushOnExit persists everything dirty synchronously before the program
// exits, since no further tick will run.
func (m *Model) flushOnExit() {
	_ = m.store.SaveInstallList(queueNames(m.app.InstallQueue))
	_ = m.store.SaveRemoveList(queueNames(m.app.RemoveQueue))
	_ = m.store.SaveRecent(m.app.Recent.Entries())
}

func (m Model) fetchNewsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		items, err := client.ArchNews(ctx, time.Now().Add(-newsCutoffWindow))
		return newsMsg{items: items, err: err}
	}
}

func (m Model) checkUpdatesCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		entries, err := updates.Check(ctx, resolver.Exec, client)
		if advisories, aerr := client.SecurityAdvisories(ctx); aerr == nil {
			byPackage := fetch.AdvisoriesByPackage(advisories)
			for i := range entries {
				if adv, hit := byPackage[entries[i].Name]; hit {
					entries[i].Advisory = adv.AVG + " (" + adv.Severity + ")"
				}
			}
		}
		return updatesMsg{entries: entries, err: err}
	}
}

func queueNames(items []model.PackageItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}

func resultNames(items []model.PackageItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names
}
