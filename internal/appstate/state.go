package appstate

import (
	"sync/atomic"
	"time"

	"github.com/pacsea-project/pacsea/internal/model"
)

// Focus is which pane currently receives keyboard input.
type Focus int

const (
	FocusSearch Focus = iota
	FocusRecent
	FocusInstall
	FocusRemove
)

// Stage identifies one of the five resolver kinds driven by the tick loop.
type Stage int

const (
	StageDeps Stage = iota
	StageFiles
	StageServices
	StageSandbox
	StageSummary
)

func (s Stage) String() string {
	return [...]string{"deps", "files", "services", "sandbox", "summary"}[s]
}

// InFlightScope says whether a launched worker was spawned for the Preflight
// modal (subject to cancellation-on-close) or for a global refresh.
type InFlightScope int

const (
	ScopeGlobal InFlightScope = iota
	ScopePreflight
)

// InFlight is one stage's launched-worker snapshot. A single optional
// record per stage (rather than separate resolving booleans plus an items
// field) keeps the invalid flag combinations unrepresentable. nil means no
// worker is running for that stage.
type InFlight struct {
	Items  []model.PackageItem
	Scope  InFlightScope
	Action PreflightAction
}

// CacheMirrors holds the latest payload the tick loop has for each
// persistable resolver cache, plus a generic dirty flag per collection.
type CacheMirrors struct {
	Deps     map[string][]model.DependencyInfo
	Files    map[string]model.PackageFileInfo
	Services map[string]model.ServiceImpact
	Sandbox  map[string]model.SandboxInfo

	RemovePreflightSummary *PreflightSummaryData

	DepsDirty     bool
	FilesDirty    bool
	ServicesDirty bool
	SandboxDirty  bool
	RecentDirty   bool
	InstallDirty  bool
	RemoveDirty   bool

	LastMutated time.Time
}

// RecentLRU is a most-recently-inserted-first, capacity-bounded, case
// insensitively-deduped history of search terms.
type RecentLRU struct {
	capacity int
	entries  []string // entries[0] is most recent
}

func NewRecentLRU(capacity int) *RecentLRU {
	if capacity <= 0 {
		capacity = 20
	}
	return &RecentLRU{capacity: capacity}
}

func (l *RecentLRU) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Upsert inserts key at the front, removing any prior case-insensitive
// duplicate, and trims to capacity.
func (l *RecentLRU) Upsert(key string) {
	lower := toLower(key)
	filtered := l.entries[:0:0]
	for _, e := range l.entries {
		if toLower(e) != lower {
			filtered = append(filtered, e)
		}
	}
	l.entries = append([]string{key}, filtered...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
}

func (l *RecentLRU) LoadFrom(keys []string) {
	l.entries = nil
	for _, k := range keys {
		l.Upsert(k)
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ResultFilters are the repo/AUR toggles applied between AllResults and
// Results. All toggles default to on.
type ResultFilters struct {
	ShowCore     bool
	ShowExtra    bool
	ShowMultilib bool
	ShowAUR      bool
}

// AppState is the single authoritative state record. Only the event
// loop goroutine mutates it; background workers communicate results back on
// channels that the tick loop drains and applies here.
type AppState struct {
	// Search
	Input        string
	InputCursor  int
	AllResults   []model.PackageItem // unfiltered results of the latest query
	Results      []model.PackageItem
	Selection    int
	Filters      ResultFilters
	Focus        Focus
	LastInputAt  time.Time
	LastSavedValue string
	LatestQueryID  uint64

	// Installed-only mode snapshots the live view so toggling twice
	// restores the prior result list and focus exactly.
	InstalledOnly  bool
	SavedResults   []model.PackageItem
	SavedSelection int
	SavedFocus     Focus

	// NetworkErrorFlag is set by fetch fallbacks so the UI can toast once
	// without blocking on the failed request.
	NetworkErrorFlag bool

	Recent *RecentLRU

	InstallQueue []model.PackageItem
	RemoveQueue  []model.PackageItem

	Cache CacheMirrors

	InFlight map[Stage]*InFlight

	PreflightCancelled atomic.Bool

	Modal         Modal
	PreviousModal Modal

	PendingExecutorRequest   *ExecutorRequestSnapshot
	PendingInstallNames      []string
	PendingPostSummaryItems  []string
	PendingServicePlan       []model.ServiceImpact

	Toast       string
	ToastExpiry time.Time

	SudoPassword string

	// Rectangles deposited by the renderer each frame for mouse hit-testing.
	HitRects map[string]Rect

	virusTotalKey string
}

const defaultToastTTL = 4 * time.Second

// Rect is a renderer-owned screen region used for mouse click routing.
type Rect struct{ X, Y, W, H int }

// ExecutorRequestSnapshot captures what was asked of the executor so a
// PasswordPrompt can resume it after the user authenticates.
type ExecutorRequestSnapshot struct {
	Kind    ExecutorRequestKind
	Items   []string
	OptDeps []string // user-chosen optional deps, installed --asdeps
	Tools   []string // scanner tools for ExecScan
	DryRun  bool
	Cascade CascadeMode
}

type ExecutorRequestKind int

const (
	ExecInstall ExecutorRequestKind = iota
	ExecRemove
	ExecUpdate
	ExecScan
)

// New builds a zeroed AppState with its maps/collections initialized.
func New() *AppState {
	return &AppState{
		Focus: FocusSearch,
		Filters: ResultFilters{ShowCore: true, ShowExtra: true, ShowMultilib: true, ShowAUR: true},
		Recent: NewRecentLRU(20),
		Cache: CacheMirrors{
			Deps:     map[string][]model.DependencyInfo{},
			Files:    map[string]model.PackageFileInfo{},
			Services: map[string]model.ServiceImpact{},
			Sandbox:  map[string]model.SandboxInfo{},
		},
		InFlight: map[Stage]*InFlight{},
		HitRects: map[string]Rect{},
	}
}

// IsInQueue reports whether name is present in the install queue and
// whether it is present in the remove queue.
func (a *AppState) IsInQueue(name string) (install, remove bool) {
	for _, p := range a.InstallQueue {
		if p.Name == name {
			install = true
		}
	}
	for _, p := range a.RemoveQueue {
		if p.Name == name {
			remove = true
		}
	}
	return
}

// AddToInstall enforces the invariant that install/remove are disjoint by
// name: adding to one removes from the other. Adding a package already
// queued is a no-op.
func (a *AppState) AddToInstall(item model.PackageItem) {
	a.removeFromRemoveQueue(item.Name)
	for _, p := range a.InstallQueue {
		if p.Name == item.Name {
			return
		}
	}
	a.InstallQueue = append(a.InstallQueue, item)
	a.Cache.InstallDirty = true
	a.Cache.LastMutated = time.Now()
}

func (a *AppState) AddToRemove(item model.PackageItem) {
	a.removeFromInstallQueue(item.Name)
	for _, p := range a.RemoveQueue {
		if p.Name == item.Name {
			return
		}
	}
	a.RemoveQueue = append(a.RemoveQueue, item)
	a.Cache.RemoveDirty = true
	a.Cache.LastMutated = time.Now()
}

func (a *AppState) removeFromInstallQueue(name string) {
	out := a.InstallQueue[:0:0]
	for _, p := range a.InstallQueue {
		if p.Name != name {
			out = append(out, p)
		}
	}
	if len(out) != len(a.InstallQueue) {
		a.Cache.InstallDirty = true
	}
	a.InstallQueue = out
}

func (a *AppState) removeFromRemoveQueue(name string) {
	out := a.RemoveQueue[:0:0]
	for _, p := range a.RemoveQueue {
		if p.Name != name {
			out = append(out, p)
		}
	}
	if len(out) != len(a.RemoveQueue) {
		a.Cache.RemoveDirty = true
	}
	a.RemoveQueue = out
}

// OpenModal stacks the current modal into PreviousModal iff the new modal is
// one of the three that stack (Alert, ScanConfig, PasswordPrompt), per the
// spec invariant.
func (a *AppState) OpenModal(m Modal) {
	switch m.(type) {
	case AlertModal, ScanConfigModal, PasswordPromptModal:
		a.PreviousModal = a.Modal
	default:
		a.PreviousModal = nil
	}
	a.Modal = m
}

// CloseModal unwinds to PreviousModal if one was stacked, else to no modal.
func (a *AppState) CloseModal() {
	if a.PreviousModal != nil {
		a.Modal = a.PreviousModal
		a.PreviousModal = nil
		return
	}
	a.Modal = nil
}

// MarkInputChanged stamps the debounce clock after any search-input edit.
func (a *AppState) MarkInputChanged() {
	a.LastInputAt = time.Now()
}

// SetToast sets a toast message with a fixed expiry, matching the tick
// loop's toast-expiry step.
func (a *AppState) SetToast(message string, ttl time.Duration) {
	a.Toast = message
	a.ToastExpiry = time.Now().Add(ttl)
}
