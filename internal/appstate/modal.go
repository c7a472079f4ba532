// Package appstate holds the single authoritative application state:
// panes, queues, caches mirrors, and the modal stack. Mutation is serialized
// by the event loop; nothing outside it writes to AppState directly.
package appstate

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/model"
)

// Outcome is what a modal's key handler decided to do. The zero value means
// "keep the modal open, unchanged" — the router's restore behavior for keys
// a modal ignores.
type Outcome struct {
	Close   bool
	Replace Modal // non-nil to swap in a different modal without fully closing
}

// Modal is a per-variant handler interface in place of one wide enum
// reconstructed by value: each modal knows how to handle its own keys and
// hands back what the router should do next.
type Modal interface {
	Handle(app *AppState, msg tea.KeyMsg) Outcome
	// CloseKeys documents which keys this modal treats as "close"; every
	// other key leaves the modal open.
	CloseKeys() []string
}

// ---- Alert ----

type AlertModal struct{ Message string }

func (m AlertModal) CloseKeys() []string { return []string{"esc", "enter", "q"} }
func (m AlertModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "enter", "q":
		return Outcome{Close: true}
	}
	return Outcome{}
}

// ---- Help ----

type HelpModal struct{}

func (m HelpModal) CloseKeys() []string { return []string{"esc", "q"} }
func (m HelpModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "q":
		return Outcome{Close: true}
	case "i":
		return Outcome{Replace: ImportHelpModal{}}
	}
	return Outcome{}
}

// ---- News ----

type NewsItem struct {
	Title   string
	URL     string
	Date    int64
	Content string
}

type NewsModal struct {
	Items     []NewsItem
	Selection int
	Scroll    int
}

func (m NewsModal) CloseKeys() []string { return []string{"esc", "q"} }
func (m NewsModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "q":
		return Outcome{Close: true}
	case "down", "j":
		if m.Selection < len(m.Items)-1 {
			m.Selection++
		}
		return Outcome{Replace: m}
	case "up", "k":
		if m.Selection > 0 {
			m.Selection--
		}
		return Outcome{Replace: m}
	}
	return Outcome{}
}

// ---- Announcement ----

type AnnouncementModal struct {
	Title   string
	Body    string
	Scroll  int
}

func (m AnnouncementModal) CloseKeys() []string { return []string{"esc", "q", "enter"} }
func (m AnnouncementModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "q", "enter":
		return Outcome{Close: true}
	}
	return Outcome{}
}

// ---- Updates ----

type UpdateEntry struct {
	Name       string
	OldVersion string
	NewVersion string
	// Advisory names the open security issue covering this package, when
	// the security tracker lists one.
	Advisory string
}

type UpdatesModal struct {
	Entries   []UpdateEntry
	Scroll    int
	Selection int
}

func (m UpdatesModal) CloseKeys() []string { return []string{"esc", "q"} }
func (m UpdatesModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "q":
		return Outcome{Close: true}
	case "down", "j":
		if m.Selection < len(m.Entries)-1 {
			m.Selection++
		}
		return Outcome{Replace: m}
	case "up", "k":
		if m.Selection > 0 {
			m.Selection--
		}
		return Outcome{Replace: m}
	}
	return Outcome{}
}

// ---- System Update ----

type SystemUpdateModal struct {
	RefreshMirrors bool
	UpgradeSystem  bool
	UpgradeAUR     bool
	CleanCache     bool
	Cursor         int
	Country        string
	MirrorCount    int
}

func (m SystemUpdateModal) CloseKeys() []string { return []string{"esc"} }
func (m SystemUpdateModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc":
		return Outcome{Close: true}
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return Outcome{Replace: m}
	case "down", "j":
		if m.Cursor < 3 {
			m.Cursor++
		}
		return Outcome{Replace: m}
	case " ", "space":
		switch m.Cursor {
		case 0:
			m.RefreshMirrors = !m.RefreshMirrors
		case 1:
			m.UpgradeSystem = !m.UpgradeSystem
		case 2:
			m.UpgradeAUR = !m.UpgradeAUR
		case 3:
			m.CleanCache = !m.CleanCache
		}
		return Outcome{Replace: m}
	case "enter":
		if app.BeginSystemUpdate(m) {
			return Outcome{} // password prompt replaced us; leave it up
		}
		return Outcome{Close: true}
	}
	return Outcome{}
}

// ---- Optional Deps ----

type OptionalDepRow struct {
	Name        string
	Description string
	Selected    bool
}

type OptionalDepsModal struct {
	Rows     []OptionalDepRow
	Selected int
}

func (m OptionalDepsModal) CloseKeys() []string { return []string{"esc", "enter"} }
func (m OptionalDepsModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc":
		return Outcome{Close: true}
	case "enter":
		app.ApplyOptionalDeps(m.Rows)
		return Outcome{Close: true}
	case "down", "j":
		if m.Selected < len(m.Rows)-1 {
			m.Selected++
		}
		return Outcome{Replace: m}
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
		return Outcome{Replace: m}
	case " ", "space":
		if m.Selected < len(m.Rows) {
			m.Rows[m.Selected].Selected = !m.Rows[m.Selected].Selected
		}
		return Outcome{Replace: m}
	}
	return Outcome{}
}

// ---- Scan Config ----

type ScanToolRow struct {
	Name    string
	Enabled bool
}

type ScanConfigModal struct {
	Rows   []ScanToolRow
	Cursor int
}

func (m ScanConfigModal) CloseKeys() []string { return []string{"esc", "enter"} }
func (m ScanConfigModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc":
		return Outcome{Close: true}
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
		return Outcome{Replace: m}
	case "down", "j":
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
		}
		return Outcome{Replace: m}
	case " ", "space":
		if m.Cursor < len(m.Rows) {
			m.Rows[m.Cursor].Enabled = !m.Rows[m.Cursor].Enabled
		}
		return Outcome{Replace: m}
	case "v":
		return Outcome{Replace: VirusTotalSetupModal{}}
	case "enter":
		tools := map[string]bool{}
		for _, row := range m.Rows {
			tools[row.Name] = row.Enabled
		}
		if app.BeginScan(tools) {
			return Outcome{}
		}
		return Outcome{Close: true}
	}
	return Outcome{}
}

// ---- Password Prompt ----

type PasswordPurpose int

const (
	PasswordForInstall PasswordPurpose = iota
	PasswordForRemove
	PasswordForUpdate
	PasswordForScan
)

type PasswordPromptModal struct {
	Purpose PasswordPurpose
	Items   []string
	Input   string
	Cursor  int
	Error   string
}

func (m PasswordPromptModal) CloseKeys() []string { return []string{"esc"} }
func (m PasswordPromptModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc":
		app.CancelPendingExecutorRequest()
		return Outcome{Close: true}
	case "enter":
		app.SubmitPassword(m)
		return Outcome{Replace: m}
	case "backspace":
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
		}
		return Outcome{Replace: m}
	default:
		if len(msg.Runes) > 0 {
			m.Input += string(msg.Runes)
			return Outcome{Replace: m}
		}
	}
	return Outcome{}
}

// ---- GNOME Terminal Prompt ----

type GnomeTerminalPromptModal struct{}

func (m GnomeTerminalPromptModal) CloseKeys() []string { return []string{"esc", "enter"} }
func (m GnomeTerminalPromptModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "enter":
		return Outcome{Close: true}
	}
	return Outcome{}
}

// ---- Import Help ----

type ImportHelpModal struct{}

func (m ImportHelpModal) CloseKeys() []string { return []string{"esc", "q"} }
func (m ImportHelpModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "q":
		return Outcome{Close: true}
	}
	return Outcome{}
}

// ---- VirusTotal Setup ----

type VirusTotalSetupModal struct {
	Input  string
	Cursor int
}

func (m VirusTotalSetupModal) CloseKeys() []string { return []string{"esc", "enter"} }
func (m VirusTotalSetupModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc":
		return Outcome{Close: true}
	case "enter":
		app.SaveVirusTotalKey(m.Input)
		return Outcome{Close: true}
	case "backspace":
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
		}
		return Outcome{Replace: m}
	default:
		if len(msg.Runes) > 0 {
			m.Input += string(msg.Runes)
			return Outcome{Replace: m}
		}
	}
	return Outcome{}
}

// ---- Loading ----

type LoadingModal struct{ Message string }

func (m LoadingModal) CloseKeys() []string                        { return nil }
func (m LoadingModal) Handle(app *AppState, msg tea.KeyMsg) Outcome { return Outcome{} }

// ---- Preflight ----

type PreflightAction int

const (
	ActionInstall PreflightAction = iota
	ActionRemove
)

type PreflightTab int

const (
	TabSummary PreflightTab = iota
	TabDeps
	TabFiles
	TabServices
	TabSandbox
)

type CascadeMode int

const (
	CascadeNone CascadeMode = iota
	CascadeBasic
	CascadeWithConfigs
)

type PreflightSummaryData struct {
	TotalPackages int
	AURCount      int
	TotalBytes    int64
	Risk          string // "Low" | "Medium" | "High"
	Notes         []string
}

type PreflightHeaderChips struct {
	Chips []string
}

type PreflightModal struct {
	Items  []model.PackageItem
	Action PreflightAction

	SelectedTab PreflightTab

	Summary      PreflightSummaryData
	SummaryScroll int
	HeaderChips  PreflightHeaderChips

	Deps           []DependencyRow
	DepsSelection  int
	DepsExpanded   map[string]bool
	DepsError      string

	Files          []FileRow
	FilesSelection int
	FilesExpanded  map[string]bool
	FilesError     string

	Services          []ServiceRow
	ServicesSelection int
	ServicesLoaded    bool
	ServicesError     string

	Sandbox           []SandboxRow
	SandboxSelection  int
	SandboxExpanded   map[string]bool
	SandboxLoaded     bool
	SandboxError      string

	SelectedOptDeps map[string]bool
	Cascade         CascadeMode
	ReverseDeps     *ReverseDependencyReportView
}

// DependencyRow/FileRow/ServiceRow/SandboxRow/ReverseDependencyReportView are
// thin render-friendly views over internal/model records, kept in this
// package so modal state has no import-cycle back into the resolver package.
type DependencyRow struct {
	Name       string
	Requirement string
	StatusText string
	Source     string
	RequiredBy []string
	Children   []string
	Optional   bool
	Note       string
	IsCore     bool
	IsSystem   bool
}

type FileRow struct {
	Package string
	Summary string
	Changes []string
}

type ServiceRow struct {
	Unit         string
	Providers    []string
	NeedsRestart bool
	Decision     string
}

type SandboxRow struct {
	Name      string
	Class     string
	Installed bool
}

type ReverseDependencyReportView struct {
	Lines []string
}

// ItemNames flattens the modal's item set to names, the shape queue
// persistence and the executor request want.
func (m PreflightModal) ItemNames() []string {
	names := make([]string, len(m.Items))
	for i, it := range m.Items {
		names[i] = it.Name
	}
	return names
}

func (m PreflightModal) CloseKeys() []string { return []string{"esc"} }
func (m PreflightModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc":
		app.CancelPreflight()
		return Outcome{Close: true}
	case "left", "shift+tab":
		m.SelectedTab = prevTab(m.SelectedTab)
		app.OnPreflightTabChanged(&m)
		return Outcome{Replace: m}
	case "right", "tab":
		m.SelectedTab = nextTab(m.SelectedTab)
		app.OnPreflightTabChanged(&m)
		return Outcome{Replace: m}
	case "up", "k":
		m.MoveSelection(-1)
		return Outcome{Replace: m}
	case "down", "j":
		m.MoveSelection(1)
		return Outcome{Replace: m}
	case " ", "space":
		m.toggleAtSelection()
		return Outcome{Replace: m}
	case "c":
		if m.Action == ActionRemove {
			m.Cascade = nextCascade(m.Cascade)
			return Outcome{Replace: m}
		}
	case "o":
		if m.Action == ActionInstall && m.SelectedTab == TabDeps {
			if app.OpenOptionalDeps(&m) {
				return Outcome{} // chooser stacked over us; don't overwrite it
			}
			return Outcome{Replace: m}
		}
	case "enter":
		staged, prompted := app.ConfirmPreflight(&m)
		if prompted {
			return Outcome{} // PasswordPrompt stacked over us
		}
		if staged {
			return Outcome{Close: true}
		}
		return Outcome{Replace: m} // blocked removal: stay open
	}
	return Outcome{}
}

// MoveSelection moves the active tab's cursor (or the summary scroll) by
// delta, clamping to the tab's row count. Exported because mouse-wheel
// routing in the event loop drives it directly.
func (m *PreflightModal) MoveSelection(delta int) {
	clamp := func(sel *int, length int) {
		*sel += delta
		if *sel < 0 {
			*sel = 0
		}
		if *sel >= length && length > 0 {
			*sel = length - 1
		}
	}
	switch m.SelectedTab {
	case TabSummary:
		m.SummaryScroll += delta
		if m.SummaryScroll < 0 {
			m.SummaryScroll = 0
		}
	case TabDeps:
		clamp(&m.DepsSelection, len(m.Deps))
	case TabFiles:
		clamp(&m.FilesSelection, len(m.Files))
	case TabServices:
		clamp(&m.ServicesSelection, len(m.Services))
	case TabSandbox:
		clamp(&m.SandboxSelection, len(m.Sandbox))
	}
}

// toggleAtSelection expands/collapses the selected row, or on the Services
// tab flips the user's restart decision away from (or back to) the
// recommendation.
func (m *PreflightModal) toggleAtSelection() {
	switch m.SelectedTab {
	case TabDeps:
		if m.DepsSelection < len(m.Deps) {
			toggleSet(&m.DepsExpanded, m.Deps[m.DepsSelection].Name)
		}
	case TabFiles:
		if m.FilesSelection < len(m.Files) {
			toggleSet(&m.FilesExpanded, m.Files[m.FilesSelection].Package)
		}
	case TabServices:
		if m.ServicesSelection < len(m.Services) {
			row := &m.Services[m.ServicesSelection]
			if row.Decision == "restart now" {
				row.Decision = "defer restart"
			} else {
				row.Decision = "restart now"
			}
		}
	case TabSandbox:
		if m.SandboxSelection < len(m.Sandbox) {
			toggleSet(&m.SandboxExpanded, m.Sandbox[m.SandboxSelection].Name)
		}
	}
}

func toggleSet(set *map[string]bool, key string) {
	if *set == nil {
		*set = map[string]bool{}
	}
	(*set)[key] = !(*set)[key]
}

func nextCascade(c CascadeMode) CascadeMode {
	switch c {
	case CascadeNone:
		return CascadeBasic
	case CascadeBasic:
		return CascadeWithConfigs
	default:
		return CascadeNone
	}
}

func prevTab(t PreflightTab) PreflightTab {
	if t == TabSummary {
		return TabSandbox
	}
	return t - 1
}

func nextTab(t PreflightTab) PreflightTab {
	if t == TabSandbox {
		return TabSummary
	}
	return t + 1
}

// ---- Preflight Exec ----

type PreflightExecModal struct {
	LogLines []string
	Running  bool
	Success  bool
}

func (m PreflightExecModal) CloseKeys() []string { return nil }
func (m PreflightExecModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	return Outcome{}
}

// ---- Post Summary ----

type PostSummaryModal struct {
	Installed []string
	Removed   []string
	Failed    []string
}

func (m PostSummaryModal) CloseKeys() []string { return []string{"esc", "enter", "q"} }
func (m PostSummaryModal) Handle(app *AppState, msg tea.KeyMsg) Outcome {
	switch msg.String() {
	case "esc", "enter", "q":
		app.FinishPostSummary()
		return Outcome{Close: true}
	}
	return Outcome{}
}
