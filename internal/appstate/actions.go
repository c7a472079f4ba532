package appstate

import (
	"fmt"

	"github.com/pacsea-project/pacsea/internal/hostinfo"
	"github.com/pacsea-project/pacsea/internal/model"
)

// The methods in this file only record intent on AppState (set pending
// fields, request flags); the event loop is what actually spawns resolver
// workers or hands a request to the executor when it reconciles. Keeping
// the spawn mechanism out of appstate avoids a state->executor import
// cycle: state records, the loop acts.

// BeginSystemUpdate stages an Update executor request from the modal's
// checkbox selections. Reports whether a password prompt was opened in
// place of closing the modal.
func (a *AppState) BeginSystemUpdate(m SystemUpdateModal) (prompted bool) {
	var cmds []string
	if m.RefreshMirrors {
		cmds = append(cmds, fmt.Sprintf("reflector --country %s --latest %d --sort rate --save /etc/pacman.d/mirrorlist", m.Country, m.MirrorCount))
	}
	if m.UpgradeSystem {
		cmds = append(cmds, "pacman -Syu --noconfirm")
	}
	if m.UpgradeAUR {
		if helper := hostinfo.AURHelper(); helper != "" {
			cmds = append(cmds, helper+" -Syu --noconfirm")
		}
	}
	if m.CleanCache {
		cmds = append(cmds, "pacman -Sc --noconfirm")
	}
	a.PendingExecutorRequest = &ExecutorRequestSnapshot{Kind: ExecUpdate, Items: cmds}
	// PendingInstallNames stays empty: completing a system update must not
	// clear the user's staged queues.
	return a.requestPasswordIfNeeded(PasswordForUpdate, cmds)
}

// ApplyOptionalDeps records the user's opt-dep selections on the Preflight
// modal the chooser was stacked over; closing the chooser then unwinds to
// the updated preflight.
func (a *AppState) ApplyOptionalDeps(rows []OptionalDepRow) {
	pf, ok := a.PreviousModal.(PreflightModal)
	if !ok {
		return
	}
	if pf.SelectedOptDeps == nil {
		pf.SelectedOptDeps = map[string]bool{}
	}
	for _, r := range rows {
		pf.SelectedOptDeps[r.Name] = r.Selected
	}
	a.PreviousModal = pf
}

// BeginScan stages a Scan executor request for the currently queued items.
func (a *AppState) BeginScan(tools map[string]bool) (prompted bool) {
	var selected []string
	for name, on := range tools {
		if on {
			selected = append(selected, name)
		}
	}
	names := a.queuedNames()
	a.PendingExecutorRequest = &ExecutorRequestSnapshot{Kind: ExecScan, Items: names, Tools: selected}
	return a.requestPasswordIfNeeded(PasswordForScan, names)
}

// CancelPendingExecutorRequest clears a staged request without running it,
// per the password-prompt cancel path.
func (a *AppState) CancelPendingExecutorRequest() {
	a.PendingExecutorRequest = nil
	a.SudoPassword = ""
}

// SubmitPassword attaches the entered password to the pending request. The
// event loop validates it against sudo before actually dispatching.
func (a *AppState) SubmitPassword(m PasswordPromptModal) {
	a.SudoPassword = m.Input
}

// CancelPreflight closes the Preflight modal and flips the cancellation
// flag; in-flight resolver results still arrive and still update cache
// mirrors, but are no longer synced into a (now-closed) modal.
func (a *AppState) CancelPreflight() {
	a.PreflightCancelled.Store(true)
}

// OnPreflightTabChanged is called after the tab cursor moves. If the newly
// selected tab's cache mirror is empty, the tick loop's reconcile step will
// see the stage's InFlight request below and spawn the corresponding
// worker; if data is already cached, the result handler loads it
// synchronously on arrival.
func (a *AppState) OnPreflightTabChanged(m *PreflightModal) {
	switch m.SelectedTab {
	case TabDeps:
		if len(m.Deps) == 0 {
			a.RequestStage(StageDeps, m.Items, ScopePreflight, m.Action)
		}
	case TabFiles:
		if len(m.Files) == 0 {
			a.RequestStage(StageFiles, m.Items, ScopePreflight, m.Action)
		}
	case TabServices:
		if !m.ServicesLoaded {
			a.RequestStage(StageServices, m.Items, ScopePreflight, m.Action)
		}
	case TabSandbox:
		if !m.SandboxLoaded {
			a.RequestStage(StageSandbox, m.Items, ScopePreflight, m.Action)
		}
	}
}

// RequestStage snapshots the items a worker should be launched with, unless
// one is already in flight for this stage (global or preflight-scoped) —
// the "either flag blocks respawn" gating. The sandbox stage is skipped
// entirely when no AUR item is present.
func (a *AppState) RequestStage(s Stage, items []model.PackageItem, scope InFlightScope, action PreflightAction) {
	if existing := a.InFlight[s]; existing != nil {
		return
	}
	if s == StageSandbox && !anyAUR(items) {
		return
	}
	snapshot := make([]model.PackageItem, len(items))
	copy(snapshot, items)
	a.InFlight[s] = &InFlight{Items: snapshot, Scope: scope, Action: action}
}

func anyAUR(items []model.PackageItem) bool {
	for _, it := range items {
		if it.Source.IsAUR {
			return true
		}
	}
	return false
}

// OpenOptionalDeps stacks the optional-deps chooser over the preflight,
// seeded from the dependency rows the resolver classified as optional.
// Reports whether the chooser opened (there was at least one optional dep).
func (a *AppState) OpenOptionalDeps(m *PreflightModal) bool {
	var rows []OptionalDepRow
	for _, d := range m.Deps {
		if d.Optional {
			rows = append(rows, OptionalDepRow{
				Name:        d.Name,
				Description: d.Note,
				Selected:    m.SelectedOptDeps[d.Name],
			})
		}
	}
	if len(rows) == 0 {
		return false
	}
	a.Modal = OptionalDepsModal{Rows: rows}
	a.PreviousModal = *m
	return true
}

// ConfirmPreflight translates the open Preflight modal into a pending
// executor request (Install or Remove). A removal with live dependents is
// blocked unless a cascade mode overrides it. Reports whether the request
// was staged, and whether a password prompt replaced the modal (in which
// case the caller must not also close it).
func (a *AppState) ConfirmPreflight(m *PreflightModal) (staged, prompted bool) {
	if m.Action == ActionRemove && m.ReverseDeps != nil && len(m.ReverseDeps.Lines) > 0 && m.Cascade == CascadeNone {
		a.SetToastBlocked(len(m.ReverseDeps.Lines))
		return false, false
	}

	names := m.ItemNames()
	switch m.Action {
	case ActionInstall:
		var optDeps []string
		for name, selected := range m.SelectedOptDeps {
			if selected {
				optDeps = append(optDeps, name)
			}
		}
		a.PendingExecutorRequest = &ExecutorRequestSnapshot{Kind: ExecInstall, Items: names, OptDeps: optDeps}
		a.PendingInstallNames = names
		a.PendingServicePlan = servicePlanFrom(m)
		prompted = a.requestPasswordIfNeeded(PasswordForInstall, names)
	case ActionRemove:
		a.PendingExecutorRequest = &ExecutorRequestSnapshot{Kind: ExecRemove, Items: names, Cascade: m.Cascade}
		a.PendingInstallNames = names
		prompted = a.requestPasswordIfNeeded(PasswordForRemove, names)
	}
	return true, prompted
}

// servicePlanFrom captures the user's restart decisions so the
// post-transaction step can act on them.
func servicePlanFrom(m *PreflightModal) []model.ServiceImpact {
	var plan []model.ServiceImpact
	for _, row := range m.Services {
		decision := model.RestartDefer
		if row.Decision == "restart now" {
			decision = model.RestartNow
		}
		plan = append(plan, model.ServiceImpact{
			Unit:              row.Unit,
			ProvidingPackages: row.Providers,
			NeedsRestart:      row.NeedsRestart,
			UserDecision:      decision,
		})
	}
	return plan
}

func (a *AppState) SetToastBlocked(dependentCount int) {
	a.SetToast(blockedRemovalMessage(dependentCount), defaultToastTTL)
}

func blockedRemovalMessage(n int) string {
	if n == 1 {
		return "Removal blocked: 1 package still depends on a target. Use cascade to override."
	}
	return "Removal blocked: packages still depend on a target. Use cascade to override."
}

// SaveVirusTotalKey persists the VirusTotal API key used by the Scan flow.
// Actual disk persistence happens through the cache layer in the tick loop;
// here we only stash it on state for the session.
func (a *AppState) SaveVirusTotalKey(key string) {
	a.virusTotalKey = key
}

// FinishPostSummary clears the transaction's pending bookkeeping. The
// queue clear only happens when the transaction actually named packages:
// a system update carries no names, and wiping the queues on its vacuous
// completion would lose what the user had staged.
func (a *AppState) FinishPostSummary() {
	if len(a.PendingInstallNames) > 0 {
		a.InstallQueue = nil
		a.RemoveQueue = nil
	}
	a.PendingInstallNames = nil
	a.PendingPostSummaryItems = nil
	a.PendingServicePlan = nil
	a.CloseModal()
}

func (a *AppState) queuedNames() []string {
	names := make([]string, 0, len(a.InstallQueue)+len(a.RemoveQueue))
	for _, p := range a.InstallQueue {
		names = append(names, p.Name)
	}
	for _, p := range a.RemoveQueue {
		names = append(names, p.Name)
	}
	return names
}

func (a *AppState) requestPasswordIfNeeded(purpose PasswordPurpose, items []string) bool {
	if a.SudoPassword != "" {
		return false
	}
	a.OpenModal(PasswordPromptModal{Purpose: purpose, Items: items})
	return true
}
