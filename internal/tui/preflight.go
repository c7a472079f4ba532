package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/cache"
	"github.com/pacsea-project/pacsea/internal/executor"
	"github.com/pacsea-project/pacsea/internal/model"
	"github.com/pacsea-project/pacsea/internal/plog"
	"github.com/pacsea-project/pacsea/internal/resolver"
	"github.com/pacsea-project/pacsea/internal/tick"
)

// openPreflight builds the Preflight modal over the matching queue: a fast
// synchronous summary so the modal opens instantly, the dependency and full
// summary workers requested immediately, and for removals the reverse
// dependency report computed up front so the blocked-removal check is in
// place before the user can reach the confirm key.
func (m Model) openPreflight(action appstate.PreflightAction) (tea.Model, tea.Cmd) {
	queue := m.app.InstallQueue
	if action == appstate.ActionRemove {
		queue = m.app.RemoveQueue
	}
	if len(queue) == 0 {
		m.app.SetToast("Queue is empty", 2*time.Second)
		return m, nil
	}

	items := make([]model.PackageItem, len(queue))
	copy(items, queue)

	m.app.PreflightCancelled.Store(false)

	pf := appstate.PreflightModal{
		Items:       items,
		Action:      action,
		Summary:     resolver.FastSummary(action, items),
		HeaderChips: headerChips(action, items),
	}

	if action == appstate.ActionRemove {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		report, err := resolver.ResolveReverseDependencies(ctx, resolver.Exec, queueNames(queue))
		cancel()
		if err == nil {
			pf.ReverseDeps = tick.FormatReverseDependencyReport(report)
		}
	}

	// Cached dependency data for the same item set loads synchronously.
	if deps, ok := m.app.Cache.Deps[cache.Signature(items)]; ok && len(deps) > 0 {
		pf.Deps = depRows(deps)
	} else {
		m.app.RequestStage(appstate.StageDeps, items, appstate.ScopePreflight, action)
	}
	m.app.RequestStage(appstate.StageSummary, items, appstate.ScopePreflight, action)

	m.app.OpenModal(pf)
	return m, nil
}

func depRows(deps []model.DependencyInfo) []appstate.DependencyRow {
	rows := make([]appstate.DependencyRow, 0, len(deps))
	for _, d := range deps {
		rows = append(rows, appstate.DependencyRow{
			Name:        d.Name,
			Requirement: d.Requirement,
			StatusText:  tick.FormatDepStatus(d.Status),
			Source:      tick.FormatSource(d.Source),
			RequiredBy:  d.RequiredBy,
			Children:    d.Children,
			Optional:    d.Optional,
			Note:        d.Note,
			IsCore:      d.IsCore,
			IsSystem:    d.IsSystem,
		})
	}
	return rows
}

func headerChips(action appstate.PreflightAction, items []model.PackageItem) appstate.PreflightHeaderChips {
	verb := "install"
	if action == appstate.ActionRemove {
		verb = "remove"
	}
	chips := []string{verb}
	aur := 0
	for _, it := range items {
		if it.Source.IsAUR {
			aur++
		}
	}
	if aur > 0 {
		chips = append(chips, "AUR packages present")
	}
	return appstate.PreflightHeaderChips{Chips: chips}
}

// maybeStartTransaction is the post-confirm reconciliation step: a staged
// executor request starts once it either needs no password (dry run) or the
// entered password has been validated.
func (m *Model) maybeStartTransaction() tea.Cmd {
	req := m.app.PendingExecutorRequest
	if req == nil || m.execCh != nil {
		return nil
	}
	if req.DryRun {
		return m.startTransaction("")
	}
	if m.app.SudoPassword == "" {
		return nil // PasswordPrompt is open; wait for entry
	}
	if m.validatingPassword {
		return nil
	}
	m.validatingPassword = true
	password := m.app.SudoPassword
	return func() tea.Msg {
		valid, lockout, err := executor.ValidatePassword(password)
		if err != nil {
			plog.Warnf("validating password: %v", err)
		}
		return passwordValidMsg{valid: valid, lockout: lockout, password: password}
	}
}

func (m Model) handlePasswordValidated(msg passwordValidMsg) (tea.Model, tea.Cmd) {
	m.validatingPassword = false

	if msg.lockout {
		// A sudo lockout aborts the pipeline entirely: clear everything the
		// staged request captured, and surface an alert that closes to idle
		// rather than unwinding back into the prompt.
		m.app.PendingExecutorRequest = nil
		m.app.PendingInstallNames = nil
		m.app.PendingServicePlan = nil
		m.app.SudoPassword = ""
		m.app.Modal = appstate.AlertModal{Message: "sudo reports your account is locked out. Try again later."}
		m.app.PreviousModal = nil
		return m, nil
	}
	if !msg.valid {
		// Re-prompt in place, keeping whatever modal the prompt was stacked
		// over so Esc still unwinds there.
		m.app.SudoPassword = ""
		prompt, _ := m.app.Modal.(appstate.PasswordPromptModal)
		prompt.Input = ""
		prompt.Error = "Incorrect password. Please try again."
		m.app.Modal = prompt
		return m, nil
	}

	// Assign before returning m so the fields startTransaction sets
	// (execCh, lastRequest) travel with the returned model.
	cmd := m.startTransaction(msg.password)
	return m, cmd
}

// startTransaction converts the staged snapshot into an executor.Request,
// splits official from AUR names against the index, and begins streaming.
func (m *Model) startTransaction(password string) tea.Cmd {
	snap := m.app.PendingExecutorRequest
	if snap == nil {
		return nil
	}
	m.app.PendingExecutorRequest = nil
	m.app.SudoPassword = ""

	req := executor.Request{
		Password: password,
		DryRun:   snap.DryRun,
		Items:    snap.Items,
		OptDeps:  snap.OptDeps,
		Tools:    snap.Tools,
		Cascade:  snap.Cascade,
	}
	switch snap.Kind {
	case appstate.ExecInstall:
		req.Kind = executor.KindInstall
	case appstate.ExecRemove:
		req.Kind = executor.KindRemove
	case appstate.ExecUpdate:
		req.Kind = executor.KindUpdate
		req.Commands = snap.Items
		req.Items = nil
	case appstate.ExecScan:
		req.Kind = executor.KindScan
	}

	var official, aur []string
	for _, name := range req.Items {
		if _, ok := m.idx.FindPackageByName(name); ok {
			official = append(official, name)
		} else {
			aur = append(aur, name)
		}
	}

	if req.Kind == executor.KindScan {
		return m.runScanInTerminal(req, official, aur)
	}

	m.lastRequest = req
	m.execCh = make(chan executor.Output, 64)
	ctx := context.Background()
	go executor.Run(ctx, req, official, aur, m.execCh)

	m.app.Modal = appstate.PreflightExecModal{Running: true}
	m.app.PreviousModal = nil
	return m.listenExec()
}

// runScanInTerminal hands a Scan plan to an external terminal: scanners are
// interactive and their output belongs in a real shell, not the exec log.
// The gnome-terminal notice is shown once, since that emulator detaches and
// its output cannot be recaptured.
func (m *Model) runScanInTerminal(req executor.Request, official, aur []string) tea.Cmd {
	term, ok := executor.DetectTerminal()
	if !ok {
		m.app.SetToast("No terminal emulator found for the scan", 4*time.Second)
		return nil
	}
	if executor.IsGnomeTerminal(term) && !m.gnomeNoticeShown {
		m.gnomeNoticeShown = true
		m.app.OpenModal(appstate.GnomeTerminalPromptModal{})
	}

	lines := executor.PlanShellLines(req, official, aur)
	for _, line := range lines {
		if err := executor.SpawnInTerminal(term, line); err != nil {
			m.app.SetToast("Scan spawn failed: "+err.Error(), 4*time.Second)
			return nil
		}
	}
	m.app.SetToast("Scan launched in "+term, 4*time.Second)
	return nil
}

func (m Model) listenExec() tea.Cmd {
	ch := m.execCh
	return func() tea.Msg {
		out, ok := <-ch
		if !ok {
			return execDoneMsg{}
		}
		return execOutputMsg(out)
	}
}

func (m Model) handleExecOutput(out executor.Output) (tea.Model, tea.Cmd) {
	pf, _ := m.app.Modal.(appstate.PreflightExecModal)

	switch out.Kind {
	case executor.OutLine:
		pf.LogLines = append(pf.LogLines, out.Text)
		m.app.Modal = pf
		m.syncLogView(pf)
		return m, m.listenExec()
	case executor.OutError:
		pf.LogLines = append(pf.LogLines, "error: "+out.Text)
		m.app.Modal = pf
		m.syncLogView(pf)
		return m, m.listenExec()
	case executor.OutExit:
		pf.Running = false
		pf.Success = out.ExitCode == 0
		if out.Text != "" {
			pf.LogLines = append(pf.LogLines, out.Text)
		}
		m.app.Modal = appstate.LoadingModal{Message: "Summarizing transaction..."}
		return m, tea.Batch(m.listenExec(), m.postSummaryCmd(pf))
	}
	return m, m.listenExec()
}

// syncLogView keeps the exec-log viewport pinned to the newest output.
func (m *Model) syncLogView(pf appstate.PreflightExecModal) {
	m.logView.SetContent(joinLines(pf.LogLines))
	m.logView.GotoBottom()
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// postSummaryCmd applies the user's service restart plan (successful
// transactions only) and produces the PostSummary payload.
func (m Model) postSummaryCmd(exec appstate.PreflightExecModal) tea.Cmd {
	names := m.app.PendingInstallNames
	plan := m.app.PendingServicePlan
	req := m.lastRequest
	success := exec.Success

	return func() tea.Msg {
		if success && !req.DryRun {
			restartPlannedServices(plan, req.Password)
		}

		msg := postSummaryMsg{}
		switch req.Kind {
		case executor.KindInstall:
			if success {
				msg.installed = names
			} else {
				msg.failed = names
			}
		case executor.KindRemove:
			if success {
				msg.removed = names
			} else {
				msg.failed = names
			}
		}
		return msg
	}
}

func restartPlannedServices(plan []model.ServiceImpact, password string) {
	for _, impact := range plan {
		if impact.UserDecision != model.RestartNow {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		out := make(chan executor.Output, 8)
		go func() {
			for range out {
			}
		}()
		if err := executor.RunShellStep(ctx, "systemctl restart "+impact.Unit, password, out); err != nil {
			plog.Warnf("restarting %s: %v", impact.Unit, err)
		}
		close(out)
		cancel()
	}
}
