package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/pacsea-project/pacsea/internal/appstate"
)

func (m Model) renderModal() string {
	switch modal := m.app.Modal.(type) {
	case appstate.AlertModal:
		return m.modalBox("Alert", m.styles.Error.Render(modal.Message), "Enter/Esc: close")
	case appstate.HelpModal:
		return m.renderHelp()
	case appstate.NewsModal:
		return m.renderNews(modal)
	case appstate.AnnouncementModal:
		return m.modalBox(modal.Title, modal.Body, "Enter/Esc: close")
	case appstate.UpdatesModal:
		return m.renderUpdates(modal)
	case appstate.SystemUpdateModal:
		return m.renderSystemUpdate(modal)
	case appstate.OptionalDepsModal:
		return m.renderOptionalDeps(modal)
	case appstate.ScanConfigModal:
		return m.renderScanConfig(modal)
	case appstate.PasswordPromptModal:
		return m.renderPasswordPrompt(modal)
	case appstate.GnomeTerminalPromptModal:
		return m.modalBox("gnome-terminal", "gnome-terminal detaches from pacsea; scan output stays in its own window.", "Enter/Esc: continue")
	case appstate.ImportHelpModal:
		return m.modalBox("Import", "Place one package name per line in lists/install_list.txt and restart.", "Esc: close")
	case appstate.VirusTotalSetupModal:
		return m.modalBox("VirusTotal API key", modal.Input+"█", "Enter: save · Esc: cancel")
	case appstate.LoadingModal:
		return m.modalBox("Working", m.spinner.View()+" "+modal.Message, "")
	case appstate.PreflightModal:
		return m.renderPreflight(modal)
	case appstate.PreflightExecModal:
		return m.renderPreflightExec(modal)
	case appstate.PostSummaryModal:
		return m.renderPostSummary(modal)
	default:
		return ""
	}
}

func (m Model) modalBox(title, body, help string) string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n\n")
	b.WriteString(body)
	if help != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Subtle.Render(help))
	}
	return m.styles.ModalBox.Render(b.String())
}

func (m Model) renderHelp() string {
	rows := []string{
		"tab / shift+tab   cycle pane focus",
		"enter             add selected result to the install queue",
		"ctrl+d            add selected result to the remove queue",
		"ctrl+p            open install preflight",
		"ctrl+r            open remove preflight",
		"ctrl+u            system update",
		"ctrl+g            available updates",
		"ctrl+n            Arch news",
		"ctrl+s            security scan",
		"ctrl+t            toggle installed-only results",
		"ctrl+e            export install list",
		"ctrl+c            quit",
		"",
		"Inside preflight: left/right switch tabs, space expands or flips",
		"a restart decision, c cycles cascade mode (removals), o picks",
		"optional dependencies, enter confirms, esc cancels.",
	}
	return m.modalBox("Help", strings.Join(rows, "\n"), "Esc: close")
}

func (m Model) renderNews(modal appstate.NewsModal) string {
	if len(modal.Items) == 0 {
		return m.modalBox("Arch News", m.styles.Subtle.Render("No news items."), "Esc: close")
	}
	var rows []string
	for i, item := range modal.Items {
		date := time.Unix(item.Date, 0).Format("2006-01-02")
		line := fmt.Sprintf("%s  %s", date, item.Title)
		if i == modal.Selection {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	if modal.Selection < len(modal.Items) {
		rows = append(rows, "", m.styles.Subtle.Render(truncate(modal.Items[modal.Selection].Content, 400)))
	}
	return m.modalBox("Arch News", strings.Join(rows, "\n"), "↑/↓ select · Esc: close")
}

func (m Model) renderUpdates(modal appstate.UpdatesModal) string {
	if len(modal.Entries) == 0 {
		return m.modalBox("Available Updates", m.styles.Success.Render("System is up to date."), "Esc: close")
	}
	var rows []string
	for i, e := range modal.Entries {
		line := fmt.Sprintf("%-30s %s -> %s", truncate(e.Name, 30), e.OldVersion, e.NewVersion)
		if e.Advisory != "" {
			line += " " + m.styles.Warning.Render(e.Advisory)
		}
		if i == modal.Selection {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	return m.modalBox(fmt.Sprintf("Available Updates (%d)", len(modal.Entries)), strings.Join(rows, "\n"), "Esc: close")
}

func (m Model) renderSystemUpdate(modal appstate.SystemUpdateModal) string {
	boxes := []struct {
		label string
		on    bool
	}{
		{fmt.Sprintf("Refresh mirrors (reflector, %s, %d mirrors)", modal.Country, modal.MirrorCount), modal.RefreshMirrors},
		{"Upgrade system (pacman -Syu)", modal.UpgradeSystem},
		{"Upgrade AUR packages", modal.UpgradeAUR},
		{"Clean package cache (pacman -Sc)", modal.CleanCache},
	}
	var rows []string
	for i, box := range boxes {
		mark := "[ ]"
		if box.on {
			mark = "[x]"
		}
		line := mark + " " + box.label
		if i == modal.Cursor {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	return m.modalBox("System Update", strings.Join(rows, "\n"), "space toggle · enter run · esc cancel")
}

func (m Model) renderOptionalDeps(modal appstate.OptionalDepsModal) string {
	var rows []string
	for i, row := range modal.Rows {
		mark := "[ ]"
		if row.Selected {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %-25s %s", mark, truncate(row.Name, 25), m.styles.Subtle.Render(row.Description))
		if i == modal.Selected {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	return m.modalBox("Optional Dependencies", strings.Join(rows, "\n"), "space toggle · enter apply · esc cancel")
}

func (m Model) renderScanConfig(modal appstate.ScanConfigModal) string {
	var rows []string
	for i, row := range modal.Rows {
		mark := "[ ]"
		if row.Enabled {
			mark = "[x]"
		}
		line := mark + " " + row.Name
		if i == modal.Cursor {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	return m.modalBox("Security Scan", strings.Join(rows, "\n"), "space toggle · v virustotal key · enter run · esc cancel")
}

func (m Model) renderPasswordPrompt(modal appstate.PasswordPromptModal) string {
	var b strings.Builder
	b.WriteString(m.styles.Normal.Render("This transaction requires sudo privileges."))
	b.WriteString("\n\n")
	b.WriteString(strings.Repeat("*", len(modal.Input)) + "█")
	if m.validatingPassword {
		b.WriteString("\n" + m.spinner.View() + " " + m.styles.Subtle.Render("Validating..."))
	} else if modal.Error != "" {
		b.WriteString("\n" + m.styles.Error.Render("✗ "+modal.Error))
	}
	return m.modalBox("Sudo Authentication", b.String(), "Enter: continue · Esc: cancel")
}

func (m Model) renderPreflightExec(modal appstate.PreflightExecModal) string {
	body := m.logView.View()
	title := "Running transaction"
	if !modal.Running {
		if modal.Success {
			title = "Transaction complete"
		} else {
			title = "Transaction failed"
		}
	}
	return m.modalBox(title, body, "")
}

func (m Model) renderPostSummary(modal appstate.PostSummaryModal) string {
	var rows []string
	if len(modal.Installed) > 0 {
		rows = append(rows, m.styles.Success.Render("Installed: "+strings.Join(modal.Installed, ", ")))
	}
	if len(modal.Removed) > 0 {
		rows = append(rows, m.styles.Success.Render("Removed: "+strings.Join(modal.Removed, ", ")))
	}
	if len(modal.Failed) > 0 {
		rows = append(rows, m.styles.Error.Render("Failed: "+strings.Join(modal.Failed, ", ")))
	}
	if len(rows) == 0 {
		rows = append(rows, m.styles.Subtle.Render("Nothing changed."))
	}
	return m.modalBox("Transaction Summary", strings.Join(rows, "\n"), "Enter/Esc: close")
}
