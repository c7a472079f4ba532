package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pacsea-project/pacsea/internal/appstate"
	"github.com/pacsea-project/pacsea/internal/fetch"
	"github.com/pacsea-project/pacsea/internal/model"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n\n")

	if m.app.Modal != nil {
		b.WriteString(m.renderModal())
	} else {
		b.WriteString(m.renderPanes())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderStatusLine() string {
	parts := []string{m.styles.Subtle.Render("pacsea " + m.version)}
	if m.haveStatus {
		style := m.styles.Success
		switch m.archStatus.Severity {
		case fetch.StatusDegraded:
			style = m.styles.Warning
		case fetch.StatusIncident:
			style = m.styles.Error
		}
		parts = append(parts, style.Render(m.archStatus.Text))
	}
	if m.app.Toast != "" {
		parts = append(parts, m.styles.Toast.Render(m.app.Toast))
	}
	return strings.Join(parts, "  ")
}

// renderPanes draws the four-pane main screen and deposits hit rectangles
// for mouse routing. Rectangle positions track the fixed layout: banner (8
// rows) + status (2), search row, then the three lists side by side.
func (m Model) renderPanes() string {
	search := m.renderSearchPane()
	results := m.renderResultsPane()
	recent := m.renderListPane("Recent", m.app.Recent.Entries(), appstate.FocusRecent)
	install := m.renderQueuePane("Install", m.app.InstallQueue, appstate.FocusInstall)
	remove := m.renderQueuePane("Remove", m.app.RemoveQueue, appstate.FocusRemove)

	m.app.HitRects["search"] = appstate.Rect{X: 0, Y: 10, W: m.width, H: 3}
	third := m.width / 3
	m.app.HitRects["recent"] = appstate.Rect{X: 0, Y: 13, W: third, H: 12}
	m.app.HitRects["install"] = appstate.Rect{X: third, Y: 13, W: third, H: 12}
	m.app.HitRects["remove"] = appstate.Rect{X: 2 * third, Y: 13, W: third, H: 12}

	side := lipgloss.JoinHorizontal(lipgloss.Top, recent, install, remove)
	return lipgloss.JoinVertical(lipgloss.Left, search, results, side)
}

func (m Model) renderSearchPane() string {
	pane := m.paneStyle(appstate.FocusSearch)
	cursor := " "
	input := m.app.Input
	if m.app.Focus == appstate.FocusSearch {
		cursor = "█"
	}
	label := m.styles.PaneTitle.Render("Search")
	if m.app.InstalledOnly {
		label += m.styles.Chip.Render(" installed only ")
	}
	return pane.Render(label + "  " + m.styles.Normal.Render(input) + cursor)
}

func (m Model) renderResultsPane() string {
	pane := m.paneStyle(appstate.FocusSearch)
	if len(m.app.Results) == 0 {
		return pane.Render(m.styles.Subtle.Render("No results"))
	}

	visible := 10
	start := 0
	if m.app.Selection >= visible {
		start = m.app.Selection - visible + 1
	}
	var rows []string
	for i := start; i < len(m.app.Results) && i < start+visible; i++ {
		rows = append(rows, m.renderResultRow(i))
	}
	if m.app.Selection < len(m.app.Results) {
		selected := m.app.Results[m.app.Selection]
		desc := selected.Description
		if d, ok := m.details[selected.Name]; ok && d.Description != "" {
			desc = d.Description
		}
		if desc != "" {
			rows = append(rows, m.styles.Subtle.Render(truncate(desc, 100)))
		}
		if comments := m.comments[selected.Name]; len(comments) > 0 {
			latest := comments[0]
			rows = append(rows, m.styles.Subtle.Render(
				fmt.Sprintf("%d AUR comment(s), latest by %s: %s", len(comments), latest.Author, truncate(latest.Body, 60))))
		}
	}
	return pane.Render(strings.Join(rows, "\n"))
}

func (m Model) renderResultRow(i int) string {
	it := m.app.Results[i]
	tag := it.Source.Repo
	if it.Source.IsAUR {
		tag = "aur"
	}
	line := fmt.Sprintf("%-30s %-12s %s", truncate(it.Name, 30), it.Version, m.styles.Subtle.Render(tag))
	if it.OutOfDate != 0 {
		line += " " + m.styles.Warning.Render("out-of-date")
	}
	if it.Orphaned {
		line += " " + m.styles.Warning.Render("orphan")
	}
	if inst, rem := m.app.IsInQueue(it.Name); inst {
		line += " " + m.styles.Success.Render("+")
	} else if rem {
		line += " " + m.styles.Error.Render("-")
	}
	if i == m.app.Selection {
		return m.styles.Selected.Render(line)
	}
	return m.styles.Normal.Render(line)
}

func (m Model) renderListPane(title string, entries []string, focus appstate.Focus) string {
	pane := m.paneStyle(focus)
	var rows []string
	rows = append(rows, m.styles.PaneTitle.Render(title))
	for i, e := range entries {
		line := truncate(e, 26)
		if m.app.Focus == focus && i == m.app.Selection {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	if len(entries) == 0 {
		rows = append(rows, m.styles.Subtle.Render("(empty)"))
	}
	return pane.Render(strings.Join(rows, "\n"))
}

func (m Model) renderQueuePane(title string, queue []model.PackageItem, focus appstate.Focus) string {
	names := make([]string, len(queue))
	for i, it := range queue {
		names[i] = it.Name
	}
	return m.renderListPane(fmt.Sprintf("%s (%d)", title, len(queue)), names, focus)
}

func (m Model) paneStyle(focus appstate.Focus) lipgloss.Style {
	if m.app.Focus == focus {
		return m.styles.FocusPane
	}
	return m.styles.BlurPane
}

// renderFooter draws the key help plus two clickable action chips, whose
// rectangles are deposited for the mouse router.
func (m Model) renderFooter() string {
	installChip := m.styles.Chip.Render(" Preflight install ")
	removeChip := m.styles.Chip.Render(" Preflight remove ")
	footerY := m.height - 2
	m.app.HitRects["preflight-install"] = appstate.Rect{X: 0, Y: footerY, W: lipgloss.Width(installChip), H: 1}
	m.app.HitRects["preflight-remove"] = appstate.Rect{X: lipgloss.Width(installChip) + 1, Y: footerY, W: lipgloss.Width(removeChip), H: 1}

	help := "tab focus · enter add · ctrl+d remove · ctrl+p preflight · ctrl+r remove-preflight · ctrl+u update · ctrl+n news · ctrl+g updates · ctrl+t installed · ctrl+e export · ctrl+c quit"
	return installChip + " " + removeChip + "\n" + m.styles.Subtle.Render(help)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}
