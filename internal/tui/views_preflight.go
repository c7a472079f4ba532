package tui

import (
	"fmt"
	"strings"

	"github.com/pacsea-project/pacsea/internal/appstate"
)

var preflightTabs = []struct {
	tab   appstate.PreflightTab
	label string
}{
	{appstate.TabSummary, "Summary"},
	{appstate.TabDeps, "Deps"},
	{appstate.TabFiles, "Files"},
	{appstate.TabServices, "Services"},
	{appstate.TabSandbox, "Sandbox"},
}

func (m Model) renderPreflight(modal appstate.PreflightModal) string {
	var b strings.Builder

	verb := "Install"
	if modal.Action == appstate.ActionRemove {
		verb = "Remove"
	}
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Preflight — %s %d package(s)", verb, len(modal.Items))))
	b.WriteString("\n")
	for _, chip := range modal.HeaderChips.Chips {
		b.WriteString(m.styles.Chip.Render(chip) + " ")
	}
	b.WriteString("\n\n")

	var tabs []string
	for _, t := range preflightTabs {
		style := m.styles.TabIdle
		if t.tab == modal.SelectedTab {
			style = m.styles.TabActive
		}
		tabs = append(tabs, style.Render(t.label))
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	switch modal.SelectedTab {
	case appstate.TabSummary:
		b.WriteString(m.renderPreflightSummary(modal))
	case appstate.TabDeps:
		b.WriteString(m.renderPreflightDeps(modal))
	case appstate.TabFiles:
		b.WriteString(m.renderPreflightFiles(modal))
	case appstate.TabServices:
		b.WriteString(m.renderPreflightServices(modal))
	case appstate.TabSandbox:
		b.WriteString(m.renderPreflightSandbox(modal))
	}

	b.WriteString("\n\n")
	help := "←/→ tabs · space expand/toggle · enter confirm · esc cancel"
	if modal.Action == appstate.ActionRemove {
		help += " · c cascade: " + cascadeLabel(modal.Cascade)
	}
	b.WriteString(m.styles.Subtle.Render(help))

	return m.styles.ModalBox.Render(b.String())
}

func cascadeLabel(c appstate.CascadeMode) string {
	switch c {
	case appstate.CascadeBasic:
		return "cascade (-Rsc)"
	case appstate.CascadeWithConfigs:
		return "cascade+configs (-Rscn)"
	default:
		return "off (-Rs)"
	}
}

func (m Model) renderPreflightSummary(modal appstate.PreflightModal) string {
	s := modal.Summary
	rows := []string{
		fmt.Sprintf("Packages: %d (%d from AUR)", s.TotalPackages, s.AURCount),
		fmt.Sprintf("Estimated size: %s", formatBytes(s.TotalBytes)),
		"Risk: " + s.Risk,
	}
	for _, note := range s.Notes {
		rows = append(rows, m.styles.Subtle.Render(note))
	}
	if modal.ReverseDeps != nil && len(modal.ReverseDeps.Lines) > 0 {
		rows = append(rows, "", m.styles.Warning.Render("Dependents that would break:"))
		rows = append(rows, modal.ReverseDeps.Lines...)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderPreflightDeps(modal appstate.PreflightModal) string {
	if modal.DepsError != "" {
		return m.styles.Error.Render(modal.DepsError)
	}
	if len(modal.Deps) == 0 {
		return m.spinner.View() + " " + m.styles.Subtle.Render("Resolving dependencies...")
	}
	var rows []string
	for i, d := range modal.Deps {
		marker := "  "
		if d.IsSystem {
			marker = m.styles.Warning.Render("! ")
		}
		line := fmt.Sprintf("%s%-28s %-10s %-8s %s", marker, truncate(d.Name, 28), d.Requirement, d.Source, d.StatusText)
		if i == modal.DepsSelection {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
		if modal.DepsExpanded[d.Name] {
			if len(d.RequiredBy) > 0 {
				rows = append(rows, m.styles.Subtle.Render("    required by: "+strings.Join(d.RequiredBy, ", ")))
			}
			if len(d.Children) > 0 {
				rows = append(rows, m.styles.Subtle.Render("    depends on: "+strings.Join(d.Children, ", ")))
			}
			if d.Note != "" {
				rows = append(rows, m.styles.Subtle.Render("    "+d.Note))
			}
		}
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderPreflightFiles(modal appstate.PreflightModal) string {
	if modal.FilesError != "" {
		return m.styles.Error.Render(modal.FilesError)
	}
	if len(modal.Files) == 0 {
		return m.spinner.View() + " " + m.styles.Subtle.Render("Resolving file changes...")
	}
	var rows []string
	for i, f := range modal.Files {
		line := fmt.Sprintf("%-25s %s", truncate(f.Package, 25), f.Summary)
		if i == modal.FilesSelection {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
		if modal.FilesExpanded[f.Package] {
			visible := f.Changes
			if len(visible) > 15 {
				rows = append(rows, m.styles.Subtle.Render(fmt.Sprintf("    (showing 15 of %d)", len(visible))))
				visible = visible[:15]
			}
			for _, c := range visible {
				rows = append(rows, m.styles.Subtle.Render("    "+c))
			}
		}
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderPreflightServices(modal appstate.PreflightModal) string {
	if modal.ServicesError != "" {
		return m.styles.Error.Render(modal.ServicesError)
	}
	if !modal.ServicesLoaded {
		return m.spinner.View() + " " + m.styles.Subtle.Render("Inspecting services...")
	}
	if len(modal.Services) == 0 {
		return m.styles.Subtle.Render("No systemd units affected.")
	}
	var rows []string
	for i, s := range modal.Services {
		restart := ""
		if s.NeedsRestart {
			restart = m.styles.Warning.Render(" needs restart → " + s.Decision)
		}
		line := fmt.Sprintf("%-30s %s%s", truncate(s.Unit, 30), strings.Join(s.Providers, ","), restart)
		if i == modal.ServicesSelection {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderPreflightSandbox(modal appstate.PreflightModal) string {
	if modal.SandboxError != "" {
		return m.styles.Error.Render(modal.SandboxError)
	}
	if !modal.SandboxLoaded {
		return m.spinner.View() + " " + m.styles.Subtle.Render("Fetching AUR build metadata...")
	}
	if len(modal.Sandbox) == 0 {
		return m.styles.Subtle.Render("No AUR build-time dependencies.")
	}
	var rows []string
	for i, s := range modal.Sandbox {
		mark := m.styles.Error.Render("✗")
		if s.Installed {
			mark = m.styles.Success.Render("✓")
		}
		line := fmt.Sprintf("%s %-28s %s", mark, truncate(s.Name, 28), m.styles.Subtle.Render(s.Class))
		if i == modal.SandboxSelection {
			line = m.styles.Selected.Render(line)
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/float64(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
