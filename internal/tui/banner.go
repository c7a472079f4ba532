package tui

import "github.com/charmbracelet/lipgloss"

func (m Model) renderBanner() string {
	logo := `
██████╗  █████╗  ██████╗███████╗███████╗ █████╗
██╔══██╗██╔══██╗██╔════╝██╔════╝██╔════╝██╔══██╗
██████╔╝███████║██║     ███████╗█████╗  ███████║
██╔═══╝ ██╔══██║██║     ╚════██║██╔══╝  ██╔══██║
██║     ██║  ██║╚██████╗███████║███████╗██║  ██║
╚═╝     ╚═╝  ╚═╝ ╚═════╝╚══════╝╚══════╝╚═╝  ╚═╝`

	theme := OceanTheme()
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Primary)).
		Bold(true).
		Align(lipgloss.Center)

	return style.Render(logo)
}
