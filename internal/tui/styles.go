package tui

import (
	"github.com/charmbracelet/lipgloss"
)

type AppTheme struct {
	Primary   string
	Secondary string
	Accent    string
	Text      string
	Subtle    string
	Error     string
	Warning   string
	Success   string
	Surface   string
}

func OceanTheme() AppTheme {
	return AppTheme{
		Primary:   "#8ec9ff",
		Secondary: "#3e5876",
		Accent:    "#deedff",
		Text:      "#e1e6e9",
		Subtle:    "#8b949e",
		Error:     "#ff6b6b",
		Warning:   "#f0c674",
		Success:   "#9ece6a",
		Surface:   "#1f2430",
	}
}

type Styles struct {
	Title     lipgloss.Style
	Normal    lipgloss.Style
	Subtle    lipgloss.Style
	Selected  lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
	PaneTitle lipgloss.Style
	FocusPane lipgloss.Style
	BlurPane  lipgloss.Style
	ModalBox  lipgloss.Style
	Chip      lipgloss.Style
	TabActive lipgloss.Style
	TabIdle   lipgloss.Style
	Toast     lipgloss.Style
}

func NewStyles() Styles {
	theme := OceanTheme()
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Primary)).
			Bold(true),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Text)),
		Subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Accent)).
			Background(lipgloss.Color(theme.Secondary)).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Error)).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Warning)),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Success)),
		PaneTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Primary)).
			Bold(true),
		FocusPane: pane.BorderForeground(lipgloss.Color(theme.Primary)),
		BlurPane:  pane.BorderForeground(lipgloss.Color(theme.Secondary)),
		ModalBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color(theme.Primary)).
			Padding(1, 2),
		Chip: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Accent)).
			Background(lipgloss.Color(theme.Secondary)).
			Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Accent)).
			Background(lipgloss.Color(theme.Secondary)).
			Bold(true).
			Padding(0, 1),
		TabIdle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Subtle)).
			Padding(0, 1),
		Toast: lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Warning)).
			Bold(true),
	}
}
