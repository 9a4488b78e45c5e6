package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds every style the game screen uses
type Styles struct {
	Header     lipgloss.Style
	Stat       lipgloss.Style
	StatValue  lipgloss.Style
	Selected   lipgloss.Style
	Affordable lipgloss.Style
	Expensive  lipgloss.Style
	Maxed      lipgloss.Style
	Muted      lipgloss.Style
	Status     lipgloss.Style
	Warning    lipgloss.Style
	Footer     lipgloss.Style
}

// DefaultStyles returns the standard colour scheme
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color("#7D56F4")).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Stat: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")),

		StatValue: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true),

		Affordable: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")),

		Expensive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),

		Maxed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Strikethrough(true),

		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Italic(true),

		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Padding(0, 2),

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true).
			Padding(0, 2),

		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 2),
	}
}
