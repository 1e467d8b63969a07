package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for status rendering
type Styles struct {
	Title lipgloss.Style
	Phase lipgloss.Style
	Label lipgloss.Style
	Value lipgloss.Style
	Muted lipgloss.Style

	Good lipgloss.Style
	Warn lipgloss.Style
	Bad  lipgloss.Style

	Section lipgloss.Style

	Footer    lipgloss.Style
	FooterKey lipgloss.Style
}

// DefaultStyles returns the colored styles used on a terminal
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Phase: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Label: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Value: lipgloss.NewStyle().Bold(true),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		Good: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warn: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Bad:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Section: lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Bold(true).MarginTop(1),

		Footer:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// PlainStyles renders without any escape codes, for pipes and files
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title: plain, Phase: plain, Label: plain, Value: plain, Muted: plain,
		Good: plain, Warn: plain, Bad: plain,
		Section: plain.MarginTop(1),
		Footer:  plain.MarginTop(1), FooterKey: plain,
	}
}

// Icons used in status output
const (
	IconHealthy   = "✓"
	IconUnhealthy = "✗"
	IconPending   = "●"
	IconIdle      = "○"
)
