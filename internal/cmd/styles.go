package cmd

import "github.com/charmbracelet/lipgloss"

// Styles for user-facing progress output on stdout.
var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")) // Green
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")) // Red
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")) // Gray
	boldStyle  = lipgloss.NewStyle().Bold(true)
)
