package styles

import "github.com/charmbracelet/lipgloss"

// Centralized Lip Gloss styles for the staticcms TUI.

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5fd7ff")).
			MarginBottom(1).
			PaddingLeft(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginBottom(1).
			PaddingLeft(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff005f")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ff5f")).
			Bold(true)

	NormalTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			MarginBottom(1)

	FaintStyle = lipgloss.NewStyle().
			Faint(true)

	HelpStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#a8a8a8")).
			MarginTop(1).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5fd7ff"))

	// StatusBadgeStyle marks repositories and rows that need attention,
	// for example a workspace with unpushed commits.
	StatusBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#ffaf00")).
				Bold(true)

	ReadOnlyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff8787"))
)
