// Package theme provides the Lip Gloss palette and reusable styles for
// the uaView TUI. It is a leaf package with no internal imports to
// avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Base palette.
var (
	ColorAccent  = lipgloss.Color("#06b6d4")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorText    = lipgloss.Color("#d1d5db")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// Node class colors in the tree.
var (
	ColorObject   = lipgloss.Color("#3b82f6")
	ColorVariable = lipgloss.Color("#22c55e")
	ColorMethod   = lipgloss.Color("#a855f7")
)

var (
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed)

	FocusedPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorAccent)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#111827")).
			Background(ColorAccent)

	SubscribedStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(lipgloss.Color("#1f2937")).
			Padding(0, 1)
)

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
