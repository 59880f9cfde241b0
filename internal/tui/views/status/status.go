// Package status renders the bottom status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/Statkern15/uaView/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

type Model struct {
	Width int

	Connected  bool
	Connection string // selected connection name
	State      string
	SubCount   int
	Diag       string
	Help       string
}

func New() Model {
	return Model{}
}

func (m Model) View() string {
	var conn string
	if m.Connected {
		conn = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● " + m.Connection)
	} else if m.Connection != "" {
		conn = lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render("○ " + m.Connection)
	} else {
		conn = lipgloss.NewStyle().Foreground(theme.ColorDimmed).Render("○ no connection")
	}

	parts := []string{conn, m.State, fmt.Sprintf("%d subscribed", m.SubCount)}
	if m.Diag != "" {
		parts = append(parts, m.Diag)
	}
	left := strings.Join(parts, "  │  ")

	bar := left
	if gap := m.Width - lipgloss.Width(left) - lipgloss.Width(m.Help) - 2; gap > 0 {
		bar = left + strings.Repeat(" ", gap) + theme.DimStyle.Render(m.Help)
	}
	return theme.StatusBarStyle.Width(m.Width).Render(bar)
}
