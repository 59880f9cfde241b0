// Package logview renders the status event log, one timestamped line
// per notable event, newest at the bottom.
package logview

import (
	"strings"

	"github.com/Statkern15/uaView/internal/session"
	"github.com/Statkern15/uaView/internal/tui/theme"
)

type Model struct {
	Width  int
	Height int

	max   int
	lines []string
}

func New(maxLines int) Model {
	if maxLines <= 0 {
		maxLines = 500
	}
	return Model{max: maxLines}
}

func (m *Model) Append(e session.Event) {
	line := e.Time.Format("2006-01-02 15:04:05") + " " + e.Message
	m.lines = append(m.lines, line)
	if len(m.lines) > m.max {
		m.lines = m.lines[len(m.lines)-m.max:]
	}
}

func (m Model) View() string {
	shown := m.lines
	if m.Height > 0 && len(shown) > m.Height {
		shown = shown[len(shown)-m.Height:]
	}
	out := make([]string, len(shown))
	for i, line := range shown {
		out[i] = theme.Truncate(line, m.Width)
	}
	return strings.Join(out, "\n")
}
