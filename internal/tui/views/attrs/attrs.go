// Package attrs renders the attribute pane for the selected node.
package attrs

import (
	"strings"

	"github.com/Statkern15/uaView/internal/opc"
	"github.com/Statkern15/uaView/internal/tui/theme"
)

type Model struct {
	Width  int
	Height int

	rows []opc.AttributeRow
}

func New() Model {
	return Model{}
}

func (m *Model) SetRows(rows []opc.AttributeRow) {
	m.rows = rows
}

func (m *Model) Clear() {
	m.rows = nil
}

func (m Model) View() string {
	nameW := m.Width * 40 / 100
	valW := m.Width - nameW - 1
	if valW < 0 {
		valW = 0
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(cell("Attribute", nameW) + " " + cell("Value", valW)))
	shown := m.rows
	if m.Height > 1 && len(shown) > m.Height-1 {
		shown = shown[:m.Height-1]
	}
	for _, r := range shown {
		b.WriteByte('\n')
		b.WriteString(theme.DimStyle.Render(cell(r.Name, nameW)))
		b.WriteByte(' ')
		b.WriteString(theme.Truncate(r.Value, valW))
	}
	return b.String()
}

func cell(s string, width int) string {
	s = theme.Truncate(s, width)
	if len([]rune(s)) < width {
		s += strings.Repeat(" ", width-len([]rune(s)))
	}
	return s
}
