// Package values renders the live value table.
package values

import (
	"fmt"
	"strings"

	"github.com/Statkern15/uaView/internal/session"
	"github.com/Statkern15/uaView/internal/tui/theme"
)

type Model struct {
	Width  int
	Height int

	rows []session.Row
}

func New() Model {
	return Model{}
}

func (m *Model) SetRows(rows []session.Row) {
	m.rows = rows
}

func (m Model) View() string {
	idW := m.Width * 20 / 100
	nameW := m.Width * 25 / 100
	valW := m.Width * 25 / 100
	typeW := m.Width * 12 / 100
	tsW := m.Width - idW - nameW - valW - typeW
	if tsW < 0 {
		tsW = 0
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(
		row(idW, nameW, valW, typeW, tsW, "NodeId", "DisplayName", "Value", "DataType", "SourceTimestamp")))
	shown := m.rows
	if m.Height > 1 && len(shown) > m.Height-1 {
		shown = shown[len(shown)-(m.Height-1):]
	}
	for _, r := range shown {
		b.WriteByte('\n')
		b.WriteString(row(idW, nameW, valW, typeW, tsW,
			string(r.ID), r.DisplayName, r.Value, r.DataType,
			r.SourceTimestamp.Format("15:04:05.000")))
	}
	return b.String()
}

func row(idW, nameW, valW, typeW, tsW int, id, name, val, typ, ts string) string {
	return fmt.Sprintf("%s %s %s %s %s",
		cell(id, idW), cell(name, nameW), cell(val, valW), cell(typ, typeW), cell(ts, tsW))
}

func cell(s string, width int) string {
	s = theme.Truncate(s, width)
	if len([]rune(s)) < width {
		s += strings.Repeat(" ", width-len([]rune(s)))
	}
	return s
}
