// Package tree renders the lazily loaded address space and tracks the
// cursor and per-node expansion state. Expansion state lives here, not
// in the cache: collapsing a node is a view concern and must not forget
// already-browsed children.
package tree

import (
	"strings"

	"github.com/Statkern15/uaView/internal/opc"
	"github.com/Statkern15/uaView/internal/session"
	"github.com/Statkern15/uaView/internal/tui/theme"
	"github.com/charmbracelet/lipgloss"
)

// Line is one visible row of the flattened tree.
type Line struct {
	ID         opc.NodeID
	Label      string
	Depth      int
	Expandable bool
	Loaded     bool
	Expanded   bool
}

// Model holds the tree view state.
type Model struct {
	Width  int
	Height int

	root     *session.TreeNode
	expanded map[opc.NodeID]bool
	cursor   int
	lines    []Line
}

func New() Model {
	return Model{expanded: make(map[opc.NodeID]bool)}
}

// SetTree replaces the backing snapshot and reflattens. The cursor is
// clamped so it stays on a visible line.
func (m *Model) SetTree(root *session.TreeNode) {
	m.root = root
	m.reflatten()
}

// Reset drops expansion state along with the tree, for disconnects.
func (m *Model) Reset() {
	m.root = nil
	m.expanded = make(map[opc.NodeID]bool)
	m.cursor = 0
	m.lines = nil
}

func (m *Model) reflatten() {
	m.lines = m.lines[:0]
	if m.root != nil {
		m.flatten(m.root, 0)
	}
	if m.cursor >= len(m.lines) {
		m.cursor = len(m.lines) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) flatten(n *session.TreeNode, depth int) {
	expanded := m.expanded[n.ID]
	m.lines = append(m.lines, Line{
		ID:         n.ID,
		Label:      n.Label,
		Depth:      depth,
		Expandable: n.Expandable,
		Loaded:     n.Loaded,
		Expanded:   expanded,
	})
	if expanded {
		for _, child := range n.Children {
			m.flatten(child, depth+1)
		}
	}
}

func (m *Model) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) MoveDown() {
	if m.cursor < len(m.lines)-1 {
		m.cursor++
	}
}

// SetCursor moves the cursor to the given visible line, for mouse hits.
func (m *Model) SetCursor(i int) bool {
	if i < 0 || i >= len(m.lines) {
		return false
	}
	m.cursor = i
	return true
}

// CursorID returns the node under the cursor, or "" on an empty tree.
func (m *Model) CursorID() opc.NodeID {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return ""
	}
	return m.lines[m.cursor].ID
}

// ToggleExpand flips the cursor node's expansion. It reports the node
// id and whether its children still need to be browsed.
func (m *Model) ToggleExpand() (id opc.NodeID, needLoad bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return "", false
	}
	line := m.lines[m.cursor]
	if !line.Expandable {
		return line.ID, false
	}
	if line.Expanded {
		m.expanded[line.ID] = false
		m.reflatten()
		return line.ID, false
	}
	m.expanded[line.ID] = true
	if line.Loaded {
		m.reflatten()
		return line.ID, false
	}
	// Children arrive via the next SetTree.
	return line.ID, true
}

// ExpandNode marks a node expanded, for nodes whose children just
// arrived from a browse.
func (m *Model) ExpandNode(id opc.NodeID) {
	m.expanded[id] = true
	m.reflatten()
}

// ScrollTop returns the index of the first line the view shows. Mouse
// hit testing must add it to the clicked row, since the window scrolls
// once the cursor moves past the pane height.
func (m Model) ScrollTop() int {
	if m.Height > 0 && m.cursor >= m.Height {
		return m.cursor - m.Height + 1
	}
	return 0
}

// View renders the visible window of the tree.
func (m Model) View() string {
	var b strings.Builder
	top := m.ScrollTop()
	for i := top; i < len(m.lines); i++ {
		if m.Height > 0 && i-top >= m.Height {
			break
		}
		line := m.lines[i]
		marker := "  "
		switch {
		case !line.Expandable:
			marker = "· "
		case line.Expanded:
			marker = "▾ "
		default:
			marker = "▸ "
		}
		text := strings.Repeat("  ", line.Depth) + marker + line.Label
		text = theme.Truncate(text, m.Width)
		if i == m.cursor {
			text = theme.SelectedStyle.Render(padRight(text, m.Width))
		}
		b.WriteString(text)
		if i < len(m.lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// LineCount reports how many lines are visible, for mouse hit testing.
func (m Model) LineCount() int { return len(m.lines) }
