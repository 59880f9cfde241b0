// Package tui is the bubbletea presentation layer over the session
// controller. Every network-crossing action runs as a tea.Cmd and comes
// back as a typed message, so the event loop never blocks on the server.
package tui

import (
	"context"
	"time"

	"github.com/Statkern15/uaView/internal/config"
	"github.com/Statkern15/uaView/internal/diag"
	"github.com/Statkern15/uaView/internal/opc"
	"github.com/Statkern15/uaView/internal/session"
	"github.com/Statkern15/uaView/internal/tui/theme"
	"github.com/Statkern15/uaView/internal/tui/views/attrs"
	"github.com/Statkern15/uaView/internal/tui/views/logview"
	"github.com/Statkern15/uaView/internal/tui/views/status"
	"github.com/Statkern15/uaView/internal/tui/views/tree"
	"github.com/Statkern15/uaView/internal/tui/views/values"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	diagInterval = 5 * time.Second
	logPaneLines = 6
)

// Model is the root Bubble Tea model.
type Model struct {
	ctrl    *session.Controller
	cfg     *config.Config
	sampler *diag.Sampler // nil when self-diagnostics are unavailable

	keys   KeyMap
	width  int
	height int

	connNames []string
	connIdx   int

	tree   tree.Model
	values values.Model
	attrs  attrs.Model
	logs   logview.Model
	status status.Model

	// autoConnect, when non-empty, is connected to on startup.
	autoConnect string
}

// New creates the root model.
func New(ctrl *session.Controller, cfg *config.Config, sampler *diag.Sampler, autoConnect string) Model {
	m := Model{
		ctrl:        ctrl,
		cfg:         cfg,
		sampler:     sampler,
		keys:        DefaultKeyMap(),
		connNames:   cfg.Names(),
		tree:        tree.New(),
		values:      values.New(),
		attrs:       attrs.New(),
		logs:        logview.New(cfg.UI.LogLines),
		status:      status.New(),
		autoConnect: autoConnect,
	}
	for i, name := range m.connNames {
		if name == autoConnect {
			m.connIdx = i
		}
	}
	m.showConnectionSettings()
	return m
}

// showConnectionSettings fills the attribute pane with the selected
// connection's settings, secrets masked.
func (m *Model) showConnectionSettings() {
	if len(m.connNames) == 0 {
		return
	}
	conn, ok := m.cfg.Connection(m.connNames[m.connIdx])
	if !ok {
		return
	}
	rows := make([]opc.AttributeRow, 0, 6)
	for _, kv := range conn.MaskedRows() {
		rows = append(rows, opc.AttributeRow{Name: kv[0], Value: kv[1]})
	}
	m.attrs.SetRows(rows)
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{diagTick()}
	if m.autoConnect != "" {
		cmds = append(cmds, m.connectCmd(m.autoConnect))
	}
	return tea.Batch(cmds...)
}

// --- commands ---

func (m Model) connectCmd(name string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		err := ctrl.Connect(context.Background(), name)
		return connectResultMsg{name: name, err: err}
	}
}

func (m Model) disconnectCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Disconnect()
		return disconnectedMsg{}
	}
}

func (m Model) expandCmd(id opc.NodeID) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		err := ctrl.Expand(context.Background(), id)
		return expandResultMsg{id: id, err: err}
	}
}

func (m Model) selectCmd(id opc.NodeID, origin session.Origin) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		rows, err := ctrl.SelectNode(context.Background(), id, origin)
		return selectResultMsg{id: id, rows: rows, err: err}
	}
}

func (m Model) subscribeCmd(id opc.NodeID) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		err := ctrl.Subscribe(context.Background(), id)
		return subscribeResultMsg{id: id, err: err}
	}
}

func (m Model) unsubscribeCmd(id opc.NodeID) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		err := ctrl.Unsubscribe(context.Background(), id)
		return subscribeResultMsg{id: id, err: err}
	}
}

func diagTick() tea.Cmd {
	return tea.Tick(diagInterval, func(time.Time) tea.Msg {
		return diagTickMsg{}
	})
}

// --- update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case connectResultMsg:
		if msg.err == nil {
			m.tree.SetTree(m.ctrl.Cache().Snapshot())
			m.tree.ExpandNode(opc.RootID)
		}
		m.syncStatus()
		return m, nil

	case disconnectedMsg:
		m.tree.Reset()
		m.values.SetRows(nil)
		m.attrs.Clear()
		m.showConnectionSettings()
		m.syncStatus()
		return m, nil

	case expandResultMsg:
		if msg.err == nil {
			m.tree.ExpandNode(msg.id)
			m.tree.SetTree(m.ctrl.Cache().Snapshot())
		}
		return m, nil

	case selectResultMsg:
		if msg.err == nil {
			m.attrs.SetRows(msg.rows)
		}
		return m, nil

	case subscribeResultMsg:
		m.values.SetRows(m.ctrl.Table().Rows())
		m.syncStatus()
		return m, nil

	case ValuesChangedMsg:
		m.values.SetRows(m.ctrl.Table().Rows())
		m.syncStatus()
		return m, nil

	case EventMsg:
		m.logs.Append(msg.Event)
		return m, nil

	case diagTickMsg:
		if m.sampler != nil {
			if stats, err := m.sampler.Sample(); err == nil {
				m.status.Diag = stats.String()
			}
		}
		return m, diagTick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if id := m.tree.CursorID(); id != "" && m.ctrl.Connected() {
			return m, m.selectCmd(id, session.OriginKeyboard)
		}
		return m, nil

	case key.Matches(msg, m.keys.Expand):
		if !m.ctrl.Connected() {
			return m, nil
		}
		id, needLoad := m.tree.ToggleExpand()
		if needLoad {
			return m, m.expandCmd(id)
		}
		return m, nil

	case key.Matches(msg, m.keys.Subscribe):
		if id := m.tree.CursorID(); id != "" {
			return m, m.subscribeCmd(id)
		}
		return m, nil

	case key.Matches(msg, m.keys.Unsubscribe):
		if id := m.tree.CursorID(); id != "" {
			return m, m.unsubscribeCmd(id)
		}
		return m, nil

	case key.Matches(msg, m.keys.NextConn):
		if !m.ctrl.Connected() && len(m.connNames) > 0 {
			m.connIdx = (m.connIdx + 1) % len(m.connNames)
			m.showConnectionSettings()
			m.syncStatus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Connect):
		if m.ctrl.State() == session.Disconnected && len(m.connNames) > 0 {
			return m, m.connectCmd(m.connNames[m.connIdx])
		}
		return m, nil

	case key.Matches(msg, m.keys.Disconnect):
		if m.ctrl.Connected() {
			return m, m.disconnectCmd()
		}
		return m, nil
	}
	return m, nil
}

// handleMouse maps a click inside the tree pane to a selection. Mouse
// selection shows attributes but never auto-subscribes.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	// Tree pane content starts below the title row, the pane border and
	// the pane heading; the tree window may be scrolled.
	line := msg.Y - 3
	if msg.X >= m.treeWidth()+2 || line < 0 {
		return m, nil
	}
	line += m.tree.ScrollTop()
	if !m.tree.SetCursor(line) {
		return m, nil
	}
	if id := m.tree.CursorID(); id != "" && m.ctrl.Connected() {
		return m, m.selectCmd(id, session.OriginMouse)
	}
	return m, nil
}

// --- layout and view ---

func (m *Model) treeWidth() int {
	return m.width * 30 / 100
}

func (m *Model) layout() {
	mainH := m.height - 1 - (logPaneLines + 2) - 1 // title, log pane, status bar
	if mainH < 3 {
		mainH = 3
	}
	treeW := m.treeWidth()
	valuesW := m.width * 42 / 100
	attrsW := m.width - treeW - valuesW - 6 // borders
	if attrsW < 10 {
		attrsW = 10
	}

	m.tree.Width, m.tree.Height = treeW, mainH-1
	m.values.Width, m.values.Height = valuesW, mainH-1
	m.attrs.Width, m.attrs.Height = attrsW, mainH-1
	m.logs.Width, m.logs.Height = m.width-2, logPaneLines
	m.status.Width = m.width
}

func (m *Model) syncStatus() {
	m.status.Connected = m.ctrl.Connected()
	m.status.State = m.ctrl.State().String()
	m.status.SubCount = m.ctrl.Registry().Len()
	if m.status.Connected {
		m.status.Connection = m.ctrl.ConnectionName()
	} else if len(m.connNames) > 0 {
		m.status.Connection = m.connNames[m.connIdx]
	}
	m.status.Help = "enter select · space expand · s sub · u unsub · c connect · d disconnect · q quit"
}

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	title := theme.TitleStyle.Render(" uaView — OPC UA live viewer")

	treePane := pane("Address Space", m.tree.View(), m.tree.Width, m.tree.Height+1)
	valuesPane := pane("Live Values", m.values.View(), m.values.Width, m.values.Height+1)
	attrsPane := pane("Attributes", m.attrs.View(), m.attrs.Width, m.attrs.Height+1)
	main := lipgloss.JoinHorizontal(lipgloss.Top, treePane, valuesPane, attrsPane)

	logPane := theme.PaneStyle.Width(m.logs.Width).Height(m.logs.Height).Render(m.logs.View())

	mm := m
	mm.syncStatus()
	return lipgloss.JoinVertical(lipgloss.Left, title, main, logPane, mm.status.View())
}

func pane(title, content string, width, height int) string {
	inner := theme.HeaderStyle.Render(title) + "\n" + content
	return theme.PaneStyle.Width(width).Height(height).Render(inner)
}
