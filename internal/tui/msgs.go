package tui

import (
	"github.com/Statkern15/uaView/internal/opc"
	"github.com/Statkern15/uaView/internal/session"
)

// EventMsg delivers one status event to the log pane. Sent from outside
// the program via Program.Send, since events originate on controller and
// notification goroutines.
type EventMsg struct {
	Event session.Event
}

// ValuesChangedMsg signals that the live value table changed and the
// values pane should re-read its snapshot.
type ValuesChangedMsg struct{}

// connectResultMsg reports completion of an async connect.
type connectResultMsg struct {
	name string
	err  error
}

// disconnectedMsg reports completion of an async disconnect.
type disconnectedMsg struct{}

// expandResultMsg reports completion of a lazy browse for one node.
type expandResultMsg struct {
	id  opc.NodeID
	err error
}

// selectResultMsg carries the attribute rows for a selected node.
type selectResultMsg struct {
	id   opc.NodeID
	rows []opc.AttributeRow
	err  error
}

// subscribeResultMsg reports completion of a subscribe or unsubscribe.
type subscribeResultMsg struct {
	id  opc.NodeID
	err error
}

// diagTickMsg triggers a self-diagnostics sample.
type diagTickMsg struct{}
