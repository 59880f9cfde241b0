package session

import (
	"fmt"
	"time"

	"github.com/Statkern15/uaView/internal/opc"
)

// Event is one human-readable status line: connects, browses,
// subscribes, errors. The presentation layer owns formatting and
// destination.
type Event struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// EventSink receives status events. Implementations must be safe for
// concurrent use; events may originate from notification goroutines.
type EventSink interface {
	Event(Event)
}

// SinkFunc adapts a function to an EventSink.
type SinkFunc func(Event)

func (f SinkFunc) Event(e Event) { f(e) }

type noopSink struct{}

func (noopSink) Event(Event) {}

func eventf(sink EventSink, format string, args ...interface{}) {
	sink.Event(Event{Time: time.Now(), Message: fmt.Sprintf(format, args...)})
}

// Observer receives table mutations as they are applied, for consumers
// that mirror the live value table (the websocket exporter, the TUI).
// Optional; a nil observer disables it.
type Observer interface {
	ValueChanged(row Row, initial bool)
	ValueRemoved(id opc.NodeID)
}
