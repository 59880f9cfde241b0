package export

import (
	"github.com/Statkern15/uaView/internal/session"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot" // full table on attach
	MsgValue    MessageType = "value"    // one row upserted
	MsgRemove   MessageType = "remove"   // one row dropped
	MsgEvent    MessageType = "event"    // one status line
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	Connection string        `json:"connection,omitempty"`
	Rows       []session.Row `json:"rows"`
}

type ValuePayload struct {
	Row     session.Row `json:"row"`
	Initial bool        `json:"initial,omitempty"`
}

type RemovePayload struct {
	ID string `json:"id"`
}

type EventPayload struct {
	Event session.Event `json:"event"`
}
