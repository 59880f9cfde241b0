// Package opc defines the boundary to the remote OPC UA server: the
// Client interface the session core depends on, the node class variant,
// and the notification payload delivered for monitored values. The
// gopcua-backed implementation lives in gopcua.go; tests substitute
// fakes.
package opc

import (
	"context"
	"time"
)

// NodeID identifies a node in the server's address space. Opaque and
// stable across browses within one server run.
type NodeID string

// RootID is the well-known RootFolder node every session browses from.
const RootID NodeID = "i=84"

// NodeClass is the closed set of node classes the viewer distinguishes.
// Anything the server reports beyond these maps to ClassOther at the
// boundary, so switches over NodeClass can be exhaustive.
type NodeClass int

const (
	ClassObject NodeClass = iota
	ClassVariable
	ClassMethod
	ClassOther
)

var nodeClassNames = map[NodeClass]string{
	ClassObject:   "Object",
	ClassVariable: "Variable",
	ClassMethod:   "Method",
	ClassOther:    "Other",
}

func (c NodeClass) String() string {
	if s, ok := nodeClassNames[c]; ok {
		return s
	}
	return "Other"
}

// BrowseItem is one child returned by a browse, in server order.
type BrowseItem struct {
	Label string
	ID    NodeID
}

// AttributeRow is one rendered (name, value) attribute pair.
type AttributeRow struct {
	Name  string
	Value string
}

// Notification carries a single value delivery for a monitored node.
// Initial marks the synthetic first delivery that reports the node's
// current value before any live change; it takes the same path as live
// updates and consumers are free to ignore it.
type Notification struct {
	ID              NodeID    `json:"id"`
	DisplayName     string    `json:"displayName"`
	Value           string    `json:"value"`
	DataType        string    `json:"dataType"`
	SourceTimestamp time.Time `json:"sourceTimestamp"`
	Initial         bool      `json:"initial,omitempty"`
}

// NotifyFunc receives notifications for one monitored node. Calls for a
// single node arrive in delivery order; implementations must not block
// for long since they run on the subscription's pump goroutine.
type NotifyFunc func(Notification)

// Subscription is a live monitored-item registration. Cancel is
// best-effort: the remote session may already be gone.
type Subscription interface {
	Cancel(ctx context.Context) error
}

// Client is the connected remote-access handle the session core drives.
// All methods may block on the network and honor ctx cancellation.
type Client interface {
	// Close tears down the connection. Best-effort.
	Close(ctx context.Context) error
	// BrowseChildren returns the node's immediate children in server
	// browse order. An empty result means the node is a leaf.
	BrowseChildren(ctx context.Context, id NodeID) ([]BrowseItem, error)
	// NodeClass reports the node's class.
	NodeClass(ctx context.Context, id NodeID) (NodeClass, error)
	// Attributes reads and renders the node's attributes, keyed by the
	// node class. Unreadable attributes render as empty values rather
	// than failing the whole set.
	Attributes(ctx context.Context, id NodeID) ([]AttributeRow, error)
	// Subscribe creates a value-change subscription for the node. The
	// node's current value is delivered through notify (Initial=true)
	// before Subscribe returns; every subsequent change follows on a
	// background goroutine until Cancel.
	Subscribe(ctx context.Context, id NodeID, notify NotifyFunc) (Subscription, error)
}
