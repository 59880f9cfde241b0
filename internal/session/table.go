package session

import (
	"sync"
	"time"

	"github.com/Statkern15/uaView/internal/opc"
)

// Row is one live value, keyed by node id. Exactly one row exists per
// currently subscribed node.
type Row struct {
	ID              opc.NodeID `json:"id"`
	DisplayName     string     `json:"displayName"`
	Value           string     `json:"value"`
	DataType        string     `json:"dataType"`
	SourceTimestamp time.Time  `json:"sourceTimestamp"`
}

// Table holds the live values of all subscribed nodes in first-seen
// insertion order. Safe for concurrent use; per-node ordering is the
// caller's concern (each subscription delivers from a single goroutine).
type Table struct {
	mu    sync.RWMutex
	rows  map[opc.NodeID]*Row
	order []opc.NodeID
}

func NewTable() *Table {
	return &Table{rows: make(map[opc.NodeID]*Row)}
}

// Upsert applies one notification: updates the row in place when the
// node already has one, inserts at the end otherwise. The display name
// of an existing row is kept as first seen.
func (t *Table) Upsert(n opc.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if row, ok := t.rows[n.ID]; ok {
		row.Value = n.Value
		row.DataType = n.DataType
		row.SourceTimestamp = n.SourceTimestamp
		return
	}
	t.rows[n.ID] = &Row{
		ID:              n.ID,
		DisplayName:     n.DisplayName,
		Value:           n.Value,
		DataType:        n.DataType,
		SourceTimestamp: n.SourceTimestamp,
	}
	t.order = append(t.order, n.ID)
}

// Remove deletes the node's row. No-op when absent.
func (t *Table) Remove(id opc.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Clear empties the table and its index.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = make(map[opc.NodeID]*Row)
	t.order = nil
}

// Rows returns a snapshot of all rows in insertion order.
func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]Row, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, *t.rows[id])
	}
	return rows
}

// Row returns a copy of the node's row, if present.
func (t *Table) Row(id opc.NodeID) (Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	if !ok {
		return Row{}, false
	}
	return *row, true
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}
