package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Statkern15/uaView/internal/opc"
)

func notif(id opc.NodeID, value string, ts time.Time) opc.Notification {
	return opc.Notification{
		ID:              id,
		DisplayName:     "node " + string(id),
		Value:           value,
		DataType:        "Int32",
		SourceTimestamp: ts,
	}
}

func TestUpsertConvergence(t *testing.T) {
	tbl := NewTable()
	t0 := time.Now()

	tbl.Upsert(notif("i=100", "1", t0))
	tbl.Upsert(notif("i=100", "2", t0.Add(time.Second)))
	tbl.Upsert(notif("i=100", "3", t0.Add(2*time.Second)))

	if got := tbl.Len(); got != 1 {
		t.Fatalf("table has %d rows, want 1", got)
	}
	row, ok := tbl.Row("i=100")
	if !ok {
		t.Fatal("row missing")
	}
	if row.Value != "3" {
		t.Errorf("row value = %q, want %q", row.Value, "3")
	}
	if !row.SourceTimestamp.Equal(t0.Add(2 * time.Second)) {
		t.Errorf("row timestamp = %v, want %v", row.SourceTimestamp, t0.Add(2*time.Second))
	}
}

func TestUpsertPreservesInsertionOrder(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	for _, id := range []opc.NodeID{"i=3", "i=1", "i=2"} {
		tbl.Upsert(notif(id, "x", now))
	}
	// Updating an existing row must not move it.
	tbl.Upsert(notif("i=3", "y", now))

	rows := tbl.Rows()
	want := []opc.NodeID{"i=3", "i=1", "i=2"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, id := range want {
		if rows[i].ID != id {
			t.Errorf("rows[%d].ID = %s, want %s", i, rows[i].ID, id)
		}
	}
}

func TestUpsertKeepsFirstSeenDisplayName(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	first := notif("i=7", "1", now)
	first.DisplayName = "Temperature"
	tbl.Upsert(first)

	second := notif("i=7", "2", now)
	second.DisplayName = "Renamed"
	tbl.Upsert(second)

	row, _ := tbl.Row("i=7")
	if row.DisplayName != "Temperature" {
		t.Errorf("display name = %q, want first-seen %q", row.DisplayName, "Temperature")
	}
}

func TestRemove(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	tbl.Upsert(notif("i=1", "a", now))
	tbl.Upsert(notif("i=2", "b", now))

	tbl.Remove("i=1")
	if _, ok := tbl.Row("i=1"); ok {
		t.Error("row i=1 still present after Remove")
	}
	if got := tbl.Len(); got != 1 {
		t.Errorf("table has %d rows, want 1", got)
	}

	// Removing an absent row is a no-op.
	tbl.Remove("i=404")
	if got := tbl.Len(); got != 1 {
		t.Errorf("table has %d rows after no-op remove, want 1", got)
	}
}

func TestClear(t *testing.T) {
	tbl := NewTable()
	now := time.Now()
	tbl.Upsert(notif("i=1", "a", now))
	tbl.Upsert(notif("i=2", "b", now))

	tbl.Clear()
	if got := tbl.Len(); got != 0 {
		t.Errorf("table has %d rows after Clear, want 0", got)
	}
	if got := len(tbl.Rows()); got != 0 {
		t.Errorf("Rows() returned %d rows after Clear", got)
	}
}

func TestConcurrentUpsertsDifferentRefs(t *testing.T) {
	tbl := NewTable()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := opc.NodeID(fmt.Sprintf("i=%d", i))
			for v := 0; v < 20; v++ {
				tbl.Upsert(notif(id, fmt.Sprintf("%d", v), now))
			}
		}(i)
	}
	wg.Wait()

	if got := tbl.Len(); got != 50 {
		t.Fatalf("table has %d rows, want 50", got)
	}
	for _, row := range tbl.Rows() {
		if row.Value != "19" {
			t.Errorf("row %s converged to %q, want %q", row.ID, row.Value, "19")
		}
	}
}
