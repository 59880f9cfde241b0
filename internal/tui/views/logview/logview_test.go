package logview

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Statkern15/uaView/internal/session"
)

func TestAppendCapsLines(t *testing.T) {
	m := New(3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		m.Append(session.Event{Time: now, Message: fmt.Sprintf("event %d", i)})
	}
	if got := len(m.lines); got != 3 {
		t.Fatalf("kept %d lines, want 3", got)
	}
	if !strings.HasSuffix(m.lines[0], "event 2") {
		t.Errorf("oldest kept line = %q, want event 2", m.lines[0])
	}
	if !strings.HasSuffix(m.lines[2], "event 4") {
		t.Errorf("newest line = %q, want event 4", m.lines[2])
	}
}

func TestViewShowsTail(t *testing.T) {
	m := New(0) // zero falls back to the default cap
	m.Width = 80
	m.Height = 2
	now := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
	for _, msg := range []string{"Connected to plant", "Subscribed: i=100", "Unsubscribed: i=100"} {
		m.Append(session.Event{Time: now, Message: msg})
	}

	view := m.View()
	if strings.Contains(view, "Connected to plant") {
		t.Error("view shows a line beyond its height")
	}
	if !strings.Contains(view, "Unsubscribed: i=100") {
		t.Error("view misses the newest line")
	}
	if !strings.Contains(view, "2026-08-27 09:30:00") {
		t.Error("view misses the event timestamp")
	}
}
