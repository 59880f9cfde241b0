// Package export pushes the live value table and status events to
// websocket clients, so an external dashboard can mirror the session.
// Disabled unless the settings file enables it.
package export

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Statkern15/uaView/internal/opc"
	"github.com/Statkern15/uaView/internal/session"
	"github.com/gorilla/websocket"
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans table mutations and status events out to attached
// websocket clients. It implements session.Observer and
// session.EventSink. Slow clients drop messages rather than stall the
// delivery path. With a positive throttle, value updates are coalesced
// per node and flushed once per window instead of per notification.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	table   *session.Table
	name    func() string // current connection name, for snapshots

	throttle   time.Duration
	flushMu    sync.Mutex
	pending    map[opc.NodeID]ValuePayload
	removed    map[opc.NodeID]bool
	flushTimer *time.Timer
}

func NewBroadcaster(table *session.Table, name func() string, throttle time.Duration) *Broadcaster {
	if name == nil {
		name = func() string { return "" }
	}
	return &Broadcaster{
		clients:  make(map[*client]bool),
		table:    table,
		name:     name,
		throttle: throttle,
		pending:  make(map[opc.NodeID]ValuePayload),
		removed:  make(map[opc.NodeID]bool),
	}
}

func (b *Broadcaster) addClient(conn *websocket.Conn) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	snapshot := Message{
		Type: MsgSnapshot,
		Payload: SnapshotPayload{
			Connection: b.name(),
			Rows:       b.table.Rows(),
		},
	}
	data, _ := json.Marshal(snapshot)

	select {
	case c.send <- data:
	default:
		// Client too slow, drop the snapshot.
	}

	return c
}

func (b *Broadcaster) removeClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("export: marshal: %v", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			// Drop for this client; the next snapshot resyncs it.
		}
	}
}

// ClientCount reports attached clients, for tests and the status bar.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ValueChanged implements session.Observer. Updates within one throttle
// window collapse to the latest value per node.
func (b *Broadcaster) ValueChanged(row session.Row, initial bool) {
	if b.throttle <= 0 {
		b.broadcast(Message{Type: MsgValue, Payload: ValuePayload{Row: row, Initial: initial}})
		return
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	b.pending[row.ID] = ValuePayload{Row: row, Initial: initial}
	delete(b.removed, row.ID)
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

// ValueRemoved implements session.Observer. A removal supersedes any
// value still queued for the node.
func (b *Broadcaster) ValueRemoved(id opc.NodeID) {
	if b.throttle <= 0 {
		b.broadcast(Message{Type: MsgRemove, Payload: RemovePayload{ID: string(id)}})
		return
	}
	b.flushMu.Lock()
	defer b.flushMu.Unlock()
	delete(b.pending, id)
	b.removed[id] = true
	if b.flushTimer == nil {
		b.flushTimer = time.AfterFunc(b.throttle, b.flush)
	}
}

func (b *Broadcaster) flush() {
	b.flushMu.Lock()
	pending := b.pending
	removed := b.removed
	b.pending = make(map[opc.NodeID]ValuePayload)
	b.removed = make(map[opc.NodeID]bool)
	b.flushTimer = nil
	b.flushMu.Unlock()

	for _, vp := range pending {
		b.broadcast(Message{Type: MsgValue, Payload: vp})
	}
	for id := range removed {
		b.broadcast(Message{Type: MsgRemove, Payload: RemovePayload{ID: string(id)}})
	}
}

// Event implements session.EventSink.
func (b *Broadcaster) Event(e session.Event) {
	b.broadcast(Message{Type: MsgEvent, Payload: EventPayload{Event: e}})
}

// Handler returns the /ws upgrade handler.
func (b *Broadcaster) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		// Local diagnostic endpoint; origin checks add nothing here.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("export: upgrade: %v", err)
			return
		}
		log.Printf("export: client connected: %s", r.RemoteAddr)
		c := b.addClient(conn)
		go func() {
			defer func() {
				b.removeClient(c)
				log.Printf("export: client disconnected: %s", r.RemoteAddr)
			}()
			for {
				// Clients only listen; reads just detect disconnects.
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// Serve runs the export endpoint until ctx is cancelled.
func (b *Broadcaster) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", b.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("export: listening on ws://%s/ws", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
