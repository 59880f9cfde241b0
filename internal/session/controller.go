package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Statkern15/uaView/internal/config"
	"github.com/Statkern15/uaView/internal/opc"
)

// State is the controller's connection state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

var stateNames = map[State]string{
	Disconnected:  "disconnected",
	Connecting:    "connecting",
	Connected:     "connected",
	Disconnecting: "disconnecting",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Origin says how a tree selection was made. Keyboard selection of a
// Variable auto-subscribes; mouse selection only shows attributes, so a
// stray click does not create subscriptions.
type Origin int

const (
	OriginKeyboard Origin = iota
	OriginMouse
)

// Dialer opens a remote-access client for a connection entry. Injected
// so tests run against fakes and the binary against gopcua.
type Dialer func(ctx context.Context, conn config.Connection) (opc.Client, error)

// teardownTimeout bounds each disconnect sub-step. Disconnect is a hard
// cancellation boundary: a step that overruns is treated as done.
const teardownTimeout = 5 * time.Second

// Controller orchestrates the session: connect/disconnect lifecycle,
// tree expansion, subscriptions, and the wiring of notification
// deliveries into the live value table.
type Controller struct {
	cfg      *config.Config
	dial     Dialer
	sink     EventSink
	cache    *Cache
	registry *Registry
	table    *Table

	mu       sync.Mutex
	state    State
	client   opc.Client
	connName string
	selected opc.NodeID
	observer Observer
}

func NewController(cfg *config.Config, dial Dialer, sink EventSink) *Controller {
	if sink == nil {
		sink = noopSink{}
	}
	return &Controller{
		cfg:      cfg,
		dial:     dial,
		sink:     sink,
		cache:    NewCache(),
		registry: NewRegistry(),
		table:    NewTable(),
	}
}

// SetObserver registers a mirror for table mutations. Must be called
// before Connect.
func (c *Controller) SetObserver(obs Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = obs
}

func (c *Controller) Cache() *Cache       { return c.cache }
func (c *Controller) Table() *Table       { return c.table }
func (c *Controller) Registry() *Registry { return c.registry }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Connected() bool { return c.State() == Connected }

func (c *Controller) ConnectionName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connName
}

func (c *Controller) Selected() opc.NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// activeClient returns the remote client while connected.
func (c *Controller) activeClient() (opc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Connected || c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

// Connect resolves the named connection, opens the remote client and
// loads exactly one level under the root. On any failure the session is
// back in Disconnected with no partial state.
func (c *Controller) Connect(ctx context.Context, name string) error {
	if name == "" {
		eventf(c.sink, "No connection selected")
		return ErrNoConnectionSelected
	}
	conn, ok := c.cfg.Connection(name)
	if !ok {
		eventf(c.sink, "Connection '%s' not found in settings", name)
		return fmt.Errorf("%w: %s", ErrUnknownConnection, name)
	}

	c.mu.Lock()
	if c.state != Disconnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot connect while %s", ErrConnectFailed, state)
	}
	c.state = Connecting
	c.mu.Unlock()

	eventf(c.sink, "Connecting to %s...", conn.Endpoint)

	client, err := c.dial(ctx, conn)
	if err != nil {
		c.setDisconnected()
		eventf(c.sink, "Connection failed: %v", err)
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	c.cache.Reset()
	if err := c.cache.EnsureLoaded(ctx, client, opc.RootID); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		client.Close(closeCtx)
		cancel()
		c.cache.Reset()
		c.setDisconnected()
		eventf(c.sink, "Connection failed: %v", err)
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	c.mu.Lock()
	c.client = client
	c.connName = name
	c.state = Connected
	c.mu.Unlock()

	eventf(c.sink, "Connected to %s", name)
	return nil
}

func (c *Controller) setDisconnected() {
	c.mu.Lock()
	c.state = Disconnected
	c.client = nil
	c.connName = ""
	c.selected = ""
	c.mu.Unlock()
}

// Disconnect tears the session down best-effort: every step runs even
// if an earlier one failed, because stale subscriptions or a stale tree
// are worse than a partially failed cleanup. Always ends Disconnected.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		eventf(c.sink, "No active connection")
		return nil
	}
	c.state = Disconnecting
	client := c.client
	c.mu.Unlock()

	eventf(c.sink, "Disconnecting...")

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	c.registry.TeardownAll(ctx)
	cancel()

	c.table.Clear()
	c.cache.Reset()

	if client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		if err := client.Close(ctx); err != nil {
			log.Printf("disconnect: close: %v", err)
		}
		cancel()
	}

	c.setDisconnected()
	eventf(c.sink, "Disconnected")
	return nil
}

// Shutdown runs a final disconnect if a session is live. Never blocks
// process exit: failures are logged and swallowed.
func (c *Controller) Shutdown() {
	if c.State() == Disconnected {
		return
	}
	if err := c.Disconnect(); err != nil {
		log.Printf("shutdown: disconnect: %v", err)
	}
}

// Expand lazily loads the children of a tree node. Idempotent once the
// node is loaded; a failed browse leaves it retryable.
func (c *Controller) Expand(ctx context.Context, id opc.NodeID) error {
	client, err := c.activeClient()
	if err != nil {
		return err
	}
	eventf(c.sink, "Browse on node '%s'", id)
	if err := c.cache.EnsureLoaded(ctx, client, id); err != nil {
		eventf(c.sink, "Browse failed for %s: %v", id, err)
		return err
	}
	return nil
}

// Subscribe registers a live subscription for the node and wires its
// notifications into the value table.
func (c *Controller) Subscribe(ctx context.Context, id opc.NodeID) error {
	if id == "" {
		eventf(c.sink, "No node selected")
		return nil
	}
	client, err := c.activeClient()
	if err != nil {
		eventf(c.sink, "Not connected; cannot subscribe")
		return err
	}
	if err := c.registry.Subscribe(ctx, client, id, c.applyNotification); err != nil {
		switch {
		case errors.Is(err, ErrAlreadySubscribed):
			eventf(c.sink, "Already subscribed: %s", id)
		case errors.Is(err, ErrUnsupportedNodeClass):
			eventf(c.sink, "Cannot subscribe to %s: only Variable nodes are supported", id)
		default:
			eventf(c.sink, "Subscribe failed for %s: %v", id, err)
		}
		return err
	}
	eventf(c.sink, "Subscribed to %s", id)
	return nil
}

// Unsubscribe cancels the node's subscription and drops its row in the
// same logical operation, keeping the registry's key set a subset of
// the table's.
func (c *Controller) Unsubscribe(ctx context.Context, id opc.NodeID) error {
	if id == "" {
		eventf(c.sink, "No node selected")
		return nil
	}
	if removed := c.registry.Unsubscribe(ctx, id); !removed {
		eventf(c.sink, "Not subscribed: %s", id)
		return nil
	}
	c.table.Remove(id)
	c.notifyRemoved(id)
	eventf(c.sink, "Unsubscribed from %s", id)
	return nil
}

// SubscribeSelected subscribes the node currently selected in the tree.
// Silently logs when nothing is selected.
func (c *Controller) SubscribeSelected(ctx context.Context) error {
	return c.Subscribe(ctx, c.Selected())
}

// UnsubscribeSelected unsubscribes the currently selected node.
func (c *Controller) UnsubscribeSelected(ctx context.Context) error {
	return c.Unsubscribe(ctx, c.Selected())
}

// SelectNode records the selection, reads the node's attributes for
// display and, for keyboard-driven selection, auto-subscribes
// value-bearing nodes. Mouse selection never subscribes.
func (c *Controller) SelectNode(ctx context.Context, id opc.NodeID, origin Origin) ([]opc.AttributeRow, error) {
	client, err := c.activeClient()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()

	rows, err := client.Attributes(ctx, id)
	if err != nil {
		eventf(c.sink, "Failed to read attributes for %s: %v", id, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrAttributeRead, id, err)
	}

	if origin == OriginKeyboard {
		// Best effort; duplicate and non-Variable subscriptions just log.
		c.Subscribe(ctx, id)
	}
	return rows, nil
}

// applyNotification is the single delivery path for every notification,
// initial and live alike. Malformed deliveries are dropped and logged;
// deliveries for nodes no longer subscribed are ignored so a late
// notification cannot resurrect a removed row.
func (c *Controller) applyNotification(n opc.Notification) {
	if n.ID == "" {
		log.Printf("dropping malformed notification: %+v", n)
		return
	}
	if !c.registry.Has(n.ID) {
		return
	}
	c.table.Upsert(n)

	c.mu.Lock()
	obs := c.observer
	c.mu.Unlock()
	if obs != nil {
		if row, ok := c.table.Row(n.ID); ok {
			obs.ValueChanged(row, n.Initial)
		}
	}
}

func (c *Controller) notifyRemoved(id opc.NodeID) {
	c.mu.Lock()
	obs := c.observer
	c.mu.Unlock()
	if obs != nil {
		obs.ValueRemoved(id)
	}
}
