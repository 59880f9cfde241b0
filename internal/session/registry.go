package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/Statkern15/uaView/internal/opc"
)

// record tracks one node's subscription. A record with a nil sub is
// pending: the registration is in flight, already blocks duplicates,
// and carries a cancel hook so an unsubscribe can abort it.
type record struct {
	sub    opc.Subscription
	cancel context.CancelFunc
}

// Registry enforces at-most-one live subscription per node and owns the
// orderly teardown of all of them. Subscribe and Unsubscribe for the
// same node coordinate through the record's state under mu; no lock is
// ever held across a network call, so teardown can always proceed even
// while a registration for some node hangs on the server.
type Registry struct {
	mu   sync.Mutex
	recs map[opc.NodeID]*record
}

func NewRegistry() *Registry {
	return &Registry{recs: make(map[opc.NodeID]*record)}
}

// Subscribe validates the node class, creates the remote subscription
// and registers notify as the node's delivery path. The remote client
// delivers the node's current value through notify before Subscribe
// returns. A failed attempt leaves no record behind. An Unsubscribe
// issued while the registration is still in flight cancels it.
func (r *Registry) Subscribe(ctx context.Context, client opc.Client, id opc.NodeID, notify opc.NotifyFunc) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if _, exists := r.recs[id]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadySubscribed, id)
	}
	rec := &record{cancel: cancel} // pending; blocks duplicates while we talk to the server
	r.recs[id] = rec
	r.mu.Unlock()

	fail := func() {
		r.mu.Lock()
		if cur, ok := r.recs[id]; ok && cur == rec {
			delete(r.recs, id)
		}
		r.mu.Unlock()
	}

	class, err := client.NodeClass(subCtx, id)
	if err != nil {
		fail()
		return fmt.Errorf("%w: read class of %s: %v", ErrSubscribeFailed, id, err)
	}
	switch class {
	case opc.ClassVariable:
		// value-bearing, fine
	case opc.ClassObject, opc.ClassMethod, opc.ClassOther:
		fail()
		return fmt.Errorf("%w: %s is %s", ErrUnsupportedNodeClass, id, class)
	}

	sub, err := client.Subscribe(subCtx, id, notify)
	if err != nil {
		fail()
		return fmt.Errorf("%w: %s: %v", ErrSubscribeFailed, id, err)
	}

	r.mu.Lock()
	cur, ok := r.recs[id]
	if !ok || cur != rec {
		// Unsubscribed while the registration was in flight; the fresh
		// subscription is an orphan and must not outlive the record.
		r.mu.Unlock()
		cancelCtx, cc := context.WithTimeout(context.Background(), teardownTimeout)
		sub.Cancel(cancelCtx)
		cc()
		return fmt.Errorf("%w: %s: cancelled during registration", ErrSubscribeFailed, id)
	}
	rec.sub = sub
	rec.cancel = nil
	r.mu.Unlock()
	return nil
}

// Unsubscribe cancels the node's subscription and removes the record
// unconditionally: after this call the registry reports "not subscribed"
// regardless of the remote outcome. A pending registration is aborted
// via its cancel hook rather than waited for. Returns false when there
// was nothing to remove.
func (r *Registry) Unsubscribe(ctx context.Context, id opc.NodeID) bool {
	r.mu.Lock()
	rec, ok := r.recs[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.recs, id)
	cancel := rec.cancel
	sub := rec.sub
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		if err := sub.Cancel(ctx); err != nil {
			// Cancellation is best-effort; the remote session may be gone.
			log.Printf("unsubscribe %s: cancel: %v", id, err)
		}
	}
	return true
}

// TeardownAll unsubscribes every tracked node, tolerating individual
// failures, and leaves the registry empty.
func (r *Registry) TeardownAll(ctx context.Context) {
	for _, id := range r.Refs() {
		r.Unsubscribe(ctx, id)
	}
}

// Has reports whether the node has a live or pending record.
func (r *Registry) Has(id opc.NodeID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.recs[id]
	return ok
}

// Refs returns the currently tracked node ids.
func (r *Registry) Refs() []opc.NodeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := make([]opc.NodeID, 0, len(r.recs))
	for id := range r.recs {
		refs = append(refs, id)
	}
	return refs
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recs)
}
