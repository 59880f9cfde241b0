package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Statkern15/uaView/internal/opc"
)

// fakeSub counts cancellations and can be made to fail.
type fakeSub struct {
	mu        sync.Mutex
	cancelErr error
	cancels   int
}

func (s *fakeSub) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	return s.cancelErr
}

func (s *fakeSub) cancelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

// fakeClient implements opc.Client against in-memory fixtures.
type fakeClient struct {
	mu sync.Mutex

	children  map[opc.NodeID][]opc.BrowseItem
	classes   map[opc.NodeID]opc.NodeClass
	attrs     map[opc.NodeID][]opc.AttributeRow
	initial   map[opc.NodeID]opc.Notification
	browseErr map[opc.NodeID]error
	subErr    map[opc.NodeID]error
	attrErr   map[opc.NodeID]error
	cancelErr map[opc.NodeID]error

	browseCalls map[opc.NodeID]int
	notifiers   map[opc.NodeID]opc.NotifyFunc
	subs        map[opc.NodeID]*fakeSub
	closed      bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		children:    make(map[opc.NodeID][]opc.BrowseItem),
		classes:     make(map[opc.NodeID]opc.NodeClass),
		attrs:       make(map[opc.NodeID][]opc.AttributeRow),
		initial:     make(map[opc.NodeID]opc.Notification),
		browseErr:   make(map[opc.NodeID]error),
		subErr:      make(map[opc.NodeID]error),
		attrErr:     make(map[opc.NodeID]error),
		cancelErr:   make(map[opc.NodeID]error),
		browseCalls: make(map[opc.NodeID]int),
		notifiers:   make(map[opc.NodeID]opc.NotifyFunc),
		subs:        make(map[opc.NodeID]*fakeSub),
	}
}

// variable declares a value-bearing node with an initial value.
func (f *fakeClient) variable(id opc.NodeID, name, value string, ts time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classes[id] = opc.ClassVariable
	f.initial[id] = opc.Notification{
		ID:              id,
		DisplayName:     name,
		Value:           value,
		DataType:        "Int32",
		SourceTimestamp: ts,
		Initial:         true,
	}
}

func (f *fakeClient) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeClient) BrowseChildren(ctx context.Context, id opc.NodeID) ([]opc.BrowseItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.browseCalls[id]++
	if err := f.browseErr[id]; err != nil {
		return nil, err
	}
	return f.children[id], nil
}

func (f *fakeClient) browseCount(id opc.NodeID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.browseCalls[id]
}

func (f *fakeClient) NodeClass(ctx context.Context, id opc.NodeID) (opc.NodeClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if class, ok := f.classes[id]; ok {
		return class, nil
	}
	return opc.ClassObject, nil
}

func (f *fakeClient) Attributes(ctx context.Context, id opc.NodeID) ([]opc.AttributeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.attrErr[id]; err != nil {
		return nil, err
	}
	return f.attrs[id], nil
}

func (f *fakeClient) Subscribe(ctx context.Context, id opc.NodeID, notify opc.NotifyFunc) (opc.Subscription, error) {
	f.mu.Lock()
	if err := f.subErr[id]; err != nil {
		f.mu.Unlock()
		return nil, err
	}
	sub := &fakeSub{cancelErr: f.cancelErr[id]}
	f.subs[id] = sub
	f.notifiers[id] = notify
	initial, hasInitial := f.initial[id]
	f.mu.Unlock()

	if hasInitial {
		notify(initial)
	}
	return sub, nil
}

// push delivers a live change through the registered notify path.
func (f *fakeClient) push(id opc.NodeID, value string, ts time.Time) {
	f.mu.Lock()
	notify := f.notifiers[id]
	meta := f.initial[id]
	f.mu.Unlock()
	if notify == nil {
		return
	}
	notify(opc.Notification{
		ID:              id,
		DisplayName:     meta.DisplayName,
		Value:           value,
		DataType:        meta.DataType,
		SourceTimestamp: ts,
	})
}

// blockingClient holds Subscribe until released or its context is
// cancelled, to exercise teardown racing an in-flight registration.
// With ignoreCtx set it completes regardless of cancellation, like a
// server that already accepted the request.
type blockingClient struct {
	*fakeClient
	release   chan struct{}
	ignoreCtx bool
}

func newBlockingClient(fc *fakeClient) *blockingClient {
	return &blockingClient{fakeClient: fc, release: make(chan struct{})}
}

func (c *blockingClient) Subscribe(ctx context.Context, id opc.NodeID, notify opc.NotifyFunc) (opc.Subscription, error) {
	if c.ignoreCtx {
		<-c.release
	} else {
		select {
		case <-c.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.fakeClient.Subscribe(ctx, id, notify)
}

// collectSink records events for assertions.
type collectSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectSink) Event(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *collectSink) contains(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
