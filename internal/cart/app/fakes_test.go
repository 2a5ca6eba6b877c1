package app

import (
	"context"
	"sync"

	"github.com/dwikikusuma/quickcart/internal/cart/domain"
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
)

type call struct {
	op        string
	sessionID string
	productID catalog.ProductID
	quantity  *int
}

type fakeRemote struct {
	mu    sync.Mutex
	cart  domain.Cart
	err   error
	calls []call
}

func (f *fakeRemote) FetchCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "fetch", sessionID: sessionID})
	return f.cart, f.err
}

func (f *fakeRemote) AddOrIncrease(ctx context.Context, sessionID string, productID catalog.ProductID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := quantity
	f.calls = append(f.calls, call{op: "add", sessionID: sessionID, productID: productID, quantity: &q})
	return f.err
}

func (f *fakeRemote) DecreaseOrRemove(ctx context.Context, sessionID string, productID catalog.ProductID, quantity *int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: "remove", sessionID: sessionID, productID: productID, quantity: quantity})
	return f.err
}

func (f *fakeRemote) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

// scriptedSource hands control of the stream to the test: it reports open,
// then relays whatever the test pushes until the test ends it or ctx is
// cancelled.
type scriptedSource struct {
	openErr error
	events  chan StreamEvent
	acked   chan struct{}
	end     chan error
	started chan string
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{
		events:  make(chan StreamEvent),
		acked:   make(chan struct{}),
		end:     make(chan error, 1),
		started: make(chan string, 4),
	}
}

func (s *scriptedSource) Stream(ctx context.Context, sessionID string, opened func(), deliver func(StreamEvent)) error {
	s.started <- sessionID
	if s.openErr != nil {
		return s.openErr
	}
	opened()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.end:
			return err
		case ev := <-s.events:
			deliver(ev)
			s.acked <- struct{}{}
		}
	}
}

// push blocks until the subscriber has handled the event.
func (s *scriptedSource) push(name, data string) {
	s.events <- StreamEvent{Name: name, Data: []byte(data)}
	<-s.acked
}
