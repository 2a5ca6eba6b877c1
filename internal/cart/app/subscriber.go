package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dwikikusuma/quickcart/internal/cart/domain"
	"github.com/dwikikusuma/quickcart/internal/metrics"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

// EventCartUpdate is the only event name the subscriber applies.
const EventCartUpdate = "cart-update"

var ErrAlreadyStarted = errors.New("cart stream already started")

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Subscriber keeps a SnapshotSink in step with the server's cart stream.
// It never reconnects by itself: once the stream ends it stays
// Disconnected until Start is called again.
type Subscriber struct {
	source SnapshotSource
	sink   SnapshotSink
	log    *slog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func NewSubscriber(source SnapshotSource, sink SnapshotSink, log *slog.Logger) *Subscriber {
	if log == nil {
		log = slog.Default()
	}
	closed := make(chan struct{})
	close(closed)
	return &Subscriber{
		source: source,
		sink:   sink,
		log:    log.With("component", "cart-stream"),
		done:   closed,
	}
}

// Start opens the stream for sessionID in the background.
func (s *Subscriber) Start(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Disconnected {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.gen++
	s.cancel = cancel
	s.done = make(chan struct{})
	s.err = nil
	s.setState(Connecting)

	s.log.Info("connecting cart stream", slog.String("session_id", sessionID))
	go s.run(runCtx, s.gen, sessionID, s.done)
	return nil
}

// Close tears the stream down and waits for the reader to exit. Events that
// arrive after Close has begun are discarded. Safe to call repeatedly.
func (s *Subscriber) Close() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	if cancel != nil {
		cancel()
	}
	s.mu.Unlock()

	<-done
}

func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err reports why the last stream ended; nil after a clean close or an
// orderly end of stream.
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the current stream has ended.
func (s *Subscriber) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Subscriber) run(ctx context.Context, gen uint64, sessionID string, done chan struct{}) {
	defer close(done)

	err := s.source.Stream(ctx, sessionID,
		func() { s.opened(gen) },
		func(ev StreamEvent) { s.handle(ctx, gen, ev) },
	)

	cancelled := ctx.Err() != nil
	if cancelled {
		err = nil
	}

	s.mu.Lock()
	if s.gen == gen {
		s.err = err
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.setState(Disconnected)
	}
	s.mu.Unlock()

	switch {
	case cancelled:
		s.log.Info("cart stream closed")
	case err != nil:
		s.log.Error("cart stream failed", slog.Any("err", err))
	default:
		s.log.Warn("cart stream ended by server")
	}
}

func (s *Subscriber) opened(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.state == Connecting {
		s.setState(Connected)
		s.log.Info("cart stream connected")
	}
}

func (s *Subscriber) handle(ctx context.Context, gen uint64, ev StreamEvent) {
	if ev.Name != EventCartUpdate {
		metrics.RecordStreamEvent(metrics.OutcomeIgnored)
		s.log.Debug("ignoring stream event", slog.String("event", ev.Name))
		return
	}

	cart, err := DecodeSnapshot(ev.Data)
	if err != nil {
		metrics.RecordStreamEvent(metrics.OutcomeDropped)
		s.log.Warn("dropping cart update", slog.Any("err", err))
		return
	}

	// Holding mu across Replace means Close, which cancels under mu, cannot
	// slip in between the check and the write.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || ctx.Err() != nil {
		metrics.RecordStreamEvent(metrics.OutcomeDiscarded)
		return
	}
	if s.state == Connecting {
		s.setState(Connected)
	}
	s.sink.Replace(cart)
	metrics.RecordStreamEvent(metrics.OutcomeApplied)
	s.log.Debug("cart updated from stream", slog.Int("items", len(cart.Items)))
}

// setState records the transition. Caller holds mu.
func (s *Subscriber) setState(next State) {
	s.state = next
	metrics.SetStreamConnected(next == Connected)
}

// DecodeSnapshot parses a cart-update payload. Failures wrap
// apiclient.ErrStreamParse.
func DecodeSnapshot(data []byte) (domain.Cart, error) {
	if trimmed := bytes.TrimSpace(data); bytes.Equal(trimmed, []byte("null")) {
		return domain.Cart{}, fmt.Errorf("%w: null snapshot", apiclient.ErrStreamParse)
	}
	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", apiclient.ErrStreamParse, err)
	}
	if err := cart.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("%w: %v", apiclient.ErrStreamParse, err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}
