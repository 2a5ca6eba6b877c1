package app

import (
	"context"

	"github.com/dwikikusuma/quickcart/internal/cart/domain"
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
)

// RemoteCart is the backend's cart API. Mutations return no cart: the
// authoritative result arrives on the stream.
type RemoteCart interface {
	FetchCart(ctx context.Context, sessionID string) (domain.Cart, error)
	AddOrIncrease(ctx context.Context, sessionID string, productID catalog.ProductID, quantity int) error
	// DecreaseOrRemove removes the whole line when quantity is nil.
	DecreaseOrRemove(ctx context.Context, sessionID string, productID catalog.ProductID, quantity *int) error
}

// StreamEvent is one server-sent event as received.
type StreamEvent struct {
	Name string
	Data []byte
}

// SnapshotSource opens the push channel for a session and blocks until it
// ends or ctx is cancelled. opened runs once the server has accepted the
// connection, before any deliver call. Events are delivered in order.
type SnapshotSource interface {
	Stream(ctx context.Context, sessionID string, opened func(), deliver func(StreamEvent)) error
}

// SnapshotSink receives authoritative snapshots.
type SnapshotSink interface {
	Replace(cart domain.Cart)
}
