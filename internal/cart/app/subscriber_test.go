package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/quickcart/pkg/apiclient"
	"github.com/dwikikusuma/quickcart/pkg/logger"
)

func startSubscriber(t *testing.T) (*Subscriber, *scriptedSource, *ViewModel) {
	t.Helper()
	src := newScriptedSource()
	vm := NewViewModel(&fakeRemote{}, "s-1")
	sub := NewSubscriber(src, vm, logger.Discard())
	t.Cleanup(sub.Close)

	require.Equal(t, Disconnected, sub.State())
	require.NoError(t, sub.Start(context.Background(), "s-1"))
	require.Equal(t, "s-1", <-src.started)
	require.Eventually(t, func() bool { return sub.State() == Connected }, time.Second, time.Millisecond)
	return sub, src, vm
}

func TestSubscriberAppliesSnapshots(t *testing.T) {
	_, src, vm := startSubscriber(t)

	src.push(EventCartUpdate, `{"items":[{"productId":1,"quantity":1,"priceAtAdd":20}],"totalAmount":20}`)
	assert.Equal(t, 1, vm.ItemCount())
	assert.Equal(t, 20.0, vm.TotalAmount())

	// full snapshot, not a delta
	src.push(EventCartUpdate, `{"items":[{"productId":2,"quantity":2,"priceAtAdd":3}],"totalAmount":6}`)
	assert.Equal(t, 0, vm.QuantityOf("1"))
	assert.Equal(t, 2, vm.QuantityOf("2"))
}

func TestSubscriberDropsMalformedPayload(t *testing.T) {
	sub, src, vm := startSubscriber(t)

	src.push(EventCartUpdate, `{"items":[{"productId":1,"quantity":1,"priceAtAdd":20}],"totalAmount":20}`)
	src.push(EventCartUpdate, `{"items":[{"productId":1,`)
	src.push(EventCartUpdate, `null`)
	src.push(EventCartUpdate, `{"items":[{"productId":1,"quantity":0,"priceAtAdd":20}],"totalAmount":0}`)

	assert.Equal(t, 1, vm.ItemCount(), "bad payloads leave the cart alone")
	assert.Equal(t, Connected, sub.State(), "bad payloads do not close the channel")

	src.push(EventCartUpdate, `{"items":[],"totalAmount":0}`)
	assert.Equal(t, 0, vm.ItemCount(), "channel still delivers afterwards")
}

func TestSubscriberIgnoresOtherEvents(t *testing.T) {
	_, src, vm := startSubscriber(t)

	src.push("heartbeat", `{"items":[{"productId":1,"quantity":9,"priceAtAdd":1}],"totalAmount":9}`)
	assert.Equal(t, 0, vm.ItemCount())
}

func TestSubscriberCloseStopsUpdates(t *testing.T) {
	sub, src, vm := startSubscriber(t)

	sub.Close()
	assert.Equal(t, Disconnected, sub.State())
	assert.NoError(t, sub.Err())

	select {
	case src.events <- StreamEvent{Name: EventCartUpdate, Data: []byte(`{"items":[{"productId":1,"quantity":1,"priceAtAdd":1}],"totalAmount":1}`)}:
		t.Fatal("reader still consuming after Close")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 0, vm.ItemCount())

	sub.Close() // idempotent
}

func TestSubscriberLateEventAfterTeardownIsDiscarded(t *testing.T) {
	vm := NewViewModel(&fakeRemote{}, "s-1")
	var late func(StreamEvent)
	src := sourceFunc(func(ctx context.Context, sessionID string, opened func(), deliver func(StreamEvent)) error {
		late = deliver
		opened()
		<-ctx.Done()
		return ctx.Err()
	})
	sub := NewSubscriber(src, vm, logger.Discard())
	require.NoError(t, sub.Start(context.Background(), "s-1"))
	require.Eventually(t, func() bool { return sub.State() == Connected }, time.Second, time.Millisecond)

	sub.Close()
	// a transport that hands over one more event after teardown
	late(StreamEvent{Name: EventCartUpdate, Data: []byte(`{"items":[{"productId":1,"quantity":1,"priceAtAdd":1}],"totalAmount":1}`)})
	assert.Equal(t, 0, vm.ItemCount())
}

func TestSubscriberStreamEndLeavesDisconnected(t *testing.T) {
	sub, src, _ := startSubscriber(t)

	src.end <- errors.New("connection reset")
	<-sub.Done()

	assert.Equal(t, Disconnected, sub.State())
	assert.EqualError(t, sub.Err(), "connection reset")

	// no automatic reconnect
	select {
	case <-src.started:
		t.Fatal("subscriber reconnected on its own")
	case <-time.After(20 * time.Millisecond):
	}

	// explicit restart works
	require.NoError(t, sub.Start(context.Background(), "s-1"))
	assert.Equal(t, "s-1", <-src.started)
}

func TestSubscriberAuthFailure(t *testing.T) {
	src := newScriptedSource()
	src.openErr = &apiclient.StatusError{Kind: apiclient.ErrAuth, StatusCode: 401}
	sub := NewSubscriber(src, NewViewModel(&fakeRemote{}, "s-1"), logger.Discard())

	require.NoError(t, sub.Start(context.Background(), "s-1"))
	<-sub.Done()

	assert.Equal(t, Disconnected, sub.State())
	assert.True(t, errors.Is(sub.Err(), apiclient.ErrAuth))
}

func TestSubscriberRejectsDoubleStart(t *testing.T) {
	sub, _, _ := startSubscriber(t)
	assert.ErrorIs(t, sub.Start(context.Background(), "s-1"), ErrAlreadyStarted)
}

func TestDecodeSnapshot(t *testing.T) {
	c, err := DecodeSnapshot([]byte(`{"items":null,"totalAmount":0}`))
	require.NoError(t, err)
	assert.NotNil(t, c.Items)

	_, err = DecodeSnapshot([]byte(`not json`))
	assert.True(t, errors.Is(err, apiclient.ErrStreamParse))
}

func TestDecodeSnapshotAcceptsAnyTimestamp(t *testing.T) {
	for name, stamp := range map[string]string{
		"rfc3339": `"2026-10-16T08:00:00Z"`,
		"epoch":   `1760601600.123456789`,
		"array":   `[2026,10,16,8,0,0]`,
	} {
		t.Run(name, func(t *testing.T) {
			c, err := DecodeSnapshot([]byte(`{"items":[{"productId":1,"quantity":2,"priceAtAdd":5}],"totalAmount":10,"lastUpdated":` + stamp + `}`))
			require.NoError(t, err)
			require.Len(t, c.Items, 1)
			assert.Equal(t, 10.0, c.TotalAmount)
		})
	}
}

type sourceFunc func(ctx context.Context, sessionID string, opened func(), deliver func(StreamEvent)) error

func (f sourceFunc) Stream(ctx context.Context, sessionID string, opened func(), deliver func(StreamEvent)) error {
	return f(ctx, sessionID, opened, deliver)
}
