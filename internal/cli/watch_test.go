package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/dwikikusuma/quickcart/internal/cart/app"
	"github.com/dwikikusuma/quickcart/internal/storefront"
	"github.com/dwikikusuma/quickcart/pkg/logger"
)

func startWatch(t *testing.T, h *harness, ctx context.Context) (*syncBuffer, <-chan error) {
	t.Helper()
	var out, errOut syncBuffer
	done := make(chan error, 1)
	go func() { done <- h.runContext(ctx, &out, &errOut, "watch") }()

	id := h.sessionID(t)
	require.Eventually(t, func() bool { return h.srv.Subscribers(id) == 1 }, 5*time.Second, 5*time.Millisecond)
	return &out, done
}

func TestWatchPrintsSnapshotsUntilStreamEnds(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "alice", "-p", "secret")
	id := h.sessionID(t)

	out, done := startWatch(t, h, context.Background())
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "cart: 0 item(s), total $0.00") }, 5*time.Second, 5*time.Millisecond)

	h.srv.Publish(id, "cart-update", `{"items":[{"productId":1,"quantity":3,"priceAtAdd":20}],"totalAmount":60}`)
	require.Eventually(t, func() bool { return strings.Contains(out.String(), "cart: 3 item(s), total $60.00") }, 5*time.Second, 5*time.Millisecond)

	h.srv.DropStreams(id)
	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, storefront.ErrStreamEnded))
		assert.Equal(t, ExitFailure, GetExitCode(err))
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop when the stream ended")
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "login", "alice", "-p", "secret")

	ctx, cancel := context.WithCancel(context.Background())
	_, done := startWatch(t, h, ctx)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
	id := h.sessionID(t)
	require.Eventually(t, func() bool { return h.srv.Subscribers(id) == 0 }, 5*time.Second, 5*time.Millisecond)
}

func TestWatchNeedsLogin(t *testing.T) {
	h := newHarness(t)
	r := h.run("watch")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "not logged in")
}

func TestOpsHandler(t *testing.T) {
	src := cartapp.SnapshotSource(blockingSource{})
	vm := cartapp.NewViewModel(nil, "s-1")
	sub := cartapp.NewSubscriber(src, vm, logger.Discard())
	t.Cleanup(sub.Close)

	srv := httptest.NewServer(opsHandler(sub))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "disconnected\n", string(body))

	require.NoError(t, sub.Start(context.Background(), "s-1"))
	require.Eventually(t, func() bool { return sub.State() == cartapp.Connected }, 5*time.Second, 5*time.Millisecond)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "quickcart_stream_connected 1")
}

// blockingSource opens and then waits for cancellation.
type blockingSource struct{}

func (blockingSource) Stream(ctx context.Context, _ string, opened func(), _ func(cartapp.StreamEvent)) error {
	opened()
	<-ctx.Done()
	return ctx.Err()
}
