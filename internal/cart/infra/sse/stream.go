// Package sse carries the cart stream over server-sent events.
package sse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	r3sse "github.com/r3labs/sse/v2"

	"github.com/dwikikusuma/quickcart/internal/cart/app"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

const routeStream = "/cart/stream/{sessionId}"

// maxEventSize bounds one event. A snapshot arrives whole on one data line.
const maxEventSize = 8 << 20

// noReconnect stops the client after the first attempt. Reopening a dead
// stream is the caller's decision.
type noReconnect struct{}

func (noReconnect) NextBackOff() time.Duration { return -1 }
func (noReconnect) Reset()                     {}

// Source implements app.SnapshotSource with one SSE connection per Stream
// call. It shares the API client's transport and cookie jar.
type Source struct {
	api *apiclient.Client
	log *slog.Logger
}

var _ app.SnapshotSource = (*Source)(nil)

func NewSource(api *apiclient.Client, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{api: api, log: log}
}

func (s *Source) Stream(ctx context.Context, sessionID string, opened func(), deliver func(app.StreamEvent)) error {
	if sessionID == "" {
		return app.ErrInvalidInput
	}

	url := s.api.URL(routeStream, sessionID)
	client := r3sse.NewClient(url, r3sse.ClientMaxBufferSize(maxEventSize))
	client.Connection = s.api.StreamingHTTPClient()
	client.ReconnectStrategy = noReconnect{}
	client.ResponseValidator = func(_ *r3sse.Client, resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = resp.Body.Close()
			return apiclient.NewStatusError(resp.StatusCode, body)
		}
		opened()
		return nil
	}

	s.log.Debug("opening event stream", slog.String("url", url))
	err := client.SubscribeWithContext(ctx, "", func(msg *r3sse.Event) {
		deliver(app.StreamEvent{Name: string(msg.Event), Data: bytes.Clone(msg.Data)})
	})

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var se *apiclient.StatusError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return se
	default:
		return fmt.Errorf("%w: cart stream: %v", apiclient.ErrNetwork, err)
	}
}
