package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	cartapp "github.com/dwikikusuma/quickcart/internal/cart/app"
	"github.com/dwikikusuma/quickcart/internal/metrics"
	"github.com/dwikikusuma/quickcart/pkg/shutdown"
)

const opsShutdownTimeout = 10 * time.Second

// opsHandler serves /metrics, and /healthz which is 200 only while the cart
// stream is connected.
func opsHandler(stream *cartapp.Subscriber) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		state := stream.State()
		if state != cartapp.Connected {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(state.String() + "\n"))
	})
	return r
}

// serveOps runs the ops endpoint on ln until ctx ends.
func serveOps(ctx context.Context, ln net.Listener, h http.Handler, log *slog.Logger) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("ops server starting", slog.String("addr", ln.Addr().String()))
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	ok := shutdown.Graceful(opsShutdownTimeout, func(sctx context.Context) {
		if err := server.Shutdown(sctx); err != nil {
			log.Error("ops server shutdown", slog.Any("err", err))
		}
	})
	if !ok {
		_ = server.Close()
	}
	<-errCh
	return nil
}
