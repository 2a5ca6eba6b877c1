package storefront

import (
	"context"
	"fmt"
	"log/slog"

	authhttp "github.com/dwikikusuma/quickcart/internal/auth/infra/httpapi"
	carthttp "github.com/dwikikusuma/quickcart/internal/cart/infra/httpapi"
	"github.com/dwikikusuma/quickcart/internal/cart/infra/sse"
	cataloghttp "github.com/dwikikusuma/quickcart/internal/catalog/infra/httpapi"
	"github.com/dwikikusuma/quickcart/internal/metrics"
	sessionapp "github.com/dwikikusuma/quickcart/internal/session/app"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
	"github.com/dwikikusuma/quickcart/pkg/config"
	"github.com/dwikikusuma/quickcart/pkg/kvstore"
)

// Open builds an App from configuration. The returned close func releases
// the client state store.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, func() error, error) {
	store, err := kvstore.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open client state: %w", err)
	}
	app, err := NewWithStore(ctx, store, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return app, store.Close, nil
}

// NewWithStore wires the HTTP and stream adapters over an existing store.
func NewWithStore(ctx context.Context, store kvstore.Store, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	jar, err := apiclient.NewPersistentJar(ctx, store, cfg.APIBaseURL, log)
	if err != nil {
		return nil, err
	}

	opts := []apiclient.Option{
		apiclient.WithCookieJar(jar),
		apiclient.WithObserver(metrics.ObserveAPIRequest),
	}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, apiclient.WithTimeout(cfg.HTTPTimeout))
	}
	api, err := apiclient.New(cfg.APIBaseURL, opts...)
	if err != nil {
		return nil, err
	}

	sess, err := sessionapp.Open(ctx, store, sessionapp.WithClearedKeys(apiclient.CookieKey))
	if err != nil {
		return nil, err
	}
	log.Debug("client session loaded", slog.String("session_id", sess.ID()), slog.Bool("authenticated", sess.Authenticated()))

	return New(Deps{
		Session:  sess,
		Products: cataloghttp.NewProductClient(api),
		Auth:     authhttp.NewAuthClient(api),
		Cart:     carthttp.NewCartClient(api),
		Stream:   sse.NewSource(api, log),
		Cookies:  jar,
		Logger:   log,
	}), nil
}
