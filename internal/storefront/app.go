// Package storefront is the client's application root: it owns the
// session, the product list, the cart view model and the cart stream, and
// applies the startup, logout and error rules across them.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	authapp "github.com/dwikikusuma/quickcart/internal/auth/app"
	cartapp "github.com/dwikikusuma/quickcart/internal/cart/app"
	catalogapp "github.com/dwikikusuma/quickcart/internal/catalog/app"
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
	sessionapp "github.com/dwikikusuma/quickcart/internal/session/app"
	session "github.com/dwikikusuma/quickcart/internal/session/domain"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

// CookieResetter forgets the backend's login cookies.
type CookieResetter interface {
	Reset()
}

type Deps struct {
	Session  *sessionapp.Provider
	Products catalogapp.ProductSource
	Auth     authapp.Authenticator
	Cart     cartapp.RemoteCart
	Stream   cartapp.SnapshotSource
	Cookies  CookieResetter
	Logger   *slog.Logger
}

type App struct {
	session *sessionapp.Provider
	catalog *catalogapp.Service
	auth    *authapp.Service
	cart    *cartapp.ViewModel
	stream  *cartapp.Subscriber
	cookies CookieResetter
	log     *slog.Logger

	mu       sync.RWMutex
	products []catalog.Product
	initErr  *InitError
}

func New(d Deps) *App {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	vm := cartapp.NewViewModel(d.Cart, d.Session.ID())
	return &App{
		session: d.Session,
		catalog: catalogapp.NewService(d.Products),
		auth:    authapp.NewService(d.Auth, d.Session),
		cart:    vm,
		stream:  cartapp.NewSubscriber(d.Stream, vm, log),
		cookies: d.Cookies,
		log:     log,
	}
}

func (a *App) Session() session.State { return a.session.State() }

func (a *App) Cart() *cartapp.ViewModel { return a.cart }

func (a *App) Stream() *cartapp.Subscriber { return a.stream }

// Products is the list from the last successful Initialize.
func (a *App) Products() []catalog.Product {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.products
}

func (a *App) InitErr() *InitError {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.initErr
}

// Initialize loads products and the cart together. It does nothing while
// logged out. A rejected login logs the client out and returns
// ErrLoggedOut; any other failure is kept and returned as *InitError.
func (a *App) Initialize(ctx context.Context) error {
	if !a.session.Authenticated() {
		return nil
	}

	var products []catalog.Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.catalog.ListProducts(gctx)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		products = p
		return nil
	})
	g.Go(func() error {
		return a.cart.Load(gctx)
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, apiclient.ErrAuth) {
			a.forceLogout(ctx, err)
			return fmt.Errorf("%w: %w", ErrLoggedOut, err)
		}
		ie := &InitError{Message: initMessage(err), Err: err}
		a.mu.Lock()
		a.initErr = ie
		a.mu.Unlock()
		a.log.Error("initialization failed", slog.Any("err", err))
		return ie
	}

	a.mu.Lock()
	a.products = products
	a.initErr = nil
	a.mu.Unlock()
	a.log.Info("storefront initialized", slog.Int("products", len(products)), slog.Int("cart_items", a.cart.ItemCount()))
	return nil
}

// Retry repeats Initialize on the user's request.
func (a *App) Retry(ctx context.Context) error {
	return a.Initialize(ctx)
}

// Connect (re)opens the cart stream for the current session, closing any
// previous one first. The stream lives until ctx ends, Disconnect, or
// logout.
func (a *App) Connect(ctx context.Context) error {
	if !a.session.Authenticated() {
		return ErrNotLoggedIn
	}
	a.stream.Close()
	return a.stream.Start(ctx, a.session.ID())
}

// Reconnect opens the stream again if it has ended. A live stream is left
// alone.
func (a *App) Reconnect(ctx context.Context) error {
	if !a.session.Authenticated() {
		return ErrNotLoggedIn
	}
	err := a.stream.Start(ctx, a.session.ID())
	if errors.Is(err, cartapp.ErrAlreadyStarted) {
		return nil
	}
	return err
}

func (a *App) Disconnect() {
	a.stream.Close()
}

// WaitStream blocks until the cart stream ends or ctx is done (nil). A
// stream refused for authentication logs the client out.
func (a *App) WaitStream(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-a.stream.Done():
	}
	if ctx.Err() != nil {
		return nil
	}

	err := a.stream.Err()
	switch {
	case err == nil:
		return ErrStreamEnded
	case errors.Is(err, apiclient.ErrAuth):
		a.forceLogout(context.WithoutCancel(ctx), err)
		return fmt.Errorf("%w: %w", ErrLoggedOut, err)
	default:
		return fmt.Errorf("%w: %w", ErrStreamEnded, err)
	}
}

// Login authenticates and records the login. The caller decides when to
// Initialize and Connect.
func (a *App) Login(ctx context.Context, username, password string) (string, error) {
	name, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return "", err
	}
	a.log.Info("logged in", slog.String("user", name))
	return name, nil
}

func (a *App) Register(ctx context.Context, username, email, password string) (string, error) {
	return a.auth.Register(ctx, username, email, password)
}

// Logout is the user's own logout: the stream closes, the cart empties and
// every persisted trace of the login goes, the session id included.
func (a *App) Logout(ctx context.Context) error {
	a.stream.Close()
	a.reset()
	if err := a.session.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.log.Info("logged out")
	return nil
}

// forceLogout handles a login the backend no longer accepts. The session
// id survives.
func (a *App) forceLogout(ctx context.Context, cause error) {
	a.log.Warn("login rejected by backend, logging out", slog.Any("err", cause))
	a.stream.Close()
	a.reset()
	if err := a.session.ForceLogout(ctx); err != nil {
		a.log.Error("clear session state", slog.Any("err", err))
	}
}

func (a *App) reset() {
	a.cart.Reset()
	if a.cookies != nil {
		a.cookies.Reset()
	}
	a.mu.Lock()
	a.products = nil
	a.initErr = nil
	a.mu.Unlock()
}

func (a *App) AddToCart(ctx context.Context, id catalog.ProductID) error {
	return a.intent(ctx, "Failed to add item to cart. Please try again.", func() error {
		return a.cart.AddToCart(ctx, id)
	})
}

func (a *App) Increase(ctx context.Context, id catalog.ProductID) error {
	return a.intent(ctx, "Failed to update quantity", func() error {
		return a.cart.Increase(ctx, id)
	})
}

func (a *App) Decrease(ctx context.Context, id catalog.ProductID) error {
	return a.intent(ctx, "Failed to update quantity", func() error {
		return a.cart.Decrease(ctx, id)
	})
}

func (a *App) Remove(ctx context.Context, id catalog.ProductID) error {
	return a.intent(ctx, "Failed to remove item", func() error {
		return a.cart.Remove(ctx, id)
	})
}

func (a *App) intent(ctx context.Context, alert string, do func() error) error {
	if !a.session.Authenticated() {
		return ErrNotLoggedIn
	}
	err := do()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apiclient.ErrAuth):
		a.forceLogout(context.WithoutCancel(ctx), err)
		return fmt.Errorf("%w: %w", ErrLoggedOut, err)
	default:
		a.log.Error("cart action failed", slog.Any("err", err))
		return &Alert{Message: alert, Err: err}
	}
}
