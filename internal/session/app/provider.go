package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dwikikusuma/quickcart/internal/session/domain"
	"github.com/dwikikusuma/quickcart/pkg/kvstore"
)

var ErrInvalidUsername = errors.New("username cannot be empty")

// Provider owns the session identifier and the persisted login flags.
// The identifier is fixed for the Provider's lifetime.
type Provider struct {
	store kvstore.Store
	id    string

	// extraKeys are cleared alongside the login flags (e.g. cookies).
	extraKeys []string

	mu            sync.RWMutex
	authenticated bool
	username      string
}

type Option func(*Provider)

// WithClearedKeys names additional storage keys that belong to the login
// and are removed on both kinds of logout.
func WithClearedKeys(keys ...string) Option {
	return func(p *Provider) { p.extraKeys = append(p.extraKeys, keys...) }
}

// Open loads the persisted identifier, generating and storing a new random
// one when none exists.
func Open(ctx context.Context, store kvstore.Store, opts ...Option) (*Provider, error) {
	p := &Provider{store: store}
	for _, opt := range opts {
		opt(p)
	}

	id, ok, err := store.Get(ctx, domain.KeySessionID)
	if err != nil {
		return nil, fmt.Errorf("load session id: %w", err)
	}
	if !ok || strings.TrimSpace(id) == "" {
		id = uuid.NewString()
		if err := store.Set(ctx, domain.KeySessionID, id); err != nil {
			return nil, fmt.Errorf("persist session id: %w", err)
		}
	}
	p.id = id

	auth, _, err := store.Get(ctx, domain.KeyAuthenticated)
	if err != nil {
		return nil, fmt.Errorf("load auth flag: %w", err)
	}
	user, _, err := store.Get(ctx, domain.KeyUsername)
	if err != nil {
		return nil, fmt.Errorf("load username: %w", err)
	}
	p.authenticated = auth == "true"
	p.username = user

	return p, nil
}

func (p *Provider) ID() string { return p.id }

func (p *Provider) State() domain.State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.State{
		SessionID:     p.id,
		Authenticated: p.authenticated,
		Username:      p.username,
	}
}

func (p *Provider) Authenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.authenticated
}

func (p *Provider) MarkLoggedIn(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrInvalidUsername
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Set(ctx, domain.KeyAuthenticated, "true"); err != nil {
		return fmt.Errorf("persist auth flag: %w", err)
	}
	if err := p.store.Set(ctx, domain.KeyUsername, username); err != nil {
		return fmt.Errorf("persist username: %w", err)
	}
	p.authenticated = true
	p.username = username
	return nil
}

// Logout is the explicit, user-initiated logout. It clears the stored
// identifier together with the login flags, so the next Open starts a new
// session. ID keeps returning the old value until then.
func (p *Provider) Logout(ctx context.Context) error {
	keys := append([]string{domain.KeySessionID}, p.loginKeys()...)
	return p.clear(ctx, keys)
}

// ForceLogout follows a rejected request (401/403). The login flags go,
// the stored identifier stays.
func (p *Provider) ForceLogout(ctx context.Context) error {
	return p.clear(ctx, p.loginKeys())
}

func (p *Provider) loginKeys() []string {
	return append([]string{domain.KeyAuthenticated, domain.KeyUsername}, p.extraKeys...)
}

func (p *Provider) clear(ctx context.Context, keys []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authenticated = false
	p.username = ""
	if err := p.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear session state: %w", err)
	}
	return nil
}
