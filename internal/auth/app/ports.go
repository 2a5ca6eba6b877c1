package app

import (
	"context"

	"github.com/dwikikusuma/quickcart/internal/auth/domain"
)

type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error)
	Register(ctx context.Context, reg domain.Registration) (domain.RegisterResult, error)
}

// SessionMarker records a successful login in the client's session state.
type SessionMarker interface {
	MarkLoggedIn(ctx context.Context, username string) error
}
