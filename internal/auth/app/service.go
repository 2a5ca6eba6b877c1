package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/quickcart/internal/auth/domain"
)

const defaultRegisterMessage = "Registration successful"

var ErrInvalidInput = errors.New("missing required field")

type Service struct {
	auth    Authenticator
	session SessionMarker
}

func NewService(auth Authenticator, session SessionMarker) *Service {
	return &Service{auth: auth, session: session}
}

// Login authenticates and marks the session logged in. It returns the
// username the session was marked with.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	res, err := s.auth.Login(ctx, domain.Credentials{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	name := strings.TrimSpace(res.Username)
	if name == "" {
		name = username
	}
	if err := s.session.MarkLoggedIn(ctx, name); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return name, nil
}

// Register creates an account. It does not log the user in.
func (s *Service) Register(ctx context.Context, username, email, password string) (string, error) {
	reg := domain.Registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return "", fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}

	res, err := s.auth.Register(ctx, reg)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if res.Message == "" {
		return defaultRegisterMessage, nil
	}
	return res.Message, nil
}
