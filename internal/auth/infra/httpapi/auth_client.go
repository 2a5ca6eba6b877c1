package httpapi

import (
	"context"
	"net/http"

	"github.com/dwikikusuma/quickcart/internal/auth/app"
	"github.com/dwikikusuma/quickcart/internal/auth/domain"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

const (
	routeLogin    = "/auth/login"
	routeRegister = "/auth/register"
)

type AuthClient struct {
	api *apiclient.Client
}

var _ app.Authenticator = (*AuthClient)(nil)

func NewAuthClient(api *apiclient.Client) *AuthClient {
	return &AuthClient{api: api}
}

func (c *AuthClient) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResult, error) {
	return apiclient.Send[domain.LoginResult](ctx, c.api, http.MethodPost, routeLogin, creds)
}

func (c *AuthClient) Register(ctx context.Context, reg domain.Registration) (domain.RegisterResult, error) {
	return apiclient.Send[domain.RegisterResult](ctx, c.api, http.MethodPost, routeRegister, reg)
}
