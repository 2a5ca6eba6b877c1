package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dwikikusuma/quickcart/internal/cart/app"
	"github.com/dwikikusuma/quickcart/internal/cart/domain"
	catalog "github.com/dwikikusuma/quickcart/internal/catalog/domain"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

const (
	routeCart   = "/cart/{sessionId}"
	routeAdd    = "/cart/add"
	routeRemove = "/cart/remove"
)

type addRequest struct {
	SessionID string            `json:"sessionId"`
	ProductID catalog.ProductID `json:"productId"`
	Quantity  int               `json:"quantity"`
}

// removeRequest sends quantity as null to drop the whole line.
type removeRequest struct {
	SessionID string            `json:"sessionId"`
	ProductID catalog.ProductID `json:"productId"`
	Quantity  *int              `json:"quantity"`
}

// CartClient implements app.RemoteCart over the backend's REST API.
type CartClient struct {
	api *apiclient.Client
}

var _ app.RemoteCart = (*CartClient)(nil)

func NewCartClient(api *apiclient.Client) *CartClient {
	return &CartClient{api: api}
}

func (c *CartClient) FetchCart(ctx context.Context, sessionID string) (domain.Cart, error) {
	if sessionID == "" {
		return domain.Cart{}, app.ErrInvalidInput
	}
	cart, err := apiclient.Get[domain.Cart](ctx, c.api, routeCart, sessionID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("fetch cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

func (c *CartClient) AddOrIncrease(ctx context.Context, sessionID string, productID catalog.ProductID, quantity int) error {
	if sessionID == "" || productID == "" {
		return app.ErrInvalidInput
	}
	if quantity < 1 {
		quantity = 1
	}
	req := addRequest{SessionID: sessionID, ProductID: productID, Quantity: quantity}
	if err := c.api.Do(ctx, http.MethodPut, routeAdd, req, nil); err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (c *CartClient) DecreaseOrRemove(ctx context.Context, sessionID string, productID catalog.ProductID, quantity *int) error {
	if sessionID == "" || productID == "" {
		return app.ErrInvalidInput
	}
	req := removeRequest{SessionID: sessionID, ProductID: productID, Quantity: quantity}
	if err := c.api.Do(ctx, http.MethodDelete, routeRemove, req, nil); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}
