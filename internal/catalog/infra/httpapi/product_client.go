package httpapi

import (
	"context"
	"fmt"

	"github.com/dwikikusuma/quickcart/internal/catalog/domain"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

const routeProducts = "/products"

type ProductClient struct {
	api *apiclient.Client
}

func NewProductClient(api *apiclient.Client) *ProductClient {
	return &ProductClient{api: api}
}

// ListProducts returns nil (not an empty slice) when the server answers
// with an empty or null body.
func (c *ProductClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := apiclient.Get[[]domain.Product](ctx, c.api, routeProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
