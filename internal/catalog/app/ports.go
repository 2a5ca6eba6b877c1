package app

import (
	"context"

	"github.com/dwikikusuma/quickcart/internal/catalog/domain"
)

type ProductSource interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}
