package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/quickcart/internal/catalog/domain"
)

var (
	ErrNoProducts = errors.New("no products data received")
	ErrNotFound   = errors.New("product not found")
)

type Service struct {
	source ProductSource
}

func NewService(source ProductSource) *Service {
	return &Service{
		source: source,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.source.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		return nil, ErrNoProducts
	}
	return products, nil
}

// FilterByCategory keeps products whose category matches, ignoring case.
// An empty category keeps everything.
func FilterByCategory(products []domain.Product, category string) []domain.Product {
	category = strings.TrimSpace(category)
	if category == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

func Find(products []domain.Product, id domain.ProductID) (domain.Product, error) {
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrNotFound
}

// Categories lists distinct categories in first-seen order.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		key := strings.ToLower(p.Category)
		if p.Category == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
