package product

import (
	"context"
	"strings"

	"medusa-storefront/internal/domain"
)

const defaultFeaturedCount = 3

// Catalog is the read side of the commerce backend.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
	ListCollections(ctx context.Context) ([]domain.ProductCollection, error)
}

type Service struct {
	catalog Catalog
}

func New(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.catalog.ListProducts(ctx)
}

// Get looks a product up by handle; a blank handle is domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, handle string) (*domain.Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, domain.ErrNotFound
	}
	return s.catalog.ProductByHandle(ctx, handle)
}

func (s *Service) Collections(ctx context.Context) ([]domain.ProductCollection, error) {
	return s.catalog.ListCollections(ctx)
}

// Featured returns the first n products flagged as featured. n <= 0 selects
// the storefront default of three.
func (s *Service) Featured(ctx context.Context, n int) ([]domain.Product, error) {
	if n <= 0 {
		n = defaultFeaturedCount
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) > n {
		products = products[:n]
	}
	out := make([]domain.Product, len(products))
	for i, p := range products {
		p.Featured = true
		out[i] = p
	}
	return out, nil
}
