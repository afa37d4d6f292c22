package favorites

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// Query filters and orders the favorites screen.
type Query struct {
	Category string
	Sort     product.SortOrder
}

// Service manages favorites against the catalog.
type Service struct {
	favorites Repository
	products  product.Repository
}

// NewService creates a favorites Service.
func NewService(favorites Repository, products product.Repository) *Service {
	return &Service{favorites: favorites, products: products}
}

// Toggle flips productID in the owner's favorites and reports the new
// membership.
func (s *Service) Toggle(ctx context.Context, owner, productID string) (bool, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return false, errors.Wrapf(err, "get product %s", productID)
	}

	var added bool
	if _, err := s.favorites.Update(ctx, owner, func(f *Favorites) error {
		added = f.Toggle(*p)
		return nil
	}); err != nil {
		return false, errors.Wrap(err, "toggle favorite")
	}
	return added, nil
}

// List returns the owner's favorites filtered by q.
func (s *Service) List(ctx context.Context, owner string, q Query) ([]product.Product, error) {
	f, err := s.favorites.Get(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "get favorites")
	}
	return product.Search(f.Items, product.Query{Category: q.Category, Sort: q.Sort}), nil
}

// Contains reports whether productID is one of the owner's favorites.
func (s *Service) Contains(ctx context.Context, owner, productID string) (bool, error) {
	f, err := s.favorites.Get(ctx, owner)
	if err != nil {
		return false, errors.Wrap(err, "get favorites")
	}
	return f.Contains(productID), nil
}
