package bag

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// MaxQuantity is the largest quantity a single line may hold.
const MaxQuantity = 999

// InvalidQuantityError indicates a line quantity outside [1, MaxQuantity].
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for product %s (got %d)", MaxQuantity, e.ProductID, e.Quantity)
}

func validQuantity(quantity int) bool {
	return quantity >= 1 && quantity <= MaxQuantity
}

// CurrencyMismatchError indicates a product priced in a different currency
// than the lines already in the bag.
type CurrencyMismatchError struct {
	ProductID string
	Want      string
	Got       string
}

func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("product %s is priced in %s, bag is in %s", e.ProductID, e.Got, e.Want)
}

// Service guards bag mutations the way the storefront screens did: quantities
// below one never reach the reducers.
type Service struct {
	bags     Repository
	products product.Repository
}

// NewService creates a bag Service.
func NewService(bags Repository, products product.Repository) *Service {
	return &Service{bags: bags, products: products}
}

// Get returns the owner's bag.
func (s *Service) Get(ctx context.Context, owner string) (*Bag, error) {
	b, err := s.bags.Get(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "get bag")
	}
	return b, nil
}

// AddItem adds quantity units of a catalog product, merging with an existing
// line.
func (s *Service) AddItem(ctx context.Context, owner, productID string, quantity int) (*Bag, error) {
	if !validQuantity(quantity) {
		return nil, &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %s", productID)
	}

	b, err := s.bags.Update(ctx, owner, func(b *Bag) error {
		if cur := b.Currency(); cur != "" && cur != p.Currency {
			return &CurrencyMismatchError{ProductID: p.ID, Want: cur, Got: p.Currency}
		}
		if l, ok := b.Line(p.ID); ok && l.Quantity > MaxQuantity-quantity {
			return &InvalidQuantityError{ProductID: p.ID, Quantity: l.Quantity + quantity}
		}
		b.Add(*p, quantity)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "add to bag")
	}
	return b, nil
}

// SetQuantity overwrites a line's quantity. Quantities outside
// [1, MaxQuantity] are rejected and leave the line unchanged. Absent lines are
// a no-op.
func (s *Service) SetQuantity(ctx context.Context, owner, productID string, quantity int) (*Bag, error) {
	if !validQuantity(quantity) {
		return nil, &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}

	b, err := s.bags.Update(ctx, owner, func(b *Bag) error {
		b.SetQuantity(productID, quantity)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "set quantity")
	}
	return b, nil
}

// Increment adds one unit to an existing line. A line at MaxQuantity is
// rejected.
func (s *Service) Increment(ctx context.Context, owner, productID string) (*Bag, error) {
	b, err := s.bags.Update(ctx, owner, func(b *Bag) error {
		l, ok := b.Line(productID)
		if !ok {
			return nil
		}
		if l.Quantity >= MaxQuantity {
			return &InvalidQuantityError{ProductID: productID, Quantity: l.Quantity + 1}
		}
		b.SetQuantity(productID, l.Quantity+1)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "increment quantity")
	}
	return b, nil
}

// Decrement removes one unit from an existing line. A line at quantity one
// stays at one; use Remove to drop it.
func (s *Service) Decrement(ctx context.Context, owner, productID string) (*Bag, error) {
	b, err := s.bags.Update(ctx, owner, func(b *Bag) error {
		if l, ok := b.Line(productID); ok && l.Quantity > 1 {
			b.SetQuantity(productID, l.Quantity-1)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decrement quantity")
	}
	return b, nil
}

// Remove drops a line. Absent lines are a no-op.
func (s *Service) Remove(ctx context.Context, owner, productID string) (*Bag, error) {
	b, err := s.bags.Update(ctx, owner, func(b *Bag) error {
		b.Remove(productID)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "remove from bag")
	}
	return b, nil
}

// Clear empties the owner's bag.
func (s *Service) Clear(ctx context.Context, owner string) error {
	if _, err := s.bags.Update(ctx, owner, func(b *Bag) error {
		b.Clear()
		return nil
	}); err != nil {
		return errors.Wrap(err, "clear bag")
	}
	return nil
}
