package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository is an append-only order log.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []order.Order
}

// NewOrderRepository creates an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.ID == o.ID {
			return errors.Errorf("order %q already exists", o.ID)
		}
	}
	c := *o
	c.Lines = slices.Clone(o.Lines)
	r.orders = append(r.orders, c)
	return nil
}

func (r *OrderRepository) ListByOwner(_ context.Context, owner string, status order.Status) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []order.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		o := r.orders[i]
		if o.Owner != owner || (status != "" && o.Status != status) {
			continue
		}
		o.Lines = slices.Clone(o.Lines)
		out = append(out, o)
	}
	return out, nil
}
