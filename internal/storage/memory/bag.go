package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/bag"
)

var _ bag.Repository = (*BagRepository)(nil)

// BagRepository keeps bags in a map keyed by owner.
type BagRepository struct {
	owners ownerLocks

	mu   sync.RWMutex
	bags map[string]*bag.Bag
}

// NewBagRepository creates an empty BagRepository.
func NewBagRepository() *BagRepository {
	return &BagRepository{bags: make(map[string]*bag.Bag)}
}

// Get returns a copy of the owner's bag. Unknown owners get an empty bag.
func (r *BagRepository) Get(_ context.Context, owner string) (*bag.Bag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.bags[owner]; ok {
		return b.Clone(), nil
	}
	return &bag.Bag{}, nil
}

// Update applies fn to a copy of the bag and stores it if fn succeeds.
func (r *BagRepository) Update(ctx context.Context, owner string, fn func(*bag.Bag) error) (*bag.Bag, error) {
	unlock := r.owners.lock(owner)
	defer unlock()

	b, err := r.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if len(b.Lines) == 0 {
		delete(r.bags, owner)
	} else {
		r.bags[owner] = b.Clone()
	}
	r.mu.Unlock()
	return b, nil
}
