package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/favorites"
)

var _ favorites.Repository = (*FavoritesRepository)(nil)

// FavoritesRepository keeps favorites in a map keyed by owner.
type FavoritesRepository struct {
	owners ownerLocks

	mu   sync.RWMutex
	data map[string]*favorites.Favorites
}

// NewFavoritesRepository creates an empty FavoritesRepository.
func NewFavoritesRepository() *FavoritesRepository {
	return &FavoritesRepository{data: make(map[string]*favorites.Favorites)}
}

func (r *FavoritesRepository) Get(_ context.Context, owner string) (*favorites.Favorites, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.data[owner]; ok {
		return f.Clone(), nil
	}
	return &favorites.Favorites{}, nil
}

func (r *FavoritesRepository) Update(ctx context.Context, owner string, fn func(*favorites.Favorites) error) (*favorites.Favorites, error) {
	unlock := r.owners.lock(owner)
	defer unlock()

	f, err := r.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(f); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.data[owner] = f.Clone()
	r.mu.Unlock()
	return f, nil
}
