// Package favorites keeps the per-owner list of products marked for later.
package favorites

import (
	"context"
	"slices"

	"github.com/xenking/storefront/internal/domain/product"
)

// Favorites is an insertion-ordered list of products with unique ids.
type Favorites struct {
	Items []product.Product
}

// Toggle adds p when absent and removes it when present. It reports whether
// p is a favorite afterwards.
func (f *Favorites) Toggle(p product.Product) bool {
	if i := f.index(p.ID); i >= 0 {
		f.Items = slices.Delete(f.Items, i, i+1)
		return false
	}
	f.Items = append(f.Items, p)
	return true
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(id string) bool {
	return f.index(id) >= 0
}

// IDs returns product ids in insertion order.
func (f *Favorites) IDs() []string {
	ids := make([]string, len(f.Items))
	for i, p := range f.Items {
		ids[i] = p.ID
	}
	return ids
}

// Clone returns a deep copy.
func (f *Favorites) Clone() *Favorites {
	return &Favorites{Items: slices.Clone(f.Items)}
}

func (f *Favorites) index(id string) int {
	return slices.IndexFunc(f.Items, func(p product.Product) bool { return p.ID == id })
}

// Repository stores favorites per owner.
type Repository interface {
	Get(ctx context.Context, owner string) (*Favorites, error)
	// Update runs fn on the owner's favorites and persists the result.
	// Calls for the same owner are serialized.
	Update(ctx context.Context, owner string, fn func(*Favorites) error) (*Favorites, error)
}
