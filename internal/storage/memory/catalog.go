// Package memory provides process-local implementations of the storefront
// repositories. State is lost on restart.
package memory

import (
	"context"
	"slices"

	"github.com/xenking/storefront/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

// Catalog is a read-only product list.
type Catalog struct {
	products []product.Product
	byID     map[string]int
}

// NewCatalog indexes products, keeping their order.
func NewCatalog(products []product.Product) *Catalog {
	c := &Catalog{
		products: slices.Clone(products),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c
}

// List returns all products in catalog order.
func (c *Catalog) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(c.products), nil
}

// GetByID returns product.ErrNotFound for unknown ids.
func (c *Catalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := c.products[i]
	return &p, nil
}

// GetByIDs returns the known products among ids. Unknown ids are skipped.
func (c *Catalog) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[id]; ok {
			out = append(out, c.products[i])
		}
	}
	return out, nil
}
