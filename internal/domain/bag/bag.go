// Package bag implements the shopping bag: an insertion-ordered set of lines
// keyed by product id, and the service that guards mutations on it.
package bag

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Line is a product snapshot plus a quantity.
type Line struct {
	Product  product.Product
	Quantity int
}

// Subtotal returns price × quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Bag holds the lines of one owner. The zero value is an empty bag.
//
// The reducers below have no error channel: they either apply or no-op.
// Quantity bounds are enforced by Service, not here.
type Bag struct {
	Lines []Line
}

func (b *Bag) index(id string) int {
	return slices.IndexFunc(b.Lines, func(l Line) bool { return l.Product.ID == id })
}

// Add merges quantity into the line for p, or appends a new line.
func (b *Bag) Add(p product.Product, quantity int) {
	if i := b.index(p.ID); i >= 0 {
		b.Lines[i].Quantity += quantity
		return
	}
	b.Lines = append(b.Lines, Line{Product: p, Quantity: quantity})
}

// Remove drops the line for id. Absent ids are ignored.
func (b *Bag) Remove(id string) {
	b.Lines = slices.DeleteFunc(b.Lines, func(l Line) bool { return l.Product.ID == id })
}

// SetQuantity overwrites the quantity on the line for id. Absent ids are
// ignored.
func (b *Bag) SetQuantity(id string, quantity int) {
	if i := b.index(id); i >= 0 {
		b.Lines[i].Quantity = quantity
	}
}

// Clear removes every line.
func (b *Bag) Clear() {
	b.Lines = nil
}

// Line returns the line for id.
func (b *Bag) Line(id string) (Line, bool) {
	if i := b.index(id); i >= 0 {
		return b.Lines[i], true
	}
	return Line{}, false
}

// Total returns the sum of line subtotals.
func (b *Bag) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count returns the total number of units across lines.
func (b *Bag) Count() int {
	n := 0
	for _, l := range b.Lines {
		n += l.Quantity
	}
	return n
}

// Currency returns the currency of the bag's lines, or "" for an empty bag.
func (b *Bag) Currency() string {
	if len(b.Lines) == 0 {
		return ""
	}
	return b.Lines[0].Product.Currency
}

// Clone returns a deep copy of the bag.
func (b *Bag) Clone() *Bag {
	return &Bag{Lines: slices.Clone(b.Lines)}
}

// Repository stores one bag per owner.
type Repository interface {
	// Get returns the owner's bag, or an empty bag when none exists.
	Get(ctx context.Context, owner string) (*Bag, error)
	// Update loads the owner's bag, applies fn and saves the result.
	// Updates for one owner are serialized. When fn returns an error nothing
	// is saved.
	Update(ctx context.Context, owner string, fn func(*Bag) error) (*Bag, error)
}
