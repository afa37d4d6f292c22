package bag

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

func newTestProduct(id string, price int64) product.Product {
	return product.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(price),
		Currency: "INR",
	}
}

func TestBag_AddSameProductAccumulates(t *testing.T) {
	var b Bag
	p := newTestProduct("aata_1", 80)

	b.Add(p, 1)
	b.Add(p, 2)

	require.Len(t, b.Lines, 1)
	assert.Equal(t, 3, b.Lines[0].Quantity)
}

func TestBag_AddKeepsInsertionOrder(t *testing.T) {
	var b Bag
	b.Add(newTestProduct("b", 10), 1)
	b.Add(newTestProduct("a", 10), 1)
	b.Add(newTestProduct("b", 10), 1)

	require.Len(t, b.Lines, 2)
	assert.Equal(t, "b", b.Lines[0].Product.ID)
	assert.Equal(t, "a", b.Lines[1].Product.ID)
}

func TestBag_RemoveMissingIsNoop(t *testing.T) {
	var b Bag
	b.Add(newTestProduct("aata_1", 80), 2)
	before := b.Clone()

	b.Remove("missing")

	assert.Equal(t, before.Lines, b.Lines)
}

func TestBag_Remove(t *testing.T) {
	var b Bag
	b.Add(newTestProduct("a", 10), 1)
	b.Add(newTestProduct("b", 20), 1)

	b.Remove("a")

	require.Len(t, b.Lines, 1)
	assert.Equal(t, "b", b.Lines[0].Product.ID)
}

func TestBag_SetQuantity(t *testing.T) {
	var b Bag
	b.Add(newTestProduct("a", 10), 1)

	b.SetQuantity("a", 5)
	b.SetQuantity("missing", 7)

	require.Len(t, b.Lines, 1)
	assert.Equal(t, 5, b.Lines[0].Quantity)
}

func TestBag_SetQuantityHasNoLowerBound(t *testing.T) {
	var b Bag
	b.Add(newTestProduct("a", 10), 3)

	b.SetQuantity("a", 0)

	line, ok := b.Line("a")
	require.True(t, ok)
	assert.Equal(t, 0, line.Quantity)
}

func TestBag_Total(t *testing.T) {
	var b Bag
	b.Add(newTestProduct("aata_1", 80), 2)
	b.Add(newTestProduct("dal_1", 120), 1)

	assert.True(t, decimal.NewFromInt(280).Equal(b.Total()), "got %s", b.Total())
	assert.Equal(t, 3, b.Count())
	assert.Equal(t, "INR", b.Currency())
}

func TestBag_TotalDecimalPrices(t *testing.T) {
	var b Bag
	p := newTestProduct("x", 0)
	p.Price = decimal.RequireFromString("12.75")
	b.Add(p, 2)

	assert.True(t, decimal.RequireFromString("25.5").Equal(b.Total()))
}

func TestBag_EmptyTotal(t *testing.T) {
	var b Bag
	assert.True(t, b.Total().IsZero())
	assert.Empty(t, b.Currency())
}
