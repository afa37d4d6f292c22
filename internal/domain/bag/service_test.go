package bag

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]product.Product
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ []string) ([]product.Product, error) {
	return nil, nil
}

type mockBagRepo struct {
	mu   sync.Mutex
	bags map[string]*Bag
	err  error
}

func (m *mockBagRepo) Get(_ context.Context, owner string) (*Bag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bags[owner]; ok {
		return b.Clone(), nil
	}
	return &Bag{}, m.err
}

func (m *mockBagRepo) Update(_ context.Context, owner string, fn func(*Bag) error) (*Bag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	b := &Bag{}
	if cur, ok := m.bags[owner]; ok {
		b = cur.Clone()
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	m.bags[owner] = b
	return b.Clone(), nil
}

// --- Helpers ---

func newTestService(products ...product.Product) (*Service, *mockBagRepo) {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	repo := &mockBagRepo{bags: make(map[string]*Bag)}
	return NewService(repo, &mockProductRepo{byID: byID}), repo
}

// --- Tests ---

func TestService_AddItem(t *testing.T) {
	svc, _ := newTestService(newTestProduct("aata_1", 80), newTestProduct("dal_1", 120))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device:1", "aata_1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "device:1", "dal_1", 1)
	require.NoError(t, err)
	b, err := svc.AddItem(ctx, "device:1", "aata_1", 1)
	require.NoError(t, err)

	require.Len(t, b.Lines, 2)
	assert.Equal(t, 2, b.Lines[0].Quantity)
	assert.Equal(t, "280", b.Total().String())
}

func TestService_AddItemInvalidQuantity(t *testing.T) {
	svc, _ := newTestService(newTestProduct("aata_1", 80))

	_, err := svc.AddItem(context.Background(), "device:1", "aata_1", 0)

	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "aata_1", iqErr.ProductID)
}

func TestService_QuantityUpperBound(t *testing.T) {
	svc, _ := newTestService(newTestProduct("aata_1", 80))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device:1", "aata_1", math.MaxInt)
	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)

	_, err = svc.AddItem(ctx, "device:1", "aata_1", MaxQuantity-1)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "device:1", "aata_1", 2)
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, MaxQuantity+1, iqErr.Quantity)

	_, err = svc.AddItem(ctx, "device:1", "aata_1", math.MaxInt)
	require.ErrorAs(t, err, &iqErr)

	b, err := svc.Increment(ctx, "device:1", "aata_1")
	require.NoError(t, err)
	line, _ := b.Line("aata_1")
	assert.Equal(t, MaxQuantity, line.Quantity)

	_, err = svc.Increment(ctx, "device:1", "aata_1")
	require.ErrorAs(t, err, &iqErr)

	_, err = svc.SetQuantity(ctx, "device:1", "aata_1", MaxQuantity+1)
	require.ErrorAs(t, err, &iqErr)

	b, err = svc.Get(ctx, "device:1")
	require.NoError(t, err)
	line, _ = b.Line("aata_1")
	assert.Equal(t, MaxQuantity, line.Quantity)
	assert.True(t, b.Total().IsPositive())
}

func TestService_AddItemUnknownProduct(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.AddItem(context.Background(), "device:1", "missing", 1)

	require.ErrorIs(t, err, product.ErrNotFound)
	assert.Empty(t, repo.bags)
}

func TestService_AddItemCurrencyMismatch(t *testing.T) {
	usd := newTestProduct("imported", 5)
	usd.Currency = "USD"
	svc, _ := newTestService(newTestProduct("aata_1", 80), usd)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device:1", "aata_1", 1)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "device:1", "imported", 1)
	var cmErr *CurrencyMismatchError
	require.ErrorAs(t, err, &cmErr)
	assert.Equal(t, "INR", cmErr.Want)
	assert.Equal(t, "USD", cmErr.Got)
}

func TestService_SetQuantityRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService(newTestProduct("aata_1", 80))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device:1", "aata_1", 2)
	require.NoError(t, err)

	for _, q := range []int{0, -1} {
		_, err = svc.SetQuantity(ctx, "device:1", "aata_1", q)
		var iqErr *InvalidQuantityError
		require.ErrorAs(t, err, &iqErr)
	}

	b, err := svc.Get(ctx, "device:1")
	require.NoError(t, err)
	line, ok := b.Line("aata_1")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
}

func TestService_SetQuantityMissingLineIsNoop(t *testing.T) {
	svc, _ := newTestService(newTestProduct("aata_1", 80))

	b, err := svc.SetQuantity(context.Background(), "device:1", "aata_1", 4)
	require.NoError(t, err)
	assert.Empty(t, b.Lines)
}

func TestService_DecrementStopsAtOne(t *testing.T) {
	svc, _ := newTestService(newTestProduct("aata_1", 80))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device:1", "aata_1", 1)
	require.NoError(t, err)

	b, err := svc.Decrement(ctx, "device:1", "aata_1")
	require.NoError(t, err)

	line, ok := b.Line("aata_1")
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestService_IncrementDecrement(t *testing.T) {
	svc, _ := newTestService(newTestProduct("aata_1", 80))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device:1", "aata_1", 1)
	require.NoError(t, err)

	_, err = svc.Increment(ctx, "device:1", "aata_1")
	require.NoError(t, err)
	b, err := svc.Increment(ctx, "device:1", "aata_1")
	require.NoError(t, err)
	line, _ := b.Line("aata_1")
	assert.Equal(t, 3, line.Quantity)

	b, err = svc.Decrement(ctx, "device:1", "aata_1")
	require.NoError(t, err)
	line, _ = b.Line("aata_1")
	assert.Equal(t, 2, line.Quantity)
}

func TestService_RemoveAndClear(t *testing.T) {
	svc, _ := newTestService(newTestProduct("a", 10), newTestProduct("b", 20))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device:1", "a", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "device:1", "b", 1)
	require.NoError(t, err)

	b, err := svc.Remove(ctx, "device:1", "missing")
	require.NoError(t, err)
	assert.Len(t, b.Lines, 2)

	b, err = svc.Remove(ctx, "device:1", "a")
	require.NoError(t, err)
	assert.Len(t, b.Lines, 1)

	require.NoError(t, svc.Clear(ctx, "device:1"))
	b, err = svc.Get(ctx, "device:1")
	require.NoError(t, err)
	assert.Empty(t, b.Lines)
}

func TestService_OwnersAreIsolated(t *testing.T) {
	svc, _ := newTestService(newTestProduct("a", 10))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user:1", "a", 1)
	require.NoError(t, err)

	b, err := svc.Get(ctx, "user:2")
	require.NoError(t, err)
	assert.Empty(t, b.Lines)
}

func TestService_RepositoryError(t *testing.T) {
	svc, repo := newTestService(newTestProduct("a", 10))
	repo.err = errors.New("db down")

	_, err := svc.AddItem(context.Background(), "user:1", "a", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add to bag")
}
