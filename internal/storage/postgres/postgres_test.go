//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/bag"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/favorites"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "storefront",
				"POSTGRES_PASSWORD": "storefront",
				"POSTGRES_DB":       "storefront",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := container.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())
	testPool, err = NewPool(ctx, dsn)
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	catalog, err := product.DecodeCatalog(db.Catalog)
	if err != nil {
		log.Fatalf("decode catalog: %v", err)
	}
	if err := NewProductRepository(testPool).SeedCatalog(ctx, catalog); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	return m.Run()
}

func TestProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(testPool)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 62)
	assert.Equal(t, "Sale", all[0].Category)

	p, err := repo.GetByID(ctx, all[3].ID)
	require.NoError(t, err)
	assert.Equal(t, all[3], *p)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, product.ErrNotFound)

	got, err := repo.GetByIDs(ctx, []string{all[5].ID, "missing", all[1].ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, all[5].ID, got[0].ID)
	assert.Equal(t, all[1].ID, got[1].ID)
}

func TestBagRepository(t *testing.T) {
	ctx := context.Background()
	products, err := NewProductRepository(testPool).List(ctx)
	require.NoError(t, err)
	repo := NewBagRepository(testPool)
	owner := "device:bag-test"

	b, err := repo.Get(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, b.Lines)

	_, err = repo.Update(ctx, owner, func(b *bag.Bag) error {
		b.Add(products[2], 2)
		b.Add(products[0], 1)
		return nil
	})
	require.NoError(t, err)

	b, err = repo.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, b.Lines, 2)
	assert.Equal(t, products[2].ID, b.Lines[0].Product.ID)
	assert.Equal(t, 2, b.Lines[0].Quantity)
	assert.True(t, products[2].Price.Equal(b.Lines[0].Product.Price))

	t.Run("FailedUpdateKeepsBag", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repo.Update(ctx, owner, func(b *bag.Bag) error {
			b.Clear()
			return boom
		})
		require.ErrorIs(t, err, boom)

		b, err := repo.Get(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, b.Lines, 2)
	})

	t.Run("ConcurrentUpdates", func(t *testing.T) {
		const n = 20
		owner := "device:bag-concurrent"
		var wg sync.WaitGroup
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, owner, func(b *bag.Bag) error {
					b.Add(products[0], 1)
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		b, err := repo.Get(ctx, owner)
		require.NoError(t, err)
		require.Len(t, b.Lines, 1)
		assert.Equal(t, n, b.Lines[0].Quantity)
	})
}

func TestFavoritesRepository(t *testing.T) {
	ctx := context.Background()
	products, err := NewProductRepository(testPool).List(ctx)
	require.NoError(t, err)
	repo := NewFavoritesRepository(testPool)
	owner := "user:fav-test"

	_, err = repo.Update(ctx, owner, func(f *favorites.Favorites) error {
		f.Toggle(products[4])
		f.Toggle(products[1])
		return nil
	})
	require.NoError(t, err)

	f, err := repo.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{products[4].ID, products[1].ID}, f.IDs())

	_, err = repo.Update(ctx, owner, func(f *favorites.Favorites) error {
		f.Toggle(products[4])
		return nil
	})
	require.NoError(t, err)

	f, err = repo.Get(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{products[1].ID}, f.IDs())
}

func TestCouponRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCouponRepository(testPool)

	require.NoError(t, repo.Upsert(ctx, coupon.Rule{
		Code:         "once",
		DiscountType: coupon.DiscountFixed,
		Value:        decimal.NewFromInt(10),
		Description:  "Ten off",
		MaxUses:      1,
	}))

	rule, err := repo.FindByCode(ctx, " Once ")
	require.NoError(t, err)
	assert.Equal(t, "ONCE", rule.Code)
	assert.Equal(t, coupon.DiscountFixed, rule.DiscountType)
	assert.True(t, decimal.NewFromInt(10).Equal(rule.Value))

	require.NoError(t, repo.IncrementUses(ctx, "ONCE"))
	require.ErrorIs(t, repo.IncrementUses(ctx, "ONCE"), coupon.ErrCouponUsageLimitReached)
	require.ErrorIs(t, repo.IncrementUses(ctx, "NOPE"), coupon.ErrInvalidCoupon)

	require.NoError(t, repo.ReleaseUse(ctx, "once"))
	require.NoError(t, repo.ReleaseUse(ctx, "once"))
	rule, err = repo.FindByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 0, rule.Uses)
	require.NoError(t, repo.IncrementUses(ctx, "ONCE"))

	_, err = repo.FindByCode(ctx, "NOPE")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)

	require.Error(t, repo.Upsert(ctx, coupon.Rule{Code: "BAD", DiscountType: "bogus"}))
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(testPool)
	owner := "user:order-test"
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	newOrder := func(id string, status order.Status, at time.Time) *order.Order {
		return &order.Order{
			ID:             id,
			Number:         "1234567",
			TrackingNumber: "IW0123456789",
			Owner:          owner,
			Lines: []order.Line{{
				ProductID: "1",
				Name:      "Aata",
				Price:     decimal.NewFromInt(80),
				Quantity:  2,
			}},
			Subtotal:      decimal.NewFromInt(160),
			DeliveryFee:   decimal.NewFromInt(15),
			Discount:      decimal.Zero,
			Total:         decimal.NewFromInt(175),
			Currency:      "INR",
			PaymentMethod: order.PaymentCOD,
			Status:        status,
			Address: order.Address{
				Name: "Jane Doe", Line1: "3 Newbridge Court", City: "Chino Hills",
				Region: "CA", PostalCode: "91709",
			},
			CreatedAt: at,
		}
	}

	require.NoError(t, repo.Create(ctx, newOrder("o-1", order.StatusDelivered, base)))
	require.NoError(t, repo.Create(ctx, newOrder("o-2", order.StatusProcessing, base.Add(time.Hour))))
	require.Error(t, repo.Create(ctx, newOrder("o-1", order.StatusDelivered, base)))

	all, err := repo.ListByOwner(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "o-2", all[0].ID)
	assert.Equal(t, "Chino Hills", all[0].Address.City)
	require.Len(t, all[0].Lines, 1)
	assert.True(t, decimal.NewFromInt(80).Equal(all[0].Lines[0].Price))
	assert.True(t, decimal.NewFromInt(175).Equal(all[0].Total))
	assert.Equal(t, base.Add(time.Hour), all[0].CreatedAt)

	delivered, err := repo.ListByOwner(ctx, owner, order.StatusDelivered)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "o-1", delivered[0].ID)

	none, err := repo.ListByOwner(ctx, "user:nobody", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
