package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

const (
	productColumns = `p.id, p.name, p.price, p.currency, p.image, p.rating, p.reviews,
		p.is_new, p.description, p.category, p.color, p.size, p.in_stock`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products p ORDER BY p.position, p.id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + `
		FROM products p JOIN unnest($1::text[]) WITH ORDINALITY AS ids(id, ord) ON ids.id = p.id
		ORDER BY ids.ord`

	upsertProductSQL = `INSERT INTO products (id, position, name, price, currency, image, rating,
		reviews, is_new, description, category, color, size, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position, name = EXCLUDED.name, price = EXCLUDED.price,
			currency = EXCLUDED.currency, image = EXCLUDED.image, rating = EXCLUDED.rating,
			reviews = EXCLUDED.reviews, is_new = EXCLUDED.is_new,
			description = EXCLUDED.description, category = EXCLUDED.category,
			color = EXCLUDED.color, size = EXCLUDED.size, in_stock = EXCLUDED.in_stock`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products in catalog order.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns product.ErrNotFound for unknown ids.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// GetByIDs returns the known products among ids, in the order of ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// SeedCatalog upserts products, recording their position in the slice as the
// catalog order.
func (r *ProductRepository) SeedCatalog(ctx context.Context, products []product.Product) error {
	batch := &pgx.Batch{}
	for i, p := range products {
		batch.Queue(upsertProductSQL,
			p.ID, i, p.Name, p.Price, p.Currency, p.Image, int16(p.Rating),
			int32(p.Reviews), p.IsNew, p.Description, p.Category, p.Color, p.Size, p.InStock,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "upsert products")
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	return scanProductWith(row)
}

// scanProductWith scans the product columns followed by extra destinations.
func scanProductWith(row pgx.CollectableRow, extra ...any) (product.Product, error) {
	var (
		p       product.Product
		price   decimal.Decimal
		rating  int16
		reviews int32
	)
	dest := []any{
		&p.ID, &p.Name, &price, &p.Currency, &p.Image, &rating, &reviews,
		&p.IsNew, &p.Description, &p.Category, &p.Color, &p.Size, &p.InStock,
	}
	err := row.Scan(append(dest, extra...)...)
	p.Price = price
	p.Rating = int(rating)
	p.Reviews = int(reviews)
	return p, err
}
