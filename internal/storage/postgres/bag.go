package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/bag"
)

const (
	getBagSQL = `SELECT ` + productColumns + `, b.quantity
		FROM bag_lines b JOIN products p ON p.id = b.product_id
		WHERE b.owner = $1 ORDER BY b.position`

	clearBagSQL = `DELETE FROM bag_lines WHERE owner = $1`

	insertBagLinesSQL = `INSERT INTO bag_lines (owner, product_id, quantity, position)
		SELECT $1, l.product_id, l.quantity, l.position
		FROM unnest($2::text[], $3::int[]) WITH ORDINALITY AS l(product_id, quantity, position)`
)

var _ bag.Repository = (*BagRepository)(nil)

// BagRepository stores bag lines per owner. Line prices are read from the
// products table on load.
type BagRepository struct {
	pool *pgxpool.Pool
}

// NewBagRepository returns a BagRepository that uses the given pool.
func NewBagRepository(pool *pgxpool.Pool) *BagRepository {
	return &BagRepository{pool: pool}
}

func (r *BagRepository) Get(ctx context.Context, owner string) (*bag.Bag, error) {
	return loadBag(ctx, r.pool, owner)
}

// Update rewrites the owner's lines inside a transaction that holds the
// owner's advisory lock.
func (r *BagRepository) Update(ctx context.Context, owner string, fn func(*bag.Bag) error) (*bag.Bag, error) {
	var out *bag.Bag
	err := withOwnerLock(ctx, r.pool, owner, func(tx pgx.Tx) error {
		b, err := loadBag(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		if err := saveBag(ctx, tx, owner, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadBag(ctx context.Context, q querier, owner string) (*bag.Bag, error) {
	rows, err := q.Query(ctx, getBagSQL, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "load bag %q", owner)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (bag.Line, error) {
		var (
			l        bag.Line
			quantity int32
		)
		p, err := scanProductWith(row, &quantity)
		l.Product = p
		l.Quantity = int(quantity)
		return l, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "load bag %q", owner)
	}
	return &bag.Bag{Lines: lines}, nil
}

func saveBag(ctx context.Context, q querier, owner string, b *bag.Bag) error {
	if _, err := q.Exec(ctx, clearBagSQL, owner); err != nil {
		return errors.Wrapf(err, "clear bag %q", owner)
	}
	if len(b.Lines) == 0 {
		return nil
	}

	ids := make([]string, len(b.Lines))
	quantities := make([]int32, len(b.Lines))
	for i, l := range b.Lines {
		ids[i] = l.Product.ID
		quantities[i] = int32(l.Quantity)
	}
	if _, err := q.Exec(ctx, insertBagLinesSQL, owner, ids, quantities); err != nil {
		return errors.Wrapf(err, "save bag %q", owner)
	}
	return nil
}
