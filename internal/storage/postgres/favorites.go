package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/favorites"
)

const (
	getFavoritesSQL = `SELECT ` + productColumns + `
		FROM favorites f JOIN products p ON p.id = f.product_id
		WHERE f.owner = $1 ORDER BY f.position`

	clearFavoritesSQL = `DELETE FROM favorites WHERE owner = $1`

	insertFavoritesSQL = `INSERT INTO favorites (owner, product_id, position)
		SELECT $1, f.product_id, f.position
		FROM unnest($2::text[]) WITH ORDINALITY AS f(product_id, position)`
)

var _ favorites.Repository = (*FavoritesRepository)(nil)

// FavoritesRepository stores favorite product ids per owner.
type FavoritesRepository struct {
	pool *pgxpool.Pool
}

// NewFavoritesRepository returns a FavoritesRepository that uses the given pool.
func NewFavoritesRepository(pool *pgxpool.Pool) *FavoritesRepository {
	return &FavoritesRepository{pool: pool}
}

func (r *FavoritesRepository) Get(ctx context.Context, owner string) (*favorites.Favorites, error) {
	return loadFavorites(ctx, r.pool, owner)
}

func (r *FavoritesRepository) Update(
	ctx context.Context,
	owner string,
	fn func(*favorites.Favorites) error,
) (*favorites.Favorites, error) {
	var out *favorites.Favorites
	err := withOwnerLock(ctx, r.pool, owner, func(tx pgx.Tx) error {
		f, err := loadFavorites(ctx, tx, owner)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, clearFavoritesSQL, owner); err != nil {
			return errors.Wrapf(err, "clear favorites %q", owner)
		}
		if len(f.Items) > 0 {
			if _, err := tx.Exec(ctx, insertFavoritesSQL, owner, f.IDs()); err != nil {
				return errors.Wrapf(err, "save favorites %q", owner)
			}
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func loadFavorites(ctx context.Context, q querier, owner string) (*favorites.Favorites, error) {
	rows, err := q.Query(ctx, getFavoritesSQL, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "load favorites %q", owner)
	}
	items, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrapf(err, "load favorites %q", owner)
	}
	return &favorites.Favorites{Items: items}, nil
}
