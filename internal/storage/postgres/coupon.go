package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_type, value, min_items, description,
		valid_from, valid_until, max_uses, uses, max_discount
		FROM coupons WHERE code = UPPER(TRIM($1)) AND active = TRUE`

	// incrementCouponUsesSQL only matches while the usage limit has room, so
	// concurrent redemptions cannot overshoot it.
	incrementCouponUsesSQL = `UPDATE coupons SET uses = uses + 1
		WHERE code = UPPER(TRIM($1)) AND active = TRUE AND (max_uses = 0 OR uses < max_uses)`

	releaseCouponUseSQL = `UPDATE coupons SET uses = uses - 1
		WHERE code = UPPER(TRIM($1)) AND uses > 0`

	upsertCouponSQL = `INSERT INTO coupons (code, discount_type, value, min_items, description,
		active, valid_from, valid_until, max_uses, max_discount)
		VALUES (UPPER(TRIM($1)), $2, $3, $4, $5, TRUE, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type, value = EXCLUDED.value,
			min_items = EXCLUDED.min_items, description = EXCLUDED.description,
			active = TRUE, valid_from = EXCLUDED.valid_from, valid_until = EXCLUDED.valid_until,
			max_uses = EXCLUDED.max_uses, max_discount = EXCLUDED.max_discount`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanCouponRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, errors.Wrapf(err, "find coupon %q", code)
	}
	return &rule, nil
}

// IncrementUses records one redemption. It returns
// coupon.ErrCouponUsageLimitReached when the limit is already hit.
func (r *CouponRepository) IncrementUses(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, incrementCouponUsesSQL, code)
	if err != nil {
		return errors.Wrapf(err, "increment uses for coupon %q", code)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.FindByCode(ctx, code); err != nil {
		return err
	}
	return coupon.ErrCouponUsageLimitReached
}

// ReleaseUse returns one redemption recorded by IncrementUses.
func (r *CouponRepository) ReleaseUse(ctx context.Context, code string) error {
	if _, err := r.pool.Exec(ctx, releaseCouponUseSQL, code); err != nil {
		return errors.Wrapf(err, "release use for coupon %q", code)
	}
	return nil
}

// Upsert creates or replaces a coupon rule. The usage counter is kept.
func (r *CouponRepository) Upsert(ctx context.Context, rule coupon.Rule) error {
	if !rule.DiscountType.Valid() {
		return errors.Errorf("coupon %q: unknown discount type %q", rule.Code, rule.DiscountType)
	}
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		rule.Code, string(rule.DiscountType), rule.Value, int32(rule.MinItems), rule.Description,
		rule.ValidFrom, rule.ValidUntil, int32(rule.MaxUses), rule.MaxDiscount,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert coupon %q", rule.Code)
	}
	return nil
}

func scanCouponRule(row pgx.CollectableRow) (coupon.Rule, error) {
	var (
		rule         coupon.Rule
		discountType string
		value        decimal.Decimal
		minItems     int32
		validFrom    *time.Time
		validUntil   *time.Time
		maxUses      int32
		uses         int32
		maxDiscount  decimal.Decimal
	)
	err := row.Scan(
		&rule.Code, &discountType, &value, &minItems, &rule.Description,
		&validFrom, &validUntil, &maxUses, &uses, &maxDiscount,
	)
	rule.DiscountType = coupon.DiscountType(discountType)
	rule.Value = value
	rule.MinItems = int(minItems)
	rule.ValidFrom = validFrom
	rule.ValidUntil = validUntil
	rule.MaxUses = int(maxUses)
	rule.Uses = int(uses)
	rule.MaxDiscount = maxDiscount
	return rule, err
}
