package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo code strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the bag subtotal, optionally
	// capped by Rule.MaxDiscount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, never more than the subtotal.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest makes one unit of the cheapest line free.
	DiscountFreeLowest DiscountType = "free_lowest"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixed, DiscountFreeLowest:
		return true
	default:
		return false
	}
}

var (
	// ErrInvalidCoupon is returned when a promo code is unknown or the bag does
	// not meet its minimum item count.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned outside the code's validity window.
	ErrCouponExpired = errors.New("coupon expired")
	// ErrCouponUsageLimitReached is returned once a code has been used MaxUses times.
	ErrCouponUsageLimitReached = errors.New("coupon usage limit reached")
)

// Rule is a promo code definition.
type Rule struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinItems     int
	Description  string
	ValidFrom    *time.Time
	ValidUntil   *time.Time
	MaxUses      int
	Uses         int
	// MaxDiscount caps percentage discounts. Zero means uncapped.
	MaxDiscount decimal.Decimal
}

// Active reports whether the rule can be used at now.
func (r *Rule) Active(now time.Time) error {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrCouponExpired
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return ErrCouponExpired
	}
	if r.MaxUses > 0 && r.Uses >= r.MaxUses {
		return ErrCouponUsageLimitReached
	}
	return nil
}

// Discount is the computed reduction for a bag.
type Discount struct {
	Code        string
	Amount      decimal.Decimal
	Description string
}

// Item is a bag line as seen by discount rules.
type Item struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

// Repository looks up and counts promo code usage.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	IncrementUses(ctx context.Context, code string) error
	// ReleaseUse returns one recorded use. The counter never drops below zero.
	ReleaseUse(ctx context.Context, code string) error
}

// Normalize canonicalizes a user-entered promo code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
