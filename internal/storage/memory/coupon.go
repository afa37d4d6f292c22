package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/coupon"
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository holds promo codes keyed by normalized code.
type CouponRepository struct {
	mu    sync.Mutex
	rules map[string]coupon.Rule
}

// NewCouponRepository creates a repository holding rules.
func NewCouponRepository(rules ...coupon.Rule) *CouponRepository {
	r := &CouponRepository{rules: make(map[string]coupon.Rule, len(rules))}
	for _, rule := range rules {
		r.Put(rule)
	}
	return r
}

// Put adds or replaces a rule.
func (r *CouponRepository) Put(rule coupon.Rule) {
	rule.Code = coupon.Normalize(rule.Code)
	r.mu.Lock()
	r.rules[rule.Code] = rule
	r.mu.Unlock()
}

func (r *CouponRepository) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[coupon.Normalize(code)]
	if !ok {
		return nil, coupon.ErrInvalidCoupon
	}
	return &rule, nil
}

// IncrementUses fails with coupon.ErrCouponUsageLimitReached once the limit
// is hit, so concurrent redemptions cannot overshoot it.
func (r *CouponRepository) IncrementUses(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = coupon.Normalize(code)
	rule, ok := r.rules[code]
	if !ok {
		return coupon.ErrInvalidCoupon
	}
	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return coupon.ErrCouponUsageLimitReached
	}
	rule.Uses++
	r.rules[code] = rule
	return nil
}

func (r *CouponRepository) ReleaseUse(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	code = coupon.Normalize(code)
	rule, ok := r.rules[code]
	if !ok {
		return coupon.ErrInvalidCoupon
	}
	if rule.Uses > 0 {
		rule.Uses--
		r.rules[code] = rule
	}
	return nil
}
