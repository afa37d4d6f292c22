package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator prices promo codes against a bag.
type Validator interface {
	// Quote computes the discount without consuming a use.
	Quote(ctx context.Context, code string, items []Item) (*Discount, error)
	// Redeem computes the discount and records one use.
	Redeem(ctx context.Context, code string, items []Item) (*Discount, error)
	// Release gives back a use recorded by Redeem.
	Release(ctx context.Context, code string) error
}

// RepoValidator implements Validator on top of a Repository.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

func (v *RepoValidator) Quote(ctx context.Context, code string, items []Item) (*Discount, error) {
	rule, err := v.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	d, err := Apply(rule, items)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (v *RepoValidator) Redeem(ctx context.Context, code string, items []Item) (*Discount, error) {
	d, err := v.Quote(ctx, code, items)
	if err != nil {
		return nil, err
	}
	if err := v.repo.IncrementUses(ctx, d.Code); err != nil {
		return nil, errors.Wrap(err, "increment coupon uses")
	}
	return d, nil
}

func (v *RepoValidator) Release(ctx context.Context, code string) error {
	if err := v.repo.ReleaseUse(ctx, Normalize(code)); err != nil {
		return errors.Wrap(err, "release coupon use")
	}
	return nil
}

func (v *RepoValidator) lookup(ctx context.Context, code string) (*Rule, error) {
	code = Normalize(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if err := rule.Active(v.now()); err != nil {
		return nil, err
	}
	return rule, nil
}
