package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	rule          *Rule
	err           error
	incrementErr  error
	lookupCode    string
	incrementCode string
	releaseCode   string
	releaseErr    error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*Rule, error) {
	m.lookupCode = code
	return m.rule, m.err
}

func (m *mockCouponRepo) IncrementUses(_ context.Context, code string) error {
	m.incrementCode = code
	return m.incrementErr
}

func (m *mockCouponRepo) ReleaseUse(_ context.Context, code string) error {
	m.releaseCode = code
	return m.releaseErr
}

func TestRepoValidator_Quote(t *testing.T) {
	fixedNow := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	yesterday := fixedNow.Add(-24 * time.Hour)
	tomorrow := fixedNow.Add(24 * time.Hour)

	oneAata := []Item{{ProductID: "aata_1", Price: decimal.NewFromInt(100), Quantity: 1}}

	tests := []struct {
		name       string
		repo       *mockCouponRepo
		code       string
		items      []Item
		wantAmount decimal.Decimal
		wantErr    error
	}{
		{
			name: "percentage code",
			repo: &mockCouponRepo{rule: &Rule{
				Code:         "SAVE10",
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(10),
			}},
			code:       "SAVE10",
			items:      oneAata,
			wantAmount: decimal.NewFromInt(10),
		},
		{
			name:    "unknown code",
			repo:    &mockCouponRepo{err: ErrInvalidCoupon},
			code:    "BOGUS",
			items:   oneAata,
			wantErr: ErrInvalidCoupon,
		},
		{
			name:    "blank code",
			repo:    &mockCouponRepo{},
			code:    "   ",
			items:   oneAata,
			wantErr: ErrInvalidCoupon,
		},
		{
			name: "below min items",
			repo: &mockCouponRepo{rule: &Rule{
				Code:         "MIN3",
				DiscountType: DiscountFixed,
				Value:        decimal.NewFromInt(50),
				MinItems:     3,
			}},
			code:    "MIN3",
			items:   oneAata,
			wantErr: ErrInvalidCoupon,
		},
		{
			name: "expired",
			repo: &mockCouponRepo{rule: &Rule{
				Code:         "OLD",
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(10),
				ValidUntil:   &yesterday,
			}},
			code:    "OLD",
			items:   oneAata,
			wantErr: ErrCouponExpired,
		},
		{
			name: "not yet valid",
			repo: &mockCouponRepo{rule: &Rule{
				Code:         "SOON",
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(10),
				ValidFrom:    &tomorrow,
			}},
			code:    "SOON",
			items:   oneAata,
			wantErr: ErrCouponExpired,
		},
		{
			name: "inside window",
			repo: &mockCouponRepo{rule: &Rule{
				Code:         "DIWALI",
				DiscountType: DiscountFixed,
				Value:        decimal.NewFromInt(30),
				ValidFrom:    &yesterday,
				ValidUntil:   &tomorrow,
			}},
			code:       "DIWALI",
			items:      oneAata,
			wantAmount: decimal.NewFromInt(30),
		},
		{
			name: "usage limit reached",
			repo: &mockCouponRepo{rule: &Rule{
				Code:         "LIMITED",
				DiscountType: DiscountPercentage,
				Value:        decimal.NewFromInt(10),
				MaxUses:      100,
				Uses:         100,
			}},
			code:    "LIMITED",
			items:   oneAata,
			wantErr: ErrCouponUsageLimitReached,
		},
		{
			name: "unlimited uses",
			repo: &mockCouponRepo{rule: &Rule{
				Code:         "ALWAYS",
				DiscountType: DiscountFixed,
				Value:        decimal.NewFromInt(5),
				Uses:         9999,
			}},
			code:       "ALWAYS",
			items:      oneAata,
			wantAmount: decimal.NewFromInt(5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewRepoValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			got, err := v.Quote(context.Background(), tt.code, tt.items)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantAmount.Equal(got.Amount),
				"expected amount %s, got %s", tt.wantAmount, got.Amount)
			assert.Empty(t, tt.repo.incrementCode, "quote must not consume a use")
		})
	}
}

func TestRepoValidator_QuoteNormalizesCode(t *testing.T) {
	repo := &mockCouponRepo{rule: &Rule{
		Code:         "FIRST50",
		DiscountType: DiscountFixed,
		Value:        decimal.NewFromInt(50),
	}}

	_, err := NewRepoValidator(repo).Quote(context.Background(), "  first50 ", []Item{
		{ProductID: "dal_1", Price: decimal.NewFromInt(120), Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "FIRST50", repo.lookupCode)
}

func TestRepoValidator_Redeem(t *testing.T) {
	repo := &mockCouponRepo{rule: &Rule{
		Code:         "FIRST50",
		DiscountType: DiscountFixed,
		Value:        decimal.NewFromInt(50),
	}}

	d, err := NewRepoValidator(repo).Redeem(context.Background(), "first50", []Item{
		{ProductID: "dal_1", Price: decimal.NewFromInt(120), Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, "FIRST50", d.Code)
	assert.Equal(t, "FIRST50", repo.incrementCode)
}

func TestRepoValidator_RedeemIncrementError(t *testing.T) {
	repo := &mockCouponRepo{
		rule: &Rule{
			Code:         "FAIL",
			DiscountType: DiscountFixed,
			Value:        decimal.NewFromInt(5),
		},
		incrementErr: errors.New("db error"),
	}

	_, err := NewRepoValidator(repo).Redeem(context.Background(), "FAIL", []Item{
		{ProductID: "p1", Price: decimal.NewFromInt(100), Quantity: 1},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment coupon uses")
}

func TestRepoValidator_Release(t *testing.T) {
	repo := &mockCouponRepo{}
	require.NoError(t, NewRepoValidator(repo).Release(context.Background(), " first50 "))
	assert.Equal(t, "FIRST50", repo.releaseCode)

	repo.releaseErr = errors.New("db error")
	err := NewRepoValidator(repo).Release(context.Background(), "FIRST50")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release coupon use")
}

func TestRepoValidator_LookupError(t *testing.T) {
	repo := &mockCouponRepo{err: errors.New("connection refused")}

	_, err := NewRepoValidator(repo).Quote(context.Background(), "ANY", nil)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCoupon)
	assert.Contains(t, err.Error(), "lookup coupon")
}
