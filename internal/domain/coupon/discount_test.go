package coupon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name       string
		rule       *Rule
		items      []Item
		wantAmount decimal.Decimal
		wantErr    error
	}{
		{
			name:       "percentage off subtotal",
			rule:       &Rule{Code: "PCT18", DiscountType: DiscountPercentage, Value: d("18")},
			items:      []Item{{ProductID: "p1", Price: d("50"), Quantity: 2}},
			wantAmount: d("18"),
		},
		{
			name:       "percentage rounds to paise",
			rule:       &Rule{Code: "PCT15", DiscountType: DiscountPercentage, Value: d("15")},
			items:      []Item{{ProductID: "p1", Price: d("33.33"), Quantity: 1}},
			wantAmount: d("5"),
		},
		{
			name: "percentage capped by max discount",
			rule: &Rule{
				Code:         "BIG",
				DiscountType: DiscountPercentage,
				Value:        d("50"),
				MaxDiscount:  d("100"),
			},
			items:      []Item{{ProductID: "ghee_1", Price: d("650"), Quantity: 1}},
			wantAmount: d("100"),
		},
		{
			name:       "fixed below subtotal",
			rule:       &Rule{Code: "FLAT50", DiscountType: DiscountFixed, Value: d("50")},
			items:      []Item{{ProductID: "dal_1", Price: d("120"), Quantity: 1}},
			wantAmount: d("50"),
		},
		{
			name:       "fixed capped at subtotal",
			rule:       &Rule{Code: "FLAT500", DiscountType: DiscountFixed, Value: d("500")},
			items:      []Item{{ProductID: "dal_1", Price: d("120"), Quantity: 1}},
			wantAmount: d("120"),
		},
		{
			name: "free lowest",
			rule: &Rule{Code: "FREEONE", DiscountType: DiscountFreeLowest, MinItems: 2},
			items: []Item{
				{ProductID: "aata_1", Price: d("80"), Quantity: 2},
				{ProductID: "spice_1", Price: d("45"), Quantity: 1},
			},
			wantAmount: d("45"),
		},
		{
			name:       "free lowest on empty bag",
			rule:       &Rule{Code: "FREEONE", DiscountType: DiscountFreeLowest},
			wantAmount: decimal.Zero,
		},
		{
			name:    "min items not met",
			rule:    &Rule{Code: "FREEONE", DiscountType: DiscountFreeLowest, MinItems: 2},
			items:   []Item{{ProductID: "aata_1", Price: d("80"), Quantity: 1}},
			wantErr: ErrInvalidCoupon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.rule, tt.items)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantAmount.Equal(got.Amount),
				"expected %s, got %s", tt.wantAmount, got.Amount)
			assert.Equal(t, tt.rule.Code, got.Code)
		})
	}
}

func TestApply_UnsupportedType(t *testing.T) {
	_, err := Apply(&Rule{Code: "X", DiscountType: "bogo"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported discount type")
}

func TestDiscountType_Valid(t *testing.T) {
	assert.True(t, DiscountPercentage.Valid())
	assert.True(t, DiscountFixed.Valid())
	assert.True(t, DiscountFreeLowest.Valid())
	assert.False(t, DiscountType("bogo").Valid())
}
