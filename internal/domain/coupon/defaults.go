package coupon

import "github.com/shopspring/decimal"

// Defaults returns the promo codes every fresh deployment starts with.
func Defaults() []Rule {
	return []Rule{
		{
			Code:         "HAPPYHOURS",
			DiscountType: DiscountPercentage,
			Value:        decimal.NewFromInt(18),
			Description:  "Happy Hours: 18% off entire order",
		},
		{
			Code:         "BUYGETONE",
			DiscountType: DiscountFreeLowest,
			MinItems:     2,
			Description:  "Buy one get one: lowest priced item free",
		},
		{
			Code:         "WELCOME50",
			DiscountType: DiscountFixed,
			Value:        decimal.NewFromInt(50),
			MinItems:     1,
			Description:  "₹50 off your first order",
			MaxUses:      1000,
		},
	}
}
