// Package money holds price parsing and formatting helpers.
//
// Prices are stored as decimal amounts with the currency kept separately.
// Parse exists only to import legacy display strings such as "₹80" or "112$".
package money

import (
	"strings"
	"unicode"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ISO 4217 code used when a price carries no currency.
const DefaultCurrency = "INR"

// ErrInvalidPrice is returned when a display price has no numeric amount.
var ErrInvalidPrice = errors.New("invalid price")

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// markers maps currency markers found in legacy strings to ISO codes.
// Longer markers come first so "Rs." wins over "Rs".
var markers = []struct {
	marker   string
	currency string
}{
	{"INR", "INR"},
	{"Rs.", "INR"},
	{"Rs", "INR"},
	{"₹", "INR"},
	{"USD", "USD"},
	{"US$", "USD"},
	{"$", "USD"},
	{"EUR", "EUR"},
	{"€", "EUR"},
	{"GBP", "GBP"},
	{"£", "GBP"},
}

// Parse extracts the amount and currency from a display price. The currency is
// empty when the string carries no marker.
func Parse(s string) (decimal.Decimal, string, error) {
	raw := strings.TrimSpace(s)
	currency := ""
	for _, m := range markers {
		if strings.Contains(raw, m.marker) {
			currency = m.currency
			raw = strings.ReplaceAll(raw, m.marker, "")
			break
		}
	}

	// Thousands separators and stray whitespace are dropped.
	raw = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if raw == "" {
		return decimal.Zero, "", errors.Wrapf(ErrInvalidPrice, "parse %q", s)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, "", errors.Wrapf(ErrInvalidPrice, "parse %q", s)
	}
	if amount.IsNegative() {
		return decimal.Zero, "", errors.Wrapf(ErrInvalidPrice, "negative price %q", s)
	}
	return amount, currency, nil
}

// Symbol returns the display symbol for an ISO currency code, falling back to
// the code itself followed by a space.
func Symbol(currency string) string {
	if s, ok := symbols[strings.ToUpper(currency)]; ok {
		return s
	}
	if currency == "" {
		return symbols[DefaultCurrency]
	}
	return strings.ToUpper(currency) + " "
}

// Format renders an amount for display. Whole amounts omit the fraction.
func Format(amount decimal.Decimal, currency string) string {
	var s string
	if amount.Equal(amount.Truncate(0)) {
		s = amount.Truncate(0).String()
	} else {
		s = amount.StringFixed(2)
	}
	if amount.IsNegative() {
		return "-" + Symbol(currency) + strings.TrimPrefix(s, "-")
	}
	return Symbol(currency) + s
}
