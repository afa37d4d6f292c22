// Package payment defines the online payment seam used at checkout.
package payment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrUnavailable is returned when online payment is requested but no gateway
// is configured.
var ErrUnavailable = errors.New("online payment is not available")

// Charge is a payment request for a single order.
type Charge struct {
	OrderID  string
	Owner    string
	Amount   decimal.Decimal
	Currency string
}

// Gateway collects online payments.
type Gateway interface {
	// Charge returns the gateway's payment reference.
	Charge(ctx context.Context, c Charge) (string, error)
}
