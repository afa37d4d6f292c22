package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the fulfilment state shown on the orders screen.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	// PaymentWhatsApp hands the order to the store over a WhatsApp message.
	PaymentWhatsApp PaymentMethod = "whatsapp"
	// PaymentCOD is cash on delivery.
	PaymentCOD PaymentMethod = "cod"
	// PaymentOnline is delegated to a payment gateway.
	PaymentOnline PaymentMethod = "online"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentWhatsApp, PaymentCOD, PaymentOnline:
		return true
	}
	return false
}

// Address is a delivery address.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone,omitempty"`
}

// Missing returns the names of required fields left blank.
func (a Address) Missing() []string {
	var out []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"line1", a.Line1},
		{"city", a.City},
		{"region", a.Region},
		{"postalCode", a.PostalCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			out = append(out, f.name)
		}
	}
	return out
}

// Line is a priced order line.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Total returns Price × Quantity.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order.
type Order struct {
	ID             string
	Number         string
	TrackingNumber string
	Owner          string
	Lines          []Line
	Subtotal       decimal.Decimal
	DeliveryFee    decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	Currency       string
	CouponCode     string
	PaymentMethod  PaymentMethod
	PaymentRef     string
	Status         Status
	Address        Address
	CreatedAt      time.Time
}

// Quantity returns the number of units across lines.
func (o *Order) Quantity() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Repository persists orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	// ListByOwner returns the owner's orders, newest first. An empty status
	// matches every status.
	ListByOwner(ctx context.Context, owner string, status Status) ([]Order, error)
}
