// Package messaging builds the WhatsApp handoff for orders placed over chat.
package messaging

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/money"
	"github.com/xenking/storefront/internal/domain/order"
)

// WhatsApp composes order messages addressed to the store's number.
type WhatsApp struct {
	phone string
}

// NewWhatsApp creates a composer for phone. Formatting characters such as
// "+", spaces and dashes are dropped.
func NewWhatsApp(phone string) (*WhatsApp, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return nil, errors.Errorf("invalid whatsapp phone %q", phone)
	}
	return &WhatsApp{phone: digits}, nil
}

// Phone returns the normalized destination number.
func (w *WhatsApp) Phone() string {
	return w.phone
}

// Handoff returns the message and the app and web links that open a chat
// with it pre-filled.
func (w *WhatsApp) Handoff(o *order.Order) order.Handoff {
	msg := Message(o)
	text := EncodeURIComponent(msg)
	return order.Handoff{
		Message: msg,
		AppURL:  "whatsapp://send?phone=" + w.phone + "&text=" + text,
		WebURL:  "https://wa.me/" + w.phone + "?text=" + text,
	}
}

// Message renders the order as the plain-text chat message.
func Message(o *order.Order) string {
	cur := o.Currency
	var b strings.Builder
	b.WriteString("New Order:\n\n")

	b.WriteString("Delivery Address:\n")
	b.WriteString(o.Address.Name + "\n")
	b.WriteString(o.Address.Line1 + "\n")
	fmt.Fprintf(&b, "%s, %s %s\n\n", o.Address.City, o.Address.Region, o.Address.PostalCode)

	b.WriteString("Items:\n")
	for _, l := range o.Lines {
		fmt.Fprintf(&b, "%s x%d - %s\n", l.Name, l.Quantity, money.Format(l.Total(), cur))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", money.Format(o.Subtotal, cur))
	if o.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s\n", money.Format(o.Discount, cur))
	}
	fmt.Fprintf(&b, "Delivery: %s\n", money.Format(o.DeliveryFee, cur))
	fmt.Fprintf(&b, "Total: %s", money.Format(o.Total, cur))
	return b.String()
}

// EncodeURIComponent percent-encodes s leaving A-Z a-z 0-9 and -_.!~*'()
// as is, the same set JavaScript's encodeURIComponent keeps.
func EncodeURIComponent(s string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	return componentUnescaper.Replace(escaped)
}

var componentUnescaper = strings.NewReplacer(
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
