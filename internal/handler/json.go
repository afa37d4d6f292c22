package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/bag"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/money"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// decodeBody decodes a JSON object request body, calling fn for every key.
// Unknown keys must be skipped by fn.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := jx.Decode(body, 4096).Obj(fn); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apiError{status: http.StatusRequestEntityTooLarge, message: "request body too large"}
		}
		return &apiError{status: http.StatusBadRequest, message: "invalid request body: " + err.Error()}
	}
	return nil
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func (h *Handler) imageURL(image string) string {
	if image == "" || h.imageBaseURL == "" ||
		strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return h.imageBaseURL + "/" + strings.TrimPrefix(image, "/")
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	h.encodeProductWith(e, p, nil)
}

// encodeProductWith encodes p followed by the fields written by extra.
func (h *Handler) encodeProductWith(e *jx.Encoder, p product.Product, extra func(e *jx.Encoder)) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(p.Currency) })
		e.Field("priceLabel", func(e *jx.Encoder) { e.Str(money.Format(p.Price, p.Currency)) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(p.Image)) })
		e.Field("rating", func(e *jx.Encoder) { e.Int(p.Rating) })
		e.Field("reviews", func(e *jx.Encoder) { e.Int(p.Reviews) })
		e.Field("isNew", func(e *jx.Encoder) { e.Bool(p.IsNew) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("color", func(e *jx.Encoder) { e.Str(p.Color) })
		e.Field("size", func(e *jx.Encoder) { e.Str(p.Size) })
		e.Field("inStock", func(e *jx.Encoder) { e.Bool(p.InStock) })
		if extra != nil {
			extra(e)
		}
	})
}

func (h *Handler) encodeProducts(e *jx.Encoder, products []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range products {
			h.encodeProduct(e, p)
		}
	})
}

func (h *Handler) encodeBag(e *jx.Encoder, b *bag.Bag) {
	currency := b.Currency()
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range b.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product", func(e *jx.Encoder) { h.encodeProduct(e, l.Product) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, l.Subtotal()) })
					})
				}
			})
		})
		e.Field("count", func(e *jx.Encoder) { e.Int(b.Count()) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, b.Total()) })
		e.Field("totalLabel", func(e *jx.Encoder) { e.Str(money.Format(b.Total(), currency)) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(currency) })
	})
}

func (h *Handler) encodeOrderLines(e *jx.Encoder, lines []order.Line) {
	e.Arr(func(e *jx.Encoder) {
		for _, l := range lines {
			e.Obj(func(e *jx.Encoder) {
				e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
				e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
				e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(l.Image)) })
				e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, l.Price) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
				e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, l.Total()) })
			})
		}
	})
}

func encodeDiscount(e *jx.Encoder, d *coupon.Discount) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(d.Code) })
		e.Field("amount", func(e *jx.Encoder) { encodeDecimal(e, d.Amount) })
		e.Field("description", func(e *jx.Encoder) { e.Str(d.Description) })
	})
}

func (h *Handler) encodeSummary(e *jx.Encoder, s *order.Summary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) { h.encodeOrderLines(e, s.Lines) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, s.Subtotal) })
		e.Field("deliveryFee", func(e *jx.Encoder) { encodeDecimal(e, s.DeliveryFee) })
		if s.Discount != nil {
			e.Field("discount", func(e *jx.Encoder) { encodeDiscount(e, s.Discount) })
		}
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, s.Total) })
		e.Field("totalLabel", func(e *jx.Encoder) { e.Str(money.Format(s.Total, s.Currency)) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(s.Currency) })
	})
}

func encodeAddress(e *jx.Encoder, a order.Address) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(a.Name) })
		e.Field("line1", func(e *jx.Encoder) { e.Str(a.Line1) })
		e.Field("city", func(e *jx.Encoder) { e.Str(a.City) })
		e.Field("region", func(e *jx.Encoder) { e.Str(a.Region) })
		e.Field("postalCode", func(e *jx.Encoder) { e.Str(a.PostalCode) })
		if a.Phone != "" {
			e.Field("phone", func(e *jx.Encoder) { e.Str(a.Phone) })
		}
	})
}

func (h *Handler) encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("number", func(e *jx.Encoder) { e.Str(o.Number) })
		e.Field("trackingNumber", func(e *jx.Encoder) { e.Str(o.TrackingNumber) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(string(o.PaymentMethod)) })
		if o.PaymentRef != "" {
			e.Field("paymentRef", func(e *jx.Encoder) { e.Str(o.PaymentRef) })
		}
		e.Field("items", func(e *jx.Encoder) { h.encodeOrderLines(e, o.Lines) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(o.Quantity()) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, o.Subtotal) })
		e.Field("deliveryFee", func(e *jx.Encoder) { encodeDecimal(e, o.DeliveryFee) })
		e.Field("discount", func(e *jx.Encoder) { encodeDecimal(e, o.Discount) })
		if o.CouponCode != "" {
			e.Field("couponCode", func(e *jx.Encoder) { e.Str(o.CouponCode) })
		}
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, o.Total) })
		e.Field("totalLabel", func(e *jx.Encoder) { e.Str(money.Format(o.Total, o.Currency)) })
		e.Field("currency", func(e *jx.Encoder) { e.Str(o.Currency) })
		e.Field("address", func(e *jx.Encoder) { encodeAddress(e, o.Address) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}

func encodeUser(e *jx.Encoder, u *auth.User) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("uid", func(e *jx.Encoder) { e.Str(u.UID) })
		e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
		e.Field("displayName", func(e *jx.Encoder) { e.Str(u.DisplayName) })
		e.Field("photoUrl", func(e *jx.Encoder) { e.Str(u.PhotoURL) })
		e.Field("emailVerified", func(e *jx.Encoder) { e.Bool(u.EmailVerified) })
	})
}

func encodeSignIn(e *jx.Encoder, res *auth.SignInResult) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("token", func(e *jx.Encoder) { e.Str(res.Token) })
		e.Field("expiresAt", func(e *jx.Encoder) { e.Str(res.Session.ExpiresAt.UTC().Format(time.RFC3339)) })
		e.Field("user", func(e *jx.Encoder) { encodeUser(e, &res.Session.User) })
	})
}
