package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront/internal/domain/order"
)

// GetCheckout handles GET /api/checkout. The optional coupon query parameter
// is quoted without being redeemed.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	sum, err := h.deps.Orders.Summary(r.Context(), owner, r.URL.Query().Get("coupon"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeSummary(e, sum) })
}

func decodeAddress(d *jx.Decoder, a *order.Address) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			a.Name, err = d.Str()
		case "line1":
			a.Line1, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "region":
			a.Region, err = d.Str()
		case "postalCode":
			a.PostalCode, err = d.Str()
		case "phone":
			a.Phone, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
}

// PlaceOrder handles POST /api/checkout. Placing an order requires a session
// so that it shows up in the user's order history.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req order.PlaceOrderRequest
	if err := h.decodeBody(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "paymentMethod":
			v, err := d.Str()
			req.PaymentMethod = order.PaymentMethod(v)
			return err
		case "couponCode":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Str()
			req.CouponCode = v
			return err
		case "address":
			return decodeAddress(d, &req.Address)
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.deps.Orders.PlaceOrder(r.Context(), sess.User.Owner(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("order", func(e *jx.Encoder) { h.encodeOrder(e, res.Order) })
			if res.Handoff != nil {
				e.Field("whatsapp", func(e *jx.Encoder) {
					e.Obj(func(e *jx.Encoder) {
						e.Field("message", func(e *jx.Encoder) { e.Str(res.Handoff.Message) })
						e.Field("appUrl", func(e *jx.Encoder) { e.Str(res.Handoff.AppURL) })
						e.Field("webUrl", func(e *jx.Encoder) { e.Str(res.Handoff.WebURL) })
					})
				})
			}
		})
	})
}

// ListOrders handles GET /api/orders. Orders belong to signed-in users only.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	status := order.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, r, badRequest("status must be one of processing, delivered, cancelled"))
		return
	}
	orders, err := h.deps.Orders.ListOrders(r.Context(), sess.User.Owner(), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for i := range orders {
				h.encodeOrder(e, &orders[i])
			}
		})
	})
}
