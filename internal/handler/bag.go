package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/storefront/internal/domain/bag"
	"github.com/xenking/storefront/internal/domain/product"
)

func (h *Handler) writeBag(w http.ResponseWriter, r *http.Request, b *bag.Bag, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeBag(e, b) })
}

// GetBag handles GET /api/bag.
func (h *Handler) GetBag(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	b, err := h.deps.Bags.Get(r.Context(), owner)
	h.writeBag(w, r, b, err)
}

// ClearBag handles DELETE /api/bag.
func (h *Handler) ClearBag(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	if err := h.deps.Bags.Clear(r.Context(), owner); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeBag(w, r, &bag.Bag{}, nil)
}

// AddBagItem handles POST /api/bag/items.
func (h *Handler) AddBagItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var (
		productID string
		quantity  = 1
	)
	if err := h.decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if productID == "" {
		writeError(w, r, badRequest("productId is required"))
		return
	}

	b, err := h.deps.Bags.AddItem(r.Context(), owner, productID, quantity)
	if errors.Is(err, product.ErrNotFound) {
		err = &apiError{status: http.StatusUnprocessableEntity, message: "product not found", reason: "bag/unknown-product"}
	}
	h.writeBag(w, r, b, err)
}

// SetBagQuantity handles PUT /api/bag/items/{id}.
func (h *Handler) SetBagQuantity(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var (
		quantity int
		set      bool
	)
	if err := h.decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		var err error
		quantity, err = d.Int()
		set = true
		return err
	}); err != nil {
		writeError(w, r, err)
		return
	}
	if !set {
		writeError(w, r, badRequest("quantity is required"))
		return
	}
	b, err := h.deps.Bags.SetQuantity(r.Context(), owner, mux.Vars(r)["id"], quantity)
	h.writeBag(w, r, b, err)
}

// RemoveBagItem handles DELETE /api/bag/items/{id}.
func (h *Handler) RemoveBagItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	b, err := h.deps.Bags.Remove(r.Context(), owner, mux.Vars(r)["id"])
	h.writeBag(w, r, b, err)
}

// IncrementBagItem handles POST /api/bag/items/{id}/increment.
func (h *Handler) IncrementBagItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	b, err := h.deps.Bags.Increment(r.Context(), owner, mux.Vars(r)["id"])
	h.writeBag(w, r, b, err)
}

// DecrementBagItem handles POST /api/bag/items/{id}/decrement.
func (h *Handler) DecrementBagItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	b, err := h.deps.Bags.Decrement(r.Context(), owner, mux.Vars(r)["id"])
	h.writeBag(w, r, b, err)
}
