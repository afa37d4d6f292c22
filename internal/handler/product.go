package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/storefront/internal/domain/product"
)

func parseSort(r *http.Request) (product.SortOrder, error) {
	sort := product.SortOrder(r.URL.Query().Get("sort"))
	if !sort.Valid() {
		return "", badRequest("sort must be one of price_asc, price_desc, rating")
	}
	return sort, nil
}

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	sort, err := parseSort(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := product.Query{
		Category: r.URL.Query().Get("category"),
		Text:     r.URL.Query().Get("q"),
		Sort:     sort,
	}
	if v := r.URL.Query().Get("new"); v != "" {
		q.NewOnly, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, badRequest("new must be a boolean"))
			return
		}
	}

	products, err := h.deps.Products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	products = product.Search(products, q)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, products) })
}

// GetProduct handles GET /api/products/{id}. Requests with an owner also
// learn whether the product is one of their favorites.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Products.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	var extra func(e *jx.Encoder)
	if owner := ownerFromContext(r.Context()); owner != "" {
		favorite, err := h.deps.Favorites.Contains(r.Context(), owner, p.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		extra = func(e *jx.Encoder) {
			e.Field("favorite", func(e *jx.Encoder) { e.Bool(favorite) })
		}
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProductWith(e, *p, extra) })
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	products, err := h.deps.Products.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	categories := product.Categories(products)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range categories {
				e.Obj(func(e *jx.Encoder) {
					e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
					e.Field("count", func(e *jx.Encoder) { e.Int(c.Count) })
				})
			}
		})
	})
}
