package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/storefront/internal/domain/favorites"
)

// ListFavorites handles GET /api/favorites.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	sort, err := parseSort(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	products, err := h.deps.Favorites.List(r.Context(), owner, favorites.Query{
		Category: r.URL.Query().Get("category"),
		Sort:     sort,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProducts(e, products) })
}

// ToggleFavorite handles POST /api/favorites/{id}/toggle.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	favorite, err := h.deps.Favorites.Toggle(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("productId", func(e *jx.Encoder) { e.Str(id) })
			e.Field("favorite", func(e *jx.Encoder) { e.Bool(favorite) })
		})
	})
}
