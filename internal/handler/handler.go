// Package handler exposes the storefront services over HTTP/JSON.
package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/bag"
	"github.com/xenking/storefront/internal/domain/favorites"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// Absolute URLs are returned unchanged.
	ImageBaseURL string
	// MaxBodyBytes bounds request bodies. Defaults to 8 MiB, enough for a
	// base64 profile photo.
	MaxBodyBytes int64
}

// Deps are the services the Handler delegates to.
type Deps struct {
	Products  product.Repository
	Bags      *bag.Service
	Favorites *favorites.Service
	Orders    *order.Service
	Auth      *auth.Service
}

// Handler serves the storefront API.
type Handler struct {
	deps         Deps
	imageBaseURL string
	maxBody      int64
}

// NewHandler creates a Handler.
func NewHandler(cfg Config, deps Deps) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 8 << 20
	}
	return &Handler{
		deps:         deps,
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
		maxBody:      cfg.MaxBodyBytes,
	}
}

// Register mounts the API routes under /api on r.
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.resolveOwner)
	api.NotFoundHandler = http.HandlerFunc(h.notFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)

	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)

	api.HandleFunc("/bag", h.GetBag).Methods(http.MethodGet)
	api.HandleFunc("/bag", h.ClearBag).Methods(http.MethodDelete)
	api.HandleFunc("/bag/items", h.AddBagItem).Methods(http.MethodPost)
	api.HandleFunc("/bag/items/{id}", h.SetBagQuantity).Methods(http.MethodPut)
	api.HandleFunc("/bag/items/{id}", h.RemoveBagItem).Methods(http.MethodDelete)
	api.HandleFunc("/bag/items/{id}/increment", h.IncrementBagItem).Methods(http.MethodPost)
	api.HandleFunc("/bag/items/{id}/decrement", h.DecrementBagItem).Methods(http.MethodPost)

	api.HandleFunc("/favorites", h.ListFavorites).Methods(http.MethodGet)
	api.HandleFunc("/favorites/{id}/toggle", h.ToggleFavorite).Methods(http.MethodPost)

	api.HandleFunc("/checkout", h.GetCheckout).Methods(http.MethodGet)
	api.HandleFunc("/checkout", h.PlaceOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)

	api.HandleFunc("/auth/signup", h.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", h.SignIn).Methods(http.MethodPost)
	api.HandleFunc("/auth/verification", h.ResendVerification).Methods(http.MethodPost)
	api.HandleFunc("/auth/federated", h.SignInFederated).Methods(http.MethodPost)
	api.HandleFunc("/auth/password-reset", h.SendPasswordReset).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", h.SignOut).Methods(http.MethodPost)

	api.HandleFunc("/me", h.CurrentUser).Methods(http.MethodGet)
	api.HandleFunc("/me/photo", h.UpdatePhoto).Methods(http.MethodPut)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeAPIError(w, r, &apiError{status: http.StatusNotFound, message: "not found"})
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIError(w, r, &apiError{status: http.StatusMethodNotAllowed, message: "method not allowed"})
}
