package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/domain"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/internal/service"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/httputil"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/middleware"
	"github.com/ChristopheBouriel/restoh-frontend-sub000/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a menu item to the cart.
type AddItemRequest struct {
	ItemID string `json:"item_id" validate:"required,max=128"`
}

// UpdateQuantityRequest is the JSON request body for setting an item's quantity.
// Zero or a negative quantity removes the line; the bound matches domain.MaxQuantity.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=100"`
}

// ItemStatusResponse answers whether one item is in the cart.
type ItemStatusResponse struct {
	ItemID   string `json:"item_id"`
	InCart   bool   `json:"in_cart"`
	Quantity int    `json:"quantity"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.ClearCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	h.writeCart(w, r, cart, err)
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.AddItemByID(r.Context(), middleware.UserIDFromContext(r.Context()), req.ItemID)
	h.writeCart(w, r, cart, err)
}

// GetItem handles GET /api/v1/cart/items/{itemId}
func (h *CartHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	cart, err := h.service.GetCart(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ItemStatusResponse{
		ItemID:   itemID,
		InCart:   cart.Contains(itemID),
		Quantity: cart.Quantity(itemID),
	}})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{itemId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "itemId"), *req.Quantity)
	h.writeCart(w, r, cart, err)
}

// IncrementItem handles POST /api/v1/cart/items/{itemId}/increment
func (h *CartHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.IncrementQuantity(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "itemId"))
	h.writeCart(w, r, cart, err)
}

// DecrementItem handles POST /api/v1/cart/items/{itemId}/decrement
func (h *CartHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.DecrementQuantity(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "itemId"))
	h.writeCart(w, r, cart, err)
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.RemoveItem(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "itemId"))
	h.writeCart(w, r, cart, err)
}

// --- Helpers ---

// writeCart responds with the reconciled view of a freshly mutated cart.
func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, cart *domain.Cart, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.ViewOf(cart)})
}
