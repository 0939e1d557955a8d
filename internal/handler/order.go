// Package handler contains HTTP handlers for the Modessa API.
//
// This file implements the cash-on-delivery order endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/identity"
	"github.com/modessa/modessa/internal/service"
)

// =============================================================================
// Handler
// =============================================================================

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	orders service.OrderService
	logger *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// RegisterRoutes registers order routes. requireAuth guards the buyer
// endpoints; requireAdmin guards fulfilment updates.
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("POST /api/orders", requireAuth(http.HandlerFunc(h.Place)))
	mux.Handle("GET /api/orders", requireAuth(http.HandlerFunc(h.ListMine)))
	mux.Handle("GET /api/orders/{id}", requireAuth(http.HandlerFunc(h.Get)))
	mux.Handle("PATCH /api/orders/{id}/status", requireAdmin(http.HandlerFunc(h.UpdateStatus)))
}

// =============================================================================
// Endpoints
// =============================================================================

// Place records a new order. Prices are resolved from the catalog; the
// client only names products, sizes, and quantities.
// POST /api/orders
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	viewer := identity.FromContext(r.Context())

	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
		Items   []struct {
			ProductID string `json:"product_id"`
			Size      string `json:"size"`
			Quantity  int    `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_place", "Invalid request body"))
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
		})
	}

	order, err := h.orders.Place(r.Context(), service.PlaceOrderParams{
		Subject: viewer.Subject,
		Email:   viewer.Email,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Items:   items,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// ListMine returns the caller's orders, newest first.
// GET /api/orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	viewer := identity.FromContext(r.Context())

	orders, err := h.orders.ListMine(r.Context(), viewer.Subject)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

// Get returns one of the caller's orders.
// GET /api/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer := identity.FromContext(r.Context())

	order, err := h.orders.Get(r.Context(), r.PathValue("id"), viewer.Subject)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus advances an order through fulfilment.
// PATCH /api/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.order_status", "Invalid request body"))
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), domain.OrderStatus(req.Status)); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
