package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/middleware"
	"github.com/modessa/modessa/internal/service"
)

type stubOrders struct {
	placed []service.PlaceOrderParams
	status map[string]domain.OrderStatus
}

func (s *stubOrders) Place(ctx context.Context, params service.PlaceOrderParams) (*domain.Order, error) {
	if len(params.Items) == 0 {
		return nil, domain.Invalid("order.place", "Order must contain at least one item")
	}
	s.placed = append(s.placed, params)
	return &domain.Order{ID: "ord-1", Subject: params.Subject, Status: domain.OrderStatusPlaced}, nil
}

func (s *stubOrders) Get(ctx context.Context, id, subject string) (*domain.Order, error) {
	return &domain.Order{ID: id, Subject: subject}, nil
}

func (s *stubOrders) ListMine(ctx context.Context, subject string) ([]domain.Order, error) {
	return []domain.Order{{ID: "ord-1", Subject: subject}}, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if s.status == nil {
		s.status = make(map[string]domain.OrderStatus)
	}
	s.status[id] = status
	return nil
}

func newOrderMux(orders *stubOrders, viewer string) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := middleware.NewAdminKeyMiddleware(testAdminKey)

	requireAuth := func(next http.Handler) http.Handler {
		if viewer == "" {
			return middleware.RequireAuth(next)
		}
		return withViewer(viewer, next)
	}

	mux := http.NewServeMux()
	NewOrderHandler(orders, logger).RegisterRoutes(mux, admin.Handler, requireAuth)
	return mux
}

func TestOrders_PlaceRequiresSignIn(t *testing.T) {
	mux := newOrderMux(&stubOrders{}, "")

	rec := doJSON(t, mux, http.MethodPost, "/api/orders", map[string]any{
		"name": "Dana", "phone": "555-0100", "address": "12 Rue Modessa",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrders_PlaceUsesCallerIdentity(t *testing.T) {
	orders := &stubOrders{}
	mux := newOrderMux(orders, "user-7")

	rec := doJSON(t, mux, http.MethodPost, "/api/orders", map[string]any{
		"name":    "Dana",
		"phone":   "555-0100",
		"address": "12 Rue Modessa",
		"items": []map[string]any{
			// Client-supplied prices are ignored; only the product reference travels.
			{"product_id": "p1", "size": "M", "quantity": 2, "unit_cents": 1},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, orders.placed, 1)
	placed := orders.placed[0]
	assert.Equal(t, "user-7", placed.Subject)
	assert.Equal(t, "user-7@example.com", placed.Email)
	require.Len(t, placed.Items, 1)
	assert.Zero(t, placed.Items[0].UnitCents)
}

func TestOrders_StatusUpdateRequiresAdminKey(t *testing.T) {
	orders := &stubOrders{}
	mux := newOrderMux(orders, "user-7")

	rec := doJSON(t, mux, http.MethodPatch, "/api/orders/ord-1/status", map[string]any{
		"status": "shipped",
	}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, mux, http.MethodPatch, "/api/orders/ord-1/status", map[string]any{
		"status": "shipped",
	}, map[string]string{"X-Admin-Key": testAdminKey})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, domain.OrderStatusShipped, orders.status["ord-1"])
}
