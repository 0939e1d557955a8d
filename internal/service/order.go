// Package service contains the business logic layer.
//
// This file implements the order service. Payment is cash on delivery;
// placing an order records it and fires notifications, nothing more.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/metrics"
	"github.com/modessa/modessa/internal/notify"
)

// =============================================================================
// Interface Definition
// =============================================================================

// OrderService defines the interface for order operations.
type OrderService interface {
	// Place records a new cash-on-delivery order and fires buyer and ops
	// notifications. Notification failures never fail the order.
	// Returns domain.EINVALID for validation errors.
	Place(ctx context.Context, params PlaceOrderParams) (*domain.Order, error)

	// Get retrieves an order by ID, restricted to its buyer.
	// Returns domain.ENOTFOUND if absent or owned by someone else.
	Get(ctx context.Context, id, subject string) (*domain.Order, error)

	// ListMine retrieves the caller's orders, newest first.
	ListMine(ctx context.Context, subject string) ([]domain.Order, error)

	// UpdateStatus advances an order through fulfilment (admin only,
	// enforced by the handler).
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// OrderStore is the record store surface the order service needs.
type OrderStore interface {
	InsertOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersBySubject(ctx context.Context, subject string) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// PlaceOrderParams holds the checkout form fields.
type PlaceOrderParams struct {
	Subject string
	Email   string
	Name    string
	Phone   string
	Address string
	Items   []domain.OrderItem
}

// =============================================================================
// Implementation
// =============================================================================

type orderService struct {
	store    OrderStore
	products ProductStore
	notifier notify.Sender
	logger   *slog.Logger
}

// NewOrderService creates a new OrderService. notifier may be nil, in
// which case no notifications are sent.
func NewOrderService(store OrderStore, products ProductStore, notifier notify.Sender, logger *slog.Logger) OrderService {
	return &orderService{
		store:    store,
		products: products,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *orderService) Place(ctx context.Context, params PlaceOrderParams) (*domain.Order, error) {
	const op = "order.place"

	if strings.TrimSpace(params.Name) == "" {
		return nil, domain.Invalid(op, "A delivery name is required")
	}
	if strings.TrimSpace(params.Address) == "" {
		return nil, domain.Invalid(op, "A delivery address is required")
	}
	if strings.TrimSpace(params.Phone) == "" {
		return nil, domain.Invalid(op, "A contact phone number is required")
	}
	if len(params.Items) == 0 {
		return nil, domain.Invalid(op, "An order needs at least one item")
	}

	// Prices come from the catalog, never from the client.
	var total int64
	items := make([]domain.OrderItem, 0, len(params.Items))
	for _, item := range params.Items {
		if item.Quantity <= 0 {
			return nil, domain.Invalid(op, "Item quantity must be positive")
		}
		product, err := s.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.NotFound(op, "product", item.ProductID)
			}
			return nil, domain.Internal(err, op, "failed to look up product")
		}
		if !product.InStock {
			return nil, domain.Invalid(op, product.Name+" is out of stock")
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitCents: product.PriceCents,
		})
		total += product.PriceCents * int64(item.Quantity)
	}

	now := time.Now()
	order := &domain.Order{
		ID:         uuid.NewString(),
		Subject:    params.Subject,
		Email:      params.Email,
		Name:       strings.TrimSpace(params.Name),
		Phone:      strings.TrimSpace(params.Phone),
		Address:    strings.TrimSpace(params.Address),
		Items:      items,
		TotalCents: total,
		Status:     domain.OrderStatusPlaced,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.InsertOrder(ctx, order); err != nil {
		return nil, domain.Internal(err, op, "failed to place order")
	}

	metrics.OrdersPlaced.Inc()
	s.logger.Info("order placed",
		"order_id", order.ID,
		"items", len(order.Items),
		"total_cents", order.TotalCents,
	)

	s.sendNotifications(order)
	return order, nil
}

// sendNotifications fires the order notifications in the background with
// a fresh context so a completed request cannot cancel them.
func (s *orderService) sendNotifications(order *domain.Order) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.notifier.OrderConfirmation(ctx, order); err != nil {
			s.logger.Error("failed to send order confirmation", "error", err, "order_id", order.ID)
		}
		if err := s.notifier.OrderAlert(ctx, order); err != nil {
			s.logger.Error("failed to send order alert", "error", err, "order_id", order.ID)
		}
	}()
}

func (s *orderService) Get(ctx context.Context, id, subject string) (*domain.Order, error) {
	const op = "order.get"

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(op, "order", id)
		}
		return nil, domain.Internal(err, op, "failed to fetch order")
	}
	if order.Subject != subject {
		// Hide other buyers' orders entirely.
		return nil, domain.NotFound(op, "order", id)
	}
	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, subject string) ([]domain.Order, error) {
	const op = "order.list"

	if subject == "" {
		return nil, domain.Unauthorized(op, "Sign in to see your orders")
	}

	orders, err := s.store.ListOrdersBySubject(ctx, subject)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	return orders, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	const op = "order.update_status"

	switch status {
	case domain.OrderStatusPlaced, domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled:
	default:
		return domain.Invalid(op, "Unknown order status")
	}

	if err := s.store.UpdateOrderStatus(ctx, id, status); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NotFound(op, "order", id)
		}
		return domain.Internal(err, op, "failed to update order status")
	}

	s.logger.Info("order status updated", "order_id", id, "status", status)
	return nil
}
