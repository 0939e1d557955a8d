// Package notify sends transactional notifications for store events.
//
// This package defines a Sender interface with implementations for:
// - SendGrid: Customer-facing order emails
// - ChatWebhook: Ops channel alerts for new orders
//
// Notification failures are logged by callers and never fail the
// operation that triggered them.
package notify

import (
	"context"

	"github.com/modessa/modessa/internal/domain"
)

// Sender defines the interface for order notifications.
//
// All methods are context-aware for timeout and cancellation support.
type Sender interface {
	// OrderConfirmation notifies the buyer that their cash-on-delivery
	// order was placed.
	OrderConfirmation(ctx context.Context, order *domain.Order) error

	// OrderAlert notifies the operations channel about a new order so it
	// can be packed and dispatched.
	OrderAlert(ctx context.Context, order *domain.Order) error
}

// =============================================================================
// Fan-out
// =============================================================================

// Multi fans a notification out to several senders. Errors are collected;
// one failing sender does not stop the others.
type Multi []Sender

func (m Multi) OrderConfirmation(ctx context.Context, order *domain.Order) error {
	var firstErr error
	for _, s := range m {
		if err := s.OrderConfirmation(ctx, order); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) OrderAlert(ctx context.Context, order *domain.Order) error {
	var firstErr error
	for _, s := range m {
		if err := s.OrderAlert(ctx, order); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultFromEmail is the default sender for transactional emails.
	DefaultFromEmail = "orders@modessa.shop"

	// DefaultFromName is the default sender display name.
	DefaultFromName = "Modessa"
)
