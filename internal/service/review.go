// Package service contains the business logic layer.
//
// This file implements the review service for product reviews.
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
)

// =============================================================================
// Interface Definition
// =============================================================================

// ReviewService defines the interface for product review operations.
type ReviewService interface {
	// Create adds a review to a product. Requires an authenticated caller.
	// Returns domain.EINVALID for validation errors.
	Create(ctx context.Context, params CreateReviewParams) (*domain.Review, error)

	// ListByProduct retrieves a product's reviews, newest first.
	ListByProduct(ctx context.Context, productID string) ([]domain.Review, error)

	// Delete removes the caller's own review.
	// Returns domain.ENOTFOUND if absent or owned by someone else.
	Delete(ctx context.Context, id, subject string) error
}

// ReviewStore is the record store surface the review service needs.
type ReviewStore interface {
	InsertReview(ctx context.Context, r *domain.Review) error
	ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error)
	DeleteReview(ctx context.Context, id, subject string) error
}

// CreateReviewParams holds the fields for a new review.
type CreateReviewParams struct {
	ProductID string
	Subject   string
	Author    string
	Rating    int
	Body      string
}

// =============================================================================
// Implementation
// =============================================================================

type reviewService struct {
	store    ReviewStore
	products ProductStore
	logger   *slog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store ReviewStore, products ProductStore, logger *slog.Logger) ReviewService {
	return &reviewService{store: store, products: products, logger: logger}
}

func (s *reviewService) Create(ctx context.Context, params CreateReviewParams) (*domain.Review, error) {
	const op = "review.create"

	if params.Subject == "" {
		return nil, domain.Unauthorized(op, "Sign in to leave a review")
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, domain.Invalid(op, "Rating must be between 1 and 5")
	}
	if strings.TrimSpace(params.Body) == "" {
		return nil, domain.Invalid(op, "Review text is required")
	}

	if _, err := s.products.GetProduct(ctx, params.ProductID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(op, "product", params.ProductID)
		}
		return nil, domain.Internal(err, op, "failed to look up product")
	}

	review := &domain.Review{
		ID:        uuid.NewString(),
		ProductID: params.ProductID,
		Subject:   params.Subject,
		Author:    params.Author,
		Rating:    params.Rating,
		Body:      strings.TrimSpace(params.Body),
		CreatedAt: time.Now(),
	}

	if err := s.store.InsertReview(ctx, review); err != nil {
		return nil, domain.Internal(err, op, "failed to create review")
	}

	metrics.ReviewsSubmitted.Inc()
	s.logger.Info("review created", "review_id", review.ID, "product_id", review.ProductID)
	return review, nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	const op = "review.list"

	reviews, err := s.store.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list reviews")
	}
	return reviews, nil
}

func (s *reviewService) Delete(ctx context.Context, id, subject string) error {
	const op = "review.delete"

	if subject == "" {
		return domain.Unauthorized(op, "Sign in to manage your reviews")
	}

	if err := s.store.DeleteReview(ctx, id, subject); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NotFound(op, "review", id)
		}
		return domain.Internal(err, op, "failed to delete review")
	}
	return nil
}
