// Package service contains the business logic layer.
//
// This file implements the catalog service for managing storefront
// products.
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
	"github.com/modessa/modessa/internal/store"
)

// =============================================================================
// Interface Definition
// =============================================================================

// CatalogService defines the interface for product catalog operations.
type CatalogService interface {
	// Create adds a new product to the catalog.
	// Returns domain.EINVALID for validation errors.
	Create(ctx context.Context, params CreateProductParams) (*domain.Product, error)

	// Get retrieves a product by ID.
	// Returns domain.ENOTFOUND if the product does not exist.
	Get(ctx context.Context, id string) (*domain.Product, error)

	// List retrieves a page of products, optionally filtered by category.
	List(ctx context.Context, category domain.GarmentCategory, limit, offset int64) ([]domain.Product, error)

	// Update replaces a product's mutable fields.
	// Returns domain.ENOTFOUND if the product does not exist.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product from the catalog.
	// Returns domain.ENOTFOUND if the product does not exist.
	Delete(ctx context.Context, id string) error
}

// ProductStore is the record store surface the catalog service needs.
type ProductStore interface {
	InsertProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, params store.ListProductsParams) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// CreateProductParams holds the fields for a new product.
type CreateProductParams struct {
	Name        string
	Description string
	PriceCents  int64
	Category    domain.GarmentCategory
	ImageURL    string
	GalleryURLs []string
	Sizes       []string
	InStock     bool
}

// =============================================================================
// Implementation
// =============================================================================

type catalogService struct {
	store  ProductStore
	logger *slog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(store ProductStore, logger *slog.Logger) CatalogService {
	return &catalogService{store: store, logger: logger}
}

func (s *catalogService) Create(ctx context.Context, params CreateProductParams) (*domain.Product, error) {
	const op = "catalog.create"

	if strings.TrimSpace(params.Name) == "" {
		return nil, domain.Invalid(op, "Product name is required")
	}
	if params.PriceCents <= 0 {
		return nil, domain.Invalid(op, "Price must be positive")
	}
	if !params.Category.IsValid() {
		return nil, domain.Invalid(op, "Unknown garment category")
	}
	if params.ImageURL == "" {
		return nil, domain.Invalid(op, "A product image is required")
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(params.Name),
		Description: params.Description,
		PriceCents:  params.PriceCents,
		Category:    params.Category,
		ImageURL:    params.ImageURL,
		GalleryURLs: params.GalleryURLs,
		Sizes:       params.Sizes,
		InStock:     params.InStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.InsertProduct(ctx, product); err != nil {
		return nil, domain.Internal(err, op, "failed to create product")
	}

	s.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

func (s *catalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	const op = "catalog.get"

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(op, "product", id)
		}
		return nil, domain.Internal(err, op, "failed to fetch product")
	}
	return product, nil
}

func (s *catalogService) List(ctx context.Context, category domain.GarmentCategory, limit, offset int64) ([]domain.Product, error) {
	const op = "catalog.list"

	if category != "" && !category.IsValid() {
		return nil, domain.Invalid(op, "Unknown garment category")
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.store.ListProducts(ctx, store.ListProductsParams{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}
	return products, nil
}

func (s *catalogService) Update(ctx context.Context, product *domain.Product) error {
	const op = "catalog.update"

	if product.ID == "" {
		return domain.Invalid(op, "Product ID is required")
	}
	if strings.TrimSpace(product.Name) == "" {
		return domain.Invalid(op, "Product name is required")
	}
	if !product.Category.IsValid() {
		return domain.Invalid(op, "Unknown garment category")
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NotFound(op, "product", product.ID)
		}
		return domain.Internal(err, op, "failed to update product")
	}
	return nil
}

func (s *catalogService) Delete(ctx context.Context, id string) error {
	const op = "catalog.delete"

	if err := s.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NotFound(op, "product", id)
		}
		return domain.Internal(err, op, "failed to delete product")
	}

	s.logger.Info("product deleted", "product_id", id)
	return nil
}
