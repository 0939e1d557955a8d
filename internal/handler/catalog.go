// Package handler contains HTTP handlers for the Modessa API.
//
// This file implements the product catalog and review endpoints. Reads are
// public; catalog mutations sit behind the admin key guard.
package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/identity"
	"github.com/modessa/modessa/internal/service"
	"github.com/modessa/modessa/internal/storage"
)

// =============================================================================
// Handler
// =============================================================================

// CatalogHandler serves product and review endpoints.
type CatalogHandler struct {
	catalog service.CatalogService
	reviews service.ReviewService
	images  storage.Storage
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog service.CatalogService, reviews service.ReviewService, images storage.Storage, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		reviews: reviews,
		images:  images,
		logger:  logger,
	}
}

// RegisterRoutes registers catalog routes. requireAdmin guards mutations,
// requireAuth guards review submission.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin, requireAuth func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/products", h.List)
	mux.HandleFunc("GET /api/products/{id}", h.Get)
	mux.Handle("POST /api/products", requireAdmin(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/products/{id}", requireAdmin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/products/{id}", requireAdmin(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/products/{id}/image", requireAdmin(http.HandlerFunc(h.UploadImage)))

	mux.HandleFunc("GET /api/products/{id}/reviews", h.ListReviews)
	mux.Handle("POST /api/products/{id}/reviews", requireAuth(http.HandlerFunc(h.CreateReview)))
	mux.Handle("DELETE /api/reviews/{id}", requireAuth(http.HandlerFunc(h.DeleteReview)))
}

// =============================================================================
// Products
// =============================================================================

// productRequest carries the mutable fields for create and update.
type productRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"image_url"`
	GalleryURLs []string `json:"gallery_urls"`
	Sizes       []string `json:"sizes"`
	InStock     bool     `json:"in_stock"`
}

// List returns a page of products.
// GET /api/products?category=&limit=&offset=
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 64)

	products, err := h.catalog.List(r.Context(), domain.GarmentCategory(q.Get("category")), limit, offset)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// Get returns a single product.
// GET /api/products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create adds a product to the catalog.
// POST /api/products
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.product_create", "Invalid request body"))
		return
	}

	product, err := h.catalog.Create(r.Context(), service.CreateProductParams{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Category:    domain.GarmentCategory(req.Category),
		ImageURL:    req.ImageURL,
		GalleryURLs: req.GalleryURLs,
		Sizes:       req.Sizes,
		InStock:     req.InStock,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update replaces a product's mutable fields.
// PUT /api/products/{id}
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.product_update", "Invalid request body"))
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.PriceCents = req.PriceCents
	existing.Category = domain.GarmentCategory(req.Category)
	existing.ImageURL = req.ImageURL
	existing.GalleryURLs = req.GalleryURLs
	existing.Sizes = req.Sizes
	existing.InStock = req.InStock

	if err := h.catalog.Update(r.Context(), existing); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// UploadImage stores a catalog photo for the product and points the
// product's image URL at it. Multipart field: "image".
// POST /api/products/{id}/image
func (h *CatalogHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	const op = "handler.product_image"

	product, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadBytes)
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Image is too large"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Missing image file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	contentType := storage.DetectContentType(header.Header.Get("Content-Type"), header.Filename, bytes.NewReader(data))
	if !domain.IsValidImageContentType(contentType) {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Unsupported image type"))
		return
	}

	key := storage.ProductImageKey(product.ID, header.Filename)
	err = h.images.Put(r.Context(), key, bytes.NewReader(data), storage.PutOptions{
		ContentType: contentType,
		Public:      true,
	})
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	url, err := h.images.URL(r.Context(), key, 0)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	product.ImageURL = url
	if err := h.catalog.Update(r.Context(), product); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"image_url": url})
}

// Delete removes a product.
// DELETE /api/products/{id}
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Reviews
// =============================================================================

// ListReviews returns a product's reviews, newest first.
// GET /api/products/{id}/reviews
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListByProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// CreateReview adds a review from the signed-in caller.
// POST /api/products/{id}/reviews
func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	viewer := identity.FromContext(r.Context())

	var req struct {
		Author string `json:"author"`
		Rating int    `json:"rating"`
		Body   string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.review_create", "Invalid request body"))
		return
	}

	review, err := h.reviews.Create(r.Context(), service.CreateReviewParams{
		ProductID: r.PathValue("id"),
		Subject:   viewer.Subject,
		Author:    req.Author,
		Rating:    req.Rating,
		Body:      req.Body,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// DeleteReview removes the caller's own review.
// DELETE /api/reviews/{id}
func (h *CatalogHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	viewer := identity.FromContext(r.Context())

	if err := h.reviews.Delete(r.Context(), r.PathValue("id"), viewer.Subject); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
