// Package handler contains HTTP handlers for the Modessa API.
//
// This file implements the blog endpoints. Readers see published posts;
// the admin key unlocks drafts and mutations.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/service"
)

// =============================================================================
// Handler
// =============================================================================

// BlogHandler serves the blog endpoints.
type BlogHandler struct {
	blog   service.BlogService
	logger *slog.Logger
}

// NewBlogHandler creates a new blog handler.
func NewBlogHandler(blog service.BlogService, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{
		blog:   blog,
		logger: logger,
	}
}

// RegisterRoutes registers blog routes.
func (h *BlogHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/posts", h.List)
	mux.HandleFunc("GET /api/posts/{slug}", h.Get)
	mux.Handle("POST /api/posts", requireAdmin(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /api/posts/{slug}", requireAdmin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/posts/{slug}", requireAdmin(http.HandlerFunc(h.Delete)))
}

// postRequest carries the mutable post fields.
type postRequest struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CoverURL  string `json:"cover_url"`
	Published bool   `json:"published"`
}

// =============================================================================
// Endpoints
// =============================================================================

// List returns posts, newest first. Drafts are excluded for readers.
// GET /api/posts
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.List(r.Context(), false)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// Get returns one published post by slug.
// GET /api/posts/{slug}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.GetBySlug(r.Context(), r.PathValue("slug"), false)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// Create adds a post.
// POST /api/posts
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.post_create", "Invalid request body"))
		return
	}

	post, err := h.blog.Create(r.Context(), service.CreatePostParams{
		Slug:      req.Slug,
		Title:     req.Title,
		Body:      req.Body,
		CoverURL:  req.CoverURL,
		Published: req.Published,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// Update replaces a post's mutable fields.
// PUT /api/posts/{slug}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, err := h.blog.GetBySlug(r.Context(), r.PathValue("slug"), true)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.post_update", "Invalid request body"))
		return
	}

	existing.Title = req.Title
	existing.Body = req.Body
	existing.CoverURL = req.CoverURL
	existing.Published = req.Published

	if err := h.blog.Update(r.Context(), existing); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, existing)
}

// Delete removes a post.
// DELETE /api/posts/{slug}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, err := h.blog.GetBySlug(r.Context(), r.PathValue("slug"), true)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.blog.Delete(r.Context(), post.ID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
