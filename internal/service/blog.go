// Package service contains the business logic layer.
//
// This file implements the blog service for storefront editorial posts.
package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/modessa/modessa/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// BlogService defines the interface for blog post operations.
type BlogService interface {
	// Create adds a new post. The slug is derived from the title when
	// empty. Returns domain.EINVALID for validation errors and
	// domain.ECONFLICT on a duplicate slug.
	Create(ctx context.Context, params CreatePostParams) (*domain.Post, error)

	// GetBySlug retrieves a post by slug. Unpublished posts are only
	// visible when includeDrafts is set (admin callers).
	GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*domain.Post, error)

	// List retrieves posts, newest first. Drafts are excluded unless
	// includeDrafts is set.
	List(ctx context.Context, includeDrafts bool) ([]domain.Post, error)

	// Update replaces a post's mutable fields.
	Update(ctx context.Context, post *domain.Post) error

	// Delete removes a post.
	Delete(ctx context.Context, id string) error
}

// PostStore is the record store surface the blog service needs.
type PostStore interface {
	InsertPost(ctx context.Context, p *domain.Post) error
	GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error)
	ListPosts(ctx context.Context, publishedOnly bool) ([]domain.Post, error)
	UpdatePost(ctx context.Context, p *domain.Post) error
	DeletePost(ctx context.Context, id string) error
}

// CreatePostParams holds the fields for a new post.
type CreatePostParams struct {
	Slug      string
	Title     string
	Body      string
	CoverURL  string
	Published bool
}

// =============================================================================
// Implementation
// =============================================================================

type blogService struct {
	store  PostStore
	logger *slog.Logger
}

// NewBlogService creates a new BlogService.
func NewBlogService(store PostStore, logger *slog.Logger) BlogService {
	return &blogService{store: store, logger: logger}
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a URL slug.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func (s *blogService) Create(ctx context.Context, params CreatePostParams) (*domain.Post, error) {
	const op = "blog.create"

	if strings.TrimSpace(params.Title) == "" {
		return nil, domain.Invalid(op, "A post title is required")
	}
	if strings.TrimSpace(params.Body) == "" {
		return nil, domain.Invalid(op, "Post content is required")
	}

	slug := params.Slug
	if slug == "" {
		slug = Slugify(params.Title)
	}
	if slug == "" {
		return nil, domain.Invalid(op, "Could not derive a slug from the title")
	}

	now := time.Now()
	post := &domain.Post{
		ID:        uuid.NewString(),
		Slug:      slug,
		Title:     strings.TrimSpace(params.Title),
		Body:      params.Body,
		CoverURL:  params.CoverURL,
		Published: params.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.InsertPost(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.Conflict(op, "A post with this slug already exists")
		}
		return nil, domain.Internal(err, op, "failed to create post")
	}

	s.logger.Info("post created", "post_id", post.ID, "slug", post.Slug)
	return post, nil
}

func (s *blogService) GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*domain.Post, error) {
	const op = "blog.get"

	post, err := s.store.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound(op, "post", slug)
		}
		return nil, domain.Internal(err, op, "failed to fetch post")
	}
	if !post.Published && !includeDrafts {
		return nil, domain.NotFound(op, "post", slug)
	}
	return post, nil
}

func (s *blogService) List(ctx context.Context, includeDrafts bool) ([]domain.Post, error) {
	const op = "blog.list"

	posts, err := s.store.ListPosts(ctx, !includeDrafts)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list posts")
	}
	return posts, nil
}

func (s *blogService) Update(ctx context.Context, post *domain.Post) error {
	const op = "blog.update"

	if post.ID == "" {
		return domain.Invalid(op, "Post ID is required")
	}
	if strings.TrimSpace(post.Title) == "" {
		return domain.Invalid(op, "A post title is required")
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}

	if err := s.store.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NotFound(op, "post", post.ID)
		}
		return domain.Internal(err, op, "failed to update post")
	}
	return nil
}

func (s *blogService) Delete(ctx context.Context, id string) error {
	const op = "blog.delete"

	if err := s.store.DeletePost(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NotFound(op, "post", id)
		}
		return domain.Internal(err, op, "failed to delete post")
	}
	return nil
}
