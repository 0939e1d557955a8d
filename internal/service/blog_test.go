package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/modessa/modessa/internal/domain"
)

type fakePostStore struct {
	posts map[string]*domain.Post // keyed by slug
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[string]*domain.Post)}
}

func (s *fakePostStore) InsertPost(ctx context.Context, p *domain.Post) error {
	s.posts[p.Slug] = p
	return nil
}

func (s *fakePostStore) GetPostBySlug(ctx context.Context, slug string) (*domain.Post, error) {
	p, ok := s.posts[slug]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return p, nil
}

func (s *fakePostStore) ListPosts(ctx context.Context, publishedOnly bool) ([]domain.Post, error) {
	out := []domain.Post{}
	for _, p := range s.posts {
		if !publishedOnly || p.Published {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakePostStore) UpdatePost(ctx context.Context, p *domain.Post) error {
	for slug, existing := range s.posts {
		if existing.ID == p.ID {
			delete(s.posts, slug)
			s.posts[p.Slug] = p
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (s *fakePostStore) DeletePost(ctx context.Context, id string) error {
	for slug, existing := range s.posts {
		if existing.ID == id {
			delete(s.posts, slug)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Summer Looks 2025", "summer-looks-2025"},
		{"  Style  &  Fit  ", "style-fit"},
		{"Déjà vu!", "d-j-vu"},
		{"---", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.title), "title %q", tt.title)
	}
}

func TestBlogCreate_DerivesSlug(t *testing.T) {
	svc := NewBlogService(newFakePostStore(), discardLogger())

	post, err := svc.Create(context.Background(), CreatePostParams{
		Title:     "How to Shoot a Great Try-On Photo",
		Body:      "Stand in front of a plain wall...",
		Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "how-to-shoot-a-great-try-on-photo", post.Slug)
}

func TestBlogGetBySlug_HidesDrafts(t *testing.T) {
	posts := newFakePostStore()
	svc := NewBlogService(posts, discardLogger())

	draft, err := svc.Create(context.Background(), CreatePostParams{
		Title: "Unreleased", Body: "soon", Published: false,
	})
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), draft.Slug, false)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	got, err := svc.GetBySlug(context.Background(), draft.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestReviewCreate_Validation(t *testing.T) {
	reviews := &fakeReviewStore{}
	svc := NewReviewService(reviews, newFakeProductStore(shirt()), discardLogger())

	_, err := svc.Create(context.Background(), CreateReviewParams{ProductID: "p1", Rating: 5, Body: "Great"})
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err), "anonymous reviews are rejected")

	_, err = svc.Create(context.Background(), CreateReviewParams{ProductID: "p1", Subject: "u1", Rating: 6, Body: "Great"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = svc.Create(context.Background(), CreateReviewParams{ProductID: "ghost", Subject: "u1", Rating: 5, Body: "Great"})
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	review, err := svc.Create(context.Background(), CreateReviewParams{
		ProductID: "p1", Subject: "u1", Author: "Ada", Rating: 5, Body: "  Great fit  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Great fit", review.Body)
}

type fakeReviewStore struct {
	reviews []*domain.Review
}

func (s *fakeReviewStore) InsertReview(ctx context.Context, r *domain.Review) error {
	s.reviews = append(s.reviews, r)
	return nil
}

func (s *fakeReviewStore) ListReviewsByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	for _, r := range s.reviews {
		if r.ProductID == productID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *fakeReviewStore) DeleteReview(ctx context.Context, id, subject string) error {
	for i, r := range s.reviews {
		if r.ID == id && r.Subject == subject {
			s.reviews = append(s.reviews[:i], s.reviews[i+1:]...)
			return nil
		}
	}
	return mongo.ErrNoDocuments
}
