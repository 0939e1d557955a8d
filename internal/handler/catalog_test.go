package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/identity"
	"github.com/modessa/modessa/internal/middleware"
	"github.com/modessa/modessa/internal/service"
)

// =============================================================================
// Stub services
// =============================================================================

type stubCatalog struct {
	products map[string]*domain.Product
}

func newStubCatalog(products ...*domain.Product) *stubCatalog {
	s := &stubCatalog{products: make(map[string]*domain.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubCatalog) Create(ctx context.Context, params service.CreateProductParams) (*domain.Product, error) {
	if params.Name == "" {
		return nil, domain.Invalid("catalog.create", "Product name is required")
	}
	p := &domain.Product{
		ID:         "p-new",
		Name:       params.Name,
		PriceCents: params.PriceCents,
		Category:   params.Category,
		ImageURL:   params.ImageURL,
		InStock:    params.InStock,
	}
	s.products[p.ID] = p
	return p, nil
}

func (s *stubCatalog) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, domain.NotFound("catalog.get", "product", id)
	}
	out := *p
	return &out, nil
}

func (s *stubCatalog) List(ctx context.Context, category domain.GarmentCategory, limit, offset int64) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range s.products {
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubCatalog) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := s.products[product.ID]; !ok {
		return domain.NotFound("catalog.update", "product", product.ID)
	}
	s.products[product.ID] = product
	return nil
}

func (s *stubCatalog) Delete(ctx context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return domain.NotFound("catalog.delete", "product", id)
	}
	delete(s.products, id)
	return nil
}

type stubReviews struct {
	created []service.CreateReviewParams
}

func (s *stubReviews) Create(ctx context.Context, params service.CreateReviewParams) (*domain.Review, error) {
	if params.Subject == "" {
		return nil, domain.Unauthorized("review.create", "Sign in to leave a review")
	}
	s.created = append(s.created, params)
	return &domain.Review{ID: "r-1", ProductID: params.ProductID, Subject: params.Subject, Rating: params.Rating, Body: params.Body}, nil
}

func (s *stubReviews) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	return []domain.Review{{ID: "r-1", ProductID: productID, Rating: 5, Body: "Fits great"}}, nil
}

func (s *stubReviews) Delete(ctx context.Context, id, subject string) error {
	return nil
}

// =============================================================================
// Harness
// =============================================================================

const testAdminKey = "test-admin-key"

// withViewer injects an authenticated identity, standing in for the JWT
// verification middleware.
func withViewer(subject string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := domain.Identity{Subject: subject, Email: subject + "@example.com", Tier: domain.TierRegistered}
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}

func newCatalogMux(catalog *stubCatalog, reviews *stubReviews, images *stubStorage, viewer string) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := middleware.NewAdminKeyMiddleware(testAdminKey)

	requireAuth := func(next http.Handler) http.Handler {
		if viewer == "" {
			return middleware.RequireAuth(next)
		}
		return withViewer(viewer, next)
	}

	mux := http.NewServeMux()
	NewCatalogHandler(catalog, reviews, images, logger).RegisterRoutes(mux, admin.Handler, requireAuth)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func linenShirt() *domain.Product {
	return &domain.Product{
		ID:         "p1",
		Name:       "Linen Shirt",
		PriceCents: 4500,
		Category:   domain.GarmentCategoryUpperBody,
		ImageURL:   "https://cdn.modessa.shop/garments/linen.jpg",
		InStock:    true,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestProducts_ListAndGet(t *testing.T) {
	mux := newCatalogMux(newStubCatalog(linenShirt()), &stubReviews{}, newStubStorage(), "")

	rec := doJSON(t, mux, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Products []domain.Product `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Linen Shirt", list.Products[0].Name)

	rec = doJSON(t, mux, http.MethodGet, "/api/products/p1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/products/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_MutationsRequireAdminKey(t *testing.T) {
	mux := newCatalogMux(newStubCatalog(), &stubReviews{}, newStubStorage(), "")

	payload := map[string]any{"name": "Wrap Dress", "price_cents": 8900, "category": "dresses"}

	rec := doJSON(t, mux, http.MethodPost, "/api/products", payload, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/products", payload, map[string]string{"X-Admin-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/products", payload, map[string]string{"X-Admin-Key": testAdminKey})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestProducts_ImageUploadRequiresAdminKey(t *testing.T) {
	mux := newCatalogMux(newStubCatalog(linenShirt()), &stubReviews{}, newStubStorage(), "")

	rec := doJSON(t, mux, http.MethodPost, "/api/products/p1/image", nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProducts_ImageUploadSetsProductImage(t *testing.T) {
	catalog := newStubCatalog(linenShirt())
	images := newStubStorage()
	mux := newCatalogMux(catalog, &stubReviews{}, images, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="image"; filename="front.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	require.NoError(t, err)
	_, err = part.Write(testPhoto(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/p1/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Admin-Key", testAdminKey)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ImageURL string `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.ImageURL, "stub://products/p1/images/"), resp.ImageURL)
	assert.True(t, strings.HasSuffix(resp.ImageURL, ".jpg"), resp.ImageURL)

	updated, err := catalog.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, resp.ImageURL, updated.ImageURL)
}

func TestReviews_RequireSignIn(t *testing.T) {
	mux := newCatalogMux(newStubCatalog(linenShirt()), &stubReviews{}, newStubStorage(), "")

	rec := doJSON(t, mux, http.MethodPost, "/api/products/p1/reviews", map[string]any{
		"rating": 5, "body": "Fits great",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReviews_CreateCarriesCallerSubject(t *testing.T) {
	reviews := &stubReviews{}
	mux := newCatalogMux(newStubCatalog(linenShirt()), reviews, newStubStorage(), "user-7")

	rec := doJSON(t, mux, http.MethodPost, "/api/products/p1/reviews", map[string]any{
		"author": "Dana", "rating": 4, "body": "Runs a little long",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, reviews.created, 1)
	assert.Equal(t, "user-7", reviews.created[0].Subject)
	assert.Equal(t, "p1", reviews.created[0].ProductID)
}
