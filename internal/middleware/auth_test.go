package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/identity"
)

const testSecret = "test-signing-secret"

type stubPurchases struct {
	purchased bool
	err       error
}

func (s stubPurchases) HasCompletedOrder(ctx context.Context, subject string) (bool, error) {
	return s.purchased, s.err
}

func signToken(t *testing.T, subject, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newTestVerifier(t *testing.T, purchases identity.PurchaseChecker) *identity.Verifier {
	t.Helper()
	verifier, err := identity.NewVerifier(testSecret, purchases, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return verifier
}

// =============================================================================
// Device Middleware Tests
// =============================================================================

func TestDeviceMiddleware_MintsCookie(t *testing.T) {
	mw := NewDeviceMiddleware(false)

	var deviceID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID = GetDeviceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if deviceID == "" {
		t.Fatal("expected a device id on the context")
	}

	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == DeviceCookieName {
			found = true
			if c.Value != deviceID {
				t.Errorf("cookie value %q does not match context device id %q", c.Value, deviceID)
			}
			if !c.HttpOnly {
				t.Error("device cookie should be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("expected a device cookie to be set")
	}
}

func TestDeviceMiddleware_ReusesValidCookie(t *testing.T) {
	mw := NewDeviceMiddleware(false)

	var deviceID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID = GetDeviceID(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "0b9fc3a1-4b6c-4c13-9c5a-5f1f3be0de9e"})
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if deviceID != "0b9fc3a1-4b6c-4c13-9c5a-5f1f3be0de9e" {
		t.Errorf("expected existing device id to be reused, got %q", deviceID)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no new cookie when a valid one exists")
	}
}

func TestDeviceMiddleware_ReplacesMalformedCookie(t *testing.T) {
	mw := NewDeviceMiddleware(false)

	var deviceID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID = GetDeviceID(r.Context())
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if deviceID == "" || deviceID == "not-a-uuid" {
		t.Errorf("expected a fresh device id, got %q", deviceID)
	}
}

// =============================================================================
// Identity Middleware Tests
// =============================================================================

func TestIdentityMiddleware_NoTokenIsGuest(t *testing.T) {
	mw := NewIdentityMiddleware(newTestVerifier(t, stubPurchases{}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	var id domain.Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = identity.FromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/api/products", nil)
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if !id.IsGuest() {
		t.Errorf("expected guest identity, got %+v", id)
	}
	if id.Tier != domain.TierGuest {
		t.Errorf("expected guest tier, got %s", id.Tier)
	}
}

func TestIdentityMiddleware_ValidToken(t *testing.T) {
	mw := NewIdentityMiddleware(newTestVerifier(t, stubPurchases{}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	var id domain.Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = identity.FromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-42", "ada@example.com"))
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if id.Subject != "user-42" {
		t.Errorf("expected subject user-42, got %q", id.Subject)
	}
	if id.Tier != domain.TierRegistered {
		t.Errorf("expected registered tier, got %s", id.Tier)
	}
}

func TestIdentityMiddleware_PurchaserTier(t *testing.T) {
	mw := NewIdentityMiddleware(newTestVerifier(t, stubPurchases{purchased: true}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	var id domain.Identity
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = identity.FromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-42", "ada@example.com"))
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if id.Tier != domain.TierPurchaser {
		t.Errorf("expected purchaser tier, got %s", id.Tier)
	}
}

func TestIdentityMiddleware_InvalidTokenRejected(t *testing.T) {
	mw := NewIdentityMiddleware(newTestVerifier(t, stubPurchases{}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with an invalid token")
	})

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer garbage.token.here")
	rec := httptest.NewRecorder()

	mw.Handler(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_BlocksGuests(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for guests")
	}))

	req := httptest.NewRequest("GET", "/api/orders", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_AllowsAuthenticated(t *testing.T) {
	called := false
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	ctx := identity.WithIdentity(context.Background(), domain.Identity{Subject: "user-1", Tier: domain.TierRegistered})
	req := httptest.NewRequest("GET", "/api/orders", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !called {
		t.Error("expected handler to run for authenticated caller")
	}
}
