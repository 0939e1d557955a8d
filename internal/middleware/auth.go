// Package middleware contains HTTP middleware for the Modessa storefront.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler. They are designed to be composed using a middleware stack
// approach.
package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/identity"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// DeviceCookieName stores the anonymous device id that keys guest
	// quota and the cached person photo.
	DeviceCookieName = "modessa_device"

	// DeviceCookieMaxAge keeps the device id around for a year so a
	// returning guest finds their cached photo.
	DeviceCookieMaxAge = 365 * 24 * 60 * 60
)

// =============================================================================
// Device Identification
// =============================================================================

type contextKey string

const deviceContextKey contextKey = "device"

// GetDeviceID retrieves the device id set by the Device middleware.
func GetDeviceID(ctx context.Context) string {
	id, _ := ctx.Value(deviceContextKey).(string)
	return id
}

// DeviceMiddleware assigns every visitor a stable anonymous device id via
// a long-lived cookie.
type DeviceMiddleware struct {
	secure bool
}

// NewDeviceMiddleware creates the device id middleware. Set secure in
// production so the cookie is HTTPS-only.
func NewDeviceMiddleware(secure bool) *DeviceMiddleware {
	return &DeviceMiddleware{secure: secure}
}

// Handler ensures the request carries a device id, minting one when the
// cookie is absent or malformed.
func (m *DeviceMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := ""
		if cookie, err := r.Cookie(DeviceCookieName); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				deviceID = cookie.Value
			}
		}

		if deviceID == "" {
			deviceID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     DeviceCookieName,
				Value:    deviceID,
				Path:     "/",
				MaxAge:   DeviceCookieMaxAge,
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), deviceContextKey, deviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// =============================================================================
// Identity Middleware
// =============================================================================

// IdentityMiddleware resolves the caller's identity from the Authorization
// header and places it on the request context. Requests without a token
// pass through as guests; only a present-but-invalid token is rejected.
type IdentityMiddleware struct {
	verifier *identity.Verifier
	logger   *slog.Logger
}

// NewIdentityMiddleware creates the identity middleware.
func NewIdentityMiddleware(verifier *identity.Verifier, logger *slog.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{verifier: verifier, logger: logger}
}

// Handler resolves the identity for every request.
func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			ctx := identity.WithIdentity(r.Context(), domain.Identity{Tier: domain.TierGuest})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		id, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			m.logger.Warn("token verification failed",
				"error", err,
				"ip", getClientIP(r),
				"path", r.URL.Path,
			)
			writeJSONError(w, http.StatusUnauthorized, "invalid_token", "Your session has expired. Please sign in again.")
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}

// RequireAuth returns middleware that rejects guest callers. Used for
// order history and review management endpoints.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity.FromContext(r.Context()).IsGuest() {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Sign in to continue.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminKeyMiddleware guards back-office endpoints (catalog and blog
// mutations, order fulfilment) with a shared API key. The storefront has
// no admin accounts; the key lives in the deployment environment.
type AdminKeyMiddleware struct {
	key string
}

// NewAdminKeyMiddleware creates the admin guard. An empty key disables
// every guarded endpoint.
func NewAdminKeyMiddleware(key string) *AdminKeyMiddleware {
	return &AdminKeyMiddleware{key: key}
}

// Handler rejects requests whose X-Admin-Key header does not match.
func (m *AdminKeyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.key == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Admin-Key")), []byte(m.key)) != 1 {
			writeJSONError(w, http.StatusForbidden, "forbidden", "You don't have permission to access this resource.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header, returning
// "" when the header is absent or not a bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// writeJSONError writes a minimal JSON error body. Handlers use the
// richer renderer in the handler package; middleware keeps its own to
// avoid an import cycle.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}

// =============================================================================
// Middleware Stack
// =============================================================================

// Stack composes middlewares so the first listed runs outermost.
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
