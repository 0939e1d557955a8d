// Package identity adapts the external auth provider's bearer tokens into
// a process-wide "current identity" value. The try-on flow reads the
// identity exactly once per submission attempt through the Provider
// interface; components never subscribe to auth state independently.
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/modessa/modessa/internal/domain"
)

// Provider exposes the caller's current identity. The zero Identity (a
// guest) is returned when no authenticated identity is present.
type Provider interface {
	Current(ctx context.Context) domain.Identity
}

// PurchaseChecker reports whether an identity has at least one completed
// order, which promotes it to the purchaser tier.
type PurchaseChecker interface {
	HasCompletedOrder(ctx context.Context, subject string) (bool, error)
}

// =============================================================================
// Context plumbing
// =============================================================================

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext retrieves the identity set by the auth middleware. Returns
// a guest identity when none is present.
func FromContext(ctx context.Context) domain.Identity {
	if id, ok := ctx.Value(identityContextKey).(domain.Identity); ok {
		return id
	}
	return domain.Identity{Tier: domain.TierGuest}
}

// ContextProvider implements Provider by reading the identity the auth
// middleware placed on the request context.
type ContextProvider struct{}

// Current returns the identity from the context.
func (ContextProvider) Current(ctx context.Context) domain.Identity {
	return FromContext(ctx)
}

// =============================================================================
// Token verification
// =============================================================================

// Verifier validates the auth provider's JWTs and derives the quota tier
// from the claims plus order history.
type Verifier struct {
	secret    []byte
	purchases PurchaseChecker
	logger    *slog.Logger
}

// NewVerifier creates a token verifier. The signing secret is shared with
// the external auth provider.
func NewVerifier(secret string, purchases PurchaseChecker, logger *slog.Logger) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth token secret is required")
	}
	return &Verifier{
		secret:    []byte(secret),
		purchases: purchases,
		logger:    logger,
	}, nil
}

// Verify parses and validates a bearer token and returns the caller's
// identity snapshot, including the derived tier.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (domain.Identity, error) {
	const op = "identity.verify"

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Identity{}, domain.Unauthorized(op, "Invalid or expired session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, domain.Unauthorized(op, "Invalid token claims")
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return domain.Identity{}, domain.Unauthorized(op, "Token carries no subject")
	}
	email, _ := claims["email"].(string)

	id := domain.Identity{
		Subject: subject,
		Email:   email,
		Token:   tokenString,
		Tier:    domain.TierRegistered,
	}

	// A completed order promotes the identity to the purchaser tier. A
	// lookup failure leaves the caller registered rather than failing auth.
	purchased, err := v.purchases.HasCompletedOrder(ctx, subject)
	if err != nil {
		v.logger.Error("purchase history lookup failed", "error", err, "subject", subject)
	} else if purchased {
		id.Tier = domain.TierPurchaser
	}

	return id, nil
}
