// Package domain contains core business types and interfaces.
//
// This file defines identity tiers for try-on quota purposes. The tier is
// derived from the external identity provider and order history; it is
// read exactly once per submission attempt and never escalates mid-flow.
package domain

// IdentityTier determines the try-on attempt quota for a caller.
type IdentityTier string

const (
	// TierGuest has no stable identity; quota is keyed on the device id.
	TierGuest IdentityTier = "guest"

	// TierRegistered is an authenticated identity with no purchase history.
	TierRegistered IdentityTier = "registered"

	// TierPurchaser is an authenticated identity with at least one
	// completed order. Highest quota.
	TierPurchaser IdentityTier = "purchaser"
)

// IsValid returns true if the tier is a recognized value.
func (t IdentityTier) IsValid() bool {
	switch t {
	case TierGuest, TierRegistered, TierPurchaser:
		return true
	}
	return false
}

// Identity is the caller's identity snapshot at submission time.
type Identity struct {
	Subject string       // Opaque subject from the identity provider, "" for guests
	Email   string       // Email claim when present
	Token   string       // Raw bearer token forwarded to the prediction service
	Tier    IdentityTier // Derived quota tier
}

// IsGuest returns true when the caller carries no authenticated identity.
func (i Identity) IsGuest() bool {
	return i.Subject == ""
}

// TierAttempts maps tiers to their generation attempt allowances. The
// counts are advisory for display only: the prediction service owns the
// authoritative counters and the core never computes quota itself.
var TierAttempts = map[IdentityTier]int{
	TierGuest:      1,
	TierRegistered: 3,
	TierPurchaser:  10,
}
