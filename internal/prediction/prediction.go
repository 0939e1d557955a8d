// Package prediction defines the boundary contract with the external
// try-on generation service: a start request that yields either a job
// handle or a quota-exhaustion signal, and a poll request that reports
// job status. Quota decisions are authoritative responses from the
// service; callers must never compute or cache them independently.
package prediction

import (
	"context"
	"errors"
	"fmt"

	"github.com/modessa/modessa/internal/domain"
)

// Provider is the interface for the asynchronous try-on prediction service.
type Provider interface {
	// Start submits a generation job. The result carries either a job
	// handle to poll or an exhaustion signal; both never appear together.
	Start(ctx context.Context, params StartParams) (*StartResult, error)

	// Poll reports the status of an in-flight job. Callers must await each
	// response before issuing the next poll.
	Poll(ctx context.Context, jobID string) (*PollResult, error)

	// Fetch resolves a result reference (remote URL or data URI) to the
	// generated image bytes.
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// StartParams contains the inputs for a generation job.
type StartParams struct {
	PersonImage   []byte                 // Compressed person photo (JPEG bytes)
	GarmentImage  string                 // Hosted garment image URL
	Category      domain.GarmentCategory // Garment slot
	Model         domain.ModelKey        // Backend selector
	IdentityToken string                 // Bearer token from the identity provider, "" for guests
	DeviceID      string                 // Device key used for guest quota attribution
}

// JobStatus is the lifecycle status of a generation job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal returns true for statuses that end the polling loop.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// StartResult is the outcome of a start request.
type StartResult struct {
	JobID     string          // Job handle to poll; "" when exhausted
	Status    JobStatus       // Initial status, normally pending
	Exhausted *ExhaustionKind // Non-nil when the caller's quota is spent
}

// PollResult is the outcome of a poll request.
type PollResult struct {
	Status    JobStatus // Current job status
	Output    string    // Result image reference, set on success
	Remaining *int      // Server-reported remaining attempts, when provided
}

// =============================================================================
// Exhaustion
// =============================================================================

// ExhaustionKind is the closed set of quota-exhaustion outcomes. Each kind
// carries its own remedy so callers never compare ad hoc strings.
type ExhaustionKind string

const (
	// ExhaustionGuest: an unauthenticated caller spent the guest allowance.
	// Remedy: register an account.
	ExhaustionGuest ExhaustionKind = "guest"

	// ExhaustionAuthenticated: a registered caller without purchase history
	// spent their allowance. Remedy: return to shopping and purchase.
	ExhaustionAuthenticated ExhaustionKind = "authenticated"
)

// Remedy describes the call-to-action for an exhaustion kind.
type Remedy struct {
	Action  string // Machine-readable remedy ("register" or "purchase")
	Message string // User-facing message
}

// Remedy returns the call-to-action for the kind.
func (k ExhaustionKind) Remedy() Remedy {
	switch k {
	case ExhaustionGuest:
		return Remedy{
			Action:  "register",
			Message: "You've used your free try-on. Create an account to get more attempts.",
		}
	case ExhaustionAuthenticated:
		return Remedy{
			Action:  "purchase",
			Message: "You've used all your try-on attempts. Complete a purchase to unlock more.",
		}
	}
	return Remedy{}
}

// =============================================================================
// Errors
// =============================================================================

// Sentinel errors for provider operations.
var (
	// EUnavailable indicates the prediction service could not be reached
	// or answered with a server error.
	EUnavailable = errors.New("prediction service unavailable")

	// ETimeout indicates a request to the service timed out.
	ETimeout = errors.New("prediction request timed out")

	// EUnauthorized indicates invalid service credentials.
	EUnauthorized = errors.New("prediction service authentication failed")

	// EInvalidInput indicates the service rejected the submitted images.
	EInvalidInput = errors.New("prediction input rejected")
)

// WrapError wraps an error with context about the provider operation.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("prediction %s: %w", operation, err)
}
