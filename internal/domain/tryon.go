// Package domain contains core business types and interfaces.
//
// This file defines the TryOnSession domain type and its state machine.
// A session is ephemeral: it is created when the try-on dialog opens and
// reset to defaults when the dialog closes, surviving only as the
// optionally cached person photo on the device.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Try-On State
// =============================================================================

// TryOnState represents the lifecycle state of a try-on session.
type TryOnState string

const (
	// TryOnStateUpload is the initial state: the user is selecting,
	// cropping, and confirming a photo. Failures and retries return here.
	TryOnStateUpload TryOnState = "upload"

	// TryOnStateProcessing indicates a generation job is in flight with the
	// prediction service. Exactly one job may be in flight per session.
	TryOnStateProcessing TryOnState = "processing"

	// TryOnStateResult indicates a branded result image is ready for
	// display and download.
	TryOnStateResult TryOnState = "result"
)

// String returns the string representation of the state.
func (s TryOnState) String() string {
	return string(s)
}

// IsValid returns true if the state is a recognized value.
func (s TryOnState) IsValid() bool {
	switch s {
	case TryOnStateUpload, TryOnStateProcessing, TryOnStateResult:
		return true
	}
	return false
}

// CanTransitionTo checks if the session can transition to the target state.
//
// Valid transitions:
// - upload -> processing (submission confirmed, admission checks passed)
// - processing -> result (generation succeeded)
// - processing -> upload (generation failed or quota exhausted)
// - result -> upload (explicit retry)
func (s TryOnState) CanTransitionTo(target TryOnState) bool {
	switch s {
	case TryOnStateUpload:
		return target == TryOnStateProcessing
	case TryOnStateProcessing:
		return target == TryOnStateResult || target == TryOnStateUpload
	case TryOnStateResult:
		return target == TryOnStateUpload
	}
	return false
}

// =============================================================================
// Garment Category
// =============================================================================

// GarmentCategory is the body-region slot a clothing item occupies for
// try-on purposes.
type GarmentCategory string

const (
	GarmentCategoryUpperBody GarmentCategory = "upper_body"
	GarmentCategoryLowerBody GarmentCategory = "lower_body"
	GarmentCategoryDresses   GarmentCategory = "dresses"
)

// IsValid returns true if the category is a recognized value.
func (c GarmentCategory) IsValid() bool {
	switch c {
	case GarmentCategoryUpperBody, GarmentCategoryLowerBody, GarmentCategoryDresses:
		return true
	}
	return false
}

// =============================================================================
// Model Key
// =============================================================================

// ModelKey selects which generation backend handles the job. The two
// backends are interchangeable; "lite" is faster and is the default.
type ModelKey string

const (
	ModelKeyLite    ModelKey = "lite"
	ModelKeyQuality ModelKey = "quality"

	// DefaultModelKey is used when the user makes no explicit choice.
	DefaultModelKey = ModelKeyLite
)

// IsValid returns true if the model key is a recognized value.
func (m ModelKey) IsValid() bool {
	switch m {
	case ModelKeyLite, ModelKeyQuality:
		return true
	}
	return false
}

// =============================================================================
// Photo Quality
// =============================================================================

// BrightnessClass is the outcome of the photo quality heuristic.
type BrightnessClass string

const (
	BrightnessOK        BrightnessClass = "ok"
	BrightnessTooDark   BrightnessClass = "too_dark"
	BrightnessTooBright BrightnessClass = "too_bright"
)

// Warning returns the user-facing warning for a brightness class, or ""
// when the photo is usable.
func (c BrightnessClass) Warning() string {
	switch c {
	case BrightnessTooDark:
		return "This photo looks too dark. Please choose a brighter photo for the best result."
	case BrightnessTooBright:
		return "This photo looks overexposed. Please choose a photo with softer lighting."
	}
	return ""
}

// ChecklistItems is the fixed list of assertions the user walks through
// before confirming a photo. All items start unchecked when the checklist
// opens; it is never persisted past the session.
var ChecklistItems = []string{
	"full_body_visible",
	"face_and_hands_visible",
	"plain_background",
	"good_lighting",
	"single_person",
}

// QualityChecklist maps checklist item ids to their checked state.
type QualityChecklist map[string]bool

// NewQualityChecklist returns a checklist with every item unchecked.
func NewQualityChecklist() QualityChecklist {
	cl := make(QualityChecklist, len(ChecklistItems))
	for _, item := range ChecklistItems {
		cl[item] = false
	}
	return cl
}

// Complete returns true when every item has been checked.
func (cl QualityChecklist) Complete() bool {
	for _, item := range ChecklistItems {
		if !cl[item] {
			return false
		}
	}
	return true
}

// IsItem returns true if id is a recognized checklist item.
func (cl QualityChecklist) IsItem(id string) bool {
	_, ok := cl[id]
	return ok
}

// =============================================================================
// Try-On Session
// =============================================================================

// TryOnSession is the ephemeral, per-dialog try-on state. It is owned
// exclusively by the try-on service for the lifetime of one dialog and is
// never persisted as a whole.
type TryOnSession struct {
	ID       uuid.UUID // Unique session identifier
	DeviceID string    // Stable device key for the person-photo cache and guest quota

	// Inputs
	PersonImage  []byte          // Normalized+cropped+compressed JPEG, owned by the session
	GarmentImage string          // Hosted garment image URL from the catalog (read-only)
	Category     GarmentCategory // Garment slot, defaults from the product being viewed
	Model        ModelKey        // Backend selector, defaults to the faster one

	// Flow state
	State     TryOnState       // Current state machine position
	Warning   string           // Soft quality warning, "" when none
	Checklist QualityChecklist // Confirmation checklist, all false on open

	// Orchestrator-owned fields
	JobID             string // In-flight prediction job handle, "" when idle
	GeneratedImage    []byte // Final branded PNG; produced once, cleared on retry
	Caption           string // Congratulatory caption chosen on success
	RemainingAttempts *int   // Quota remaining after the latest generation, nil until first response

	// Failure surface
	ErrorMessage   string // User-facing message after a failed attempt
	IsLimitReached bool   // True when the failure was quota exhaustion
	RemedyAction   string // Remedy hint when limit reached ("register" or "purchase")

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTryOnSession creates a session in the upload state for the given
// garment. PersonImage may be pre-populated from the device cache.
func NewTryOnSession(deviceID, garmentImage string, category GarmentCategory) *TryOnSession {
	if !category.IsValid() {
		category = GarmentCategoryUpperBody
	}
	now := time.Now().UTC()
	return &TryOnSession{
		ID:           uuid.New(),
		DeviceID:     deviceID,
		GarmentImage: garmentImage,
		Category:     category,
		Model:        DefaultModelKey,
		State:        TryOnStateUpload,
		Checklist:    NewQualityChecklist(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TransitionTo moves the session to the target state, enforcing the state
// machine. The state is unchanged on error.
func (s *TryOnSession) TransitionTo(target TryOnState) error {
	if !s.State.CanTransitionTo(target) {
		return Errorf(ECONFLICT, "tryon.transition", "cannot transition from %s to %s", s.State, target)
	}
	s.State = target
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// CanConfirm reports whether the photo may be submitted for generation.
//
// A brightness warning always forces re-selection of a different photo:
// confirmation stays disabled regardless of checklist state. Without a
// warning, a fully checked checklist suffices.
func (s *TryOnSession) CanConfirm() bool {
	if len(s.PersonImage) == 0 {
		return false
	}
	if s.Warning != "" {
		return false
	}
	return s.Checklist.Complete()
}

// ClearResult discards the generated image and failure surface, keeping
// the person image so the user need not re-upload on retry.
func (s *TryOnSession) ClearResult() {
	s.GeneratedImage = nil
	s.Caption = ""
	s.JobID = ""
	s.ErrorMessage = ""
	s.IsLimitReached = false
	s.RemedyAction = ""
	s.UpdatedAt = time.Now().UTC()
}

// =============================================================================
// Result Captions
// =============================================================================

// ResultCaptions is the fixed pool of congratulatory captions shown with a
// successful generation. One is chosen at random per result.
var ResultCaptions = []string{
	"Looking sharp!",
	"It suits you perfectly.",
	"A natural fit!",
	"You wear it well.",
	"Made for you.",
}
