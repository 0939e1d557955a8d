// Package tryon implements the virtual try-on flow: an in-memory session
// per open dialog, the upload/crop/compress/quality pipeline, and the
// submission orchestrator that drives the external prediction service.
package tryon

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/identity"
	"github.com/modessa/modessa/internal/imageproc"
	"github.com/modessa/modessa/internal/metrics"
	"github.com/modessa/modessa/internal/prediction"
	"github.com/modessa/modessa/internal/storage"
)

// Config tunes the orchestrator timing. Zero values fall back to the
// production defaults.
type Config struct {
	// PollInterval is the fixed delay between status polls.
	PollInterval time.Duration

	// MaxPollDuration bounds the whole polling loop; a job still pending
	// after this is treated as failed so a stuck external job cannot hang
	// the session forever.
	MaxPollDuration time.Duration

	// CloseResetDelay defers session teardown after close so exit
	// animations can complete client-side.
	CloseResetDelay time.Duration
}

func (c *Config) withDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = 3 * time.Second
	}
	if c.MaxPollDuration == 0 {
		c.MaxPollDuration = 2 * time.Minute
	}
	if c.CloseResetDelay == 0 {
		c.CloseResetDelay = 400 * time.Millisecond
	}
}

// Service owns all live try-on sessions. Each session is mutated only
// under the service mutex; the orchestrator goroutine for a session is
// the sole writer while the session is processing.
type Service struct {
	provider prediction.Provider
	identity identity.Provider
	cache    storage.Storage
	logo     []byte
	config   Config
	clock    Clock
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*sessionEntry
}

// sessionEntry pairs a session with the decoded bitmap awaiting crop
// confirmation. The pending bitmap never leaves the service.
type sessionEntry struct {
	session *domain.TryOnSession
	pending image.Image
}

// NewService creates the try-on service. The logo may be nil, in which
// case results are delivered unbranded.
func NewService(
	provider prediction.Provider,
	identityProvider identity.Provider,
	cache storage.Storage,
	logo []byte,
	config Config,
	clock Clock,
	logger *slog.Logger,
) *Service {
	config.withDefaults()
	if clock == nil {
		clock = NewRealClock()
	}
	return &Service{
		provider: provider,
		identity: identityProvider,
		cache:    cache,
		logo:     logo,
		config:   config,
		clock:    clock,
		logger:   logger,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// =============================================================================
// Session lifecycle
// =============================================================================

// Create opens a new session for the given garment. If the device has a
// cached person photo from a previous visit it is preloaded so the user
// need not re-upload.
func (s *Service) Create(ctx context.Context, deviceID, garmentImage string, category domain.GarmentCategory) (*domain.TryOnSession, error) {
	const op = "tryon.create"

	if garmentImage == "" {
		return nil, domain.Invalid(op, "A garment image is required to start a try-on")
	}

	session := domain.NewTryOnSession(deviceID, garmentImage, category)

	if deviceID != "" && s.cache != nil {
		if cached := s.loadCachedPhoto(ctx, deviceID); cached != nil {
			session.PersonImage = cached
		}
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{session: session}
	s.mu.Unlock()

	s.logger.Info("try-on session opened",
		"session_id", session.ID,
		"category", session.Category,
		"cached_photo", len(session.PersonImage) > 0,
	)
	return s.snapshot(session), nil
}

// Get returns a snapshot of the session.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.TryOnSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, "tryon.get")
	if err != nil {
		return nil, err
	}
	return s.snapshot(entry.session), nil
}

// Close tears the session down after the reset delay. An in-flight job is
// not cancelled; its result is simply dropped when it completes.
func (s *Service) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return domain.NotFound("tryon.close", "try-on session", id.String())
	}

	go func() {
		<-s.clock.After(s.config.CloseResetDelay)
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.logger.Debug("try-on session reset", "session_id", id)
	}()
	return nil
}

// =============================================================================
// Photo pipeline
// =============================================================================

// AttachPhoto validates and decodes an uploaded photo, holding it for the
// crop stage. The previously accepted person image is untouched until the
// crop is confirmed, so cancelling returns cleanly to acquisition.
func (s *Service) AttachPhoto(ctx context.Context, id uuid.UUID, data []byte, declaredType string) (width, height int, err error) {
	const op = "tryon.attach_photo"

	img, err := imageproc.Normalize(data, declaredType)
	if err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, op)
	if err != nil {
		return 0, 0, err
	}
	if entry.session.State != domain.TryOnStateUpload {
		return 0, 0, domain.Conflict(op, "A photo can only be changed while preparing a try-on")
	}

	entry.pending = img
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// ConfirmCrop rasterizes the selected rectangle, compresses the result,
// runs the brightness gate, and installs the photo as the session's
// person image. The checklist resets with every new photo.
func (s *Service) ConfirmCrop(ctx context.Context, id uuid.UUID, rect image.Rectangle, zoom float64) (string, error) {
	const op = "tryon.crop"

	s.mu.Lock()
	entry, err := s.entry(id, op)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if entry.session.State != domain.TryOnStateUpload {
		s.mu.Unlock()
		return "", domain.Conflict(op, "A photo can only be cropped while preparing a try-on")
	}
	pending := entry.pending
	s.mu.Unlock()

	if pending == nil {
		return "", domain.Invalid(op, "Upload a photo before cropping")
	}

	cropped, err := imageproc.Crop(pending, rect, zoom)
	if err != nil {
		return "", err
	}
	compressed, err := imageproc.Compress(cropped, domain.CompressMaxDimension, domain.CompressJPEGQuality)
	if err != nil {
		return "", err
	}
	class := imageproc.ClassifyBrightness(cropped)
	warning := class.Warning()
	metrics.PhotosProcessed.WithLabelValues(string(class)).Inc()

	deviceID, err := s.installPhoto(id, op, compressed, warning)
	if err != nil {
		return "", err
	}

	if deviceID != "" && s.cache != nil {
		s.storeCachedPhoto(ctx, deviceID, compressed)
	}
	return warning, nil
}

// installPhoto commits a cropped photo to the session. The mutex is
// released while the crop work runs, so the state gets verified again
// here: a submission racing the crop must not have its photo, warning,
// or checklist swapped out mid-generation.
func (s *Service) installPhoto(id uuid.UUID, op string, compressed []byte, warning string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, op)
	if err != nil {
		return "", err
	}
	if entry.session.State != domain.TryOnStateUpload {
		return "", domain.Conflict(op, "A photo can only be cropped while preparing a try-on")
	}

	session := entry.session
	session.PersonImage = compressed
	session.Warning = warning
	session.Checklist = domain.NewQualityChecklist()
	session.ErrorMessage = ""
	session.IsLimitReached = false
	session.RemedyAction = ""
	entry.pending = nil
	return session.DeviceID, nil
}

// CancelCrop discards the pending upload without touching the previously
// accepted person image.
func (s *Service) CancelCrop(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, "tryon.cancel_crop")
	if err != nil {
		return err
	}
	entry.pending = nil
	return nil
}

// SetChecklistItem records a checklist assertion.
func (s *Service) SetChecklistItem(ctx context.Context, id uuid.UUID, item string, checked bool) error {
	const op = "tryon.checklist"

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, op)
	if err != nil {
		return err
	}
	if !entry.session.Checklist.IsItem(item) {
		return domain.Invalid(op, fmt.Sprintf("Unknown checklist item %q", item))
	}
	entry.session.Checklist[item] = checked
	return nil
}

// SetOptions adjusts the garment category and model backend.
func (s *Service) SetOptions(ctx context.Context, id uuid.UUID, category domain.GarmentCategory, model domain.ModelKey) error {
	const op = "tryon.options"

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, op)
	if err != nil {
		return err
	}
	if entry.session.State != domain.TryOnStateUpload {
		return domain.Conflict(op, "Options can only be changed while preparing a try-on")
	}
	if !category.IsValid() {
		return domain.Invalid(op, fmt.Sprintf("Unknown garment category %q", category))
	}
	if !model.IsValid() {
		return domain.Invalid(op, fmt.Sprintf("Unknown model %q", model))
	}
	entry.session.Category = category
	entry.session.Model = model
	return nil
}

// =============================================================================
// Result access and retry
// =============================================================================

// Result returns the branded result image for download.
func (s *Service) Result(ctx context.Context, id uuid.UUID) ([]byte, error) {
	const op = "tryon.result"

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, op)
	if err != nil {
		return nil, err
	}
	if entry.session.State != domain.TryOnStateResult {
		return nil, domain.Conflict(op, "No result is available yet")
	}
	return entry.session.GeneratedImage, nil
}

// Retry discards the generated image and returns to the upload state,
// preserving the person image so the user need not re-upload.
func (s *Service) Retry(ctx context.Context, id uuid.UUID) error {
	const op = "tryon.retry"

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, op)
	if err != nil {
		return err
	}
	if err := entry.session.TransitionTo(domain.TryOnStateUpload); err != nil {
		return err
	}
	entry.session.ClearResult()
	return nil
}

// =============================================================================
// Internal helpers
// =============================================================================

// entry looks up a session; callers must hold the mutex.
func (s *Service) entry(id uuid.UUID, op string) (*sessionEntry, error) {
	entry, ok := s.sessions[id]
	if !ok {
		return nil, domain.NotFound(op, "try-on session", id.String())
	}
	return entry, nil
}

// snapshot copies the session for return to handlers. Byte slices are
// shared but treated as immutable once installed.
func (s *Service) snapshot(session *domain.TryOnSession) *domain.TryOnSession {
	copied := *session
	copied.Checklist = make(domain.QualityChecklist, len(session.Checklist))
	for k, v := range session.Checklist {
		copied.Checklist[k] = v
	}
	if session.RemainingAttempts != nil {
		remaining := *session.RemainingAttempts
		copied.RemainingAttempts = &remaining
	}
	return &copied
}

// loadCachedPhoto fetches the device's last-used person photo, best
// effort.
func (s *Service) loadCachedPhoto(ctx context.Context, deviceID string) []byte {
	reader, _, err := s.cache.Get(ctx, storage.DevicePhotoKey(deviceID))
	if err != nil {
		return nil
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil || len(data) == 0 {
		return nil
	}
	return data
}

// storeCachedPhoto persists the person photo for the next visit. Failures
// are logged and never surfaced.
func (s *Service) storeCachedPhoto(ctx context.Context, deviceID string, photo []byte) {
	err := s.cache.Put(ctx, storage.DevicePhotoKey(deviceID), bytes.NewReader(photo), storage.PutOptions{
		ContentType: "image/jpeg",
		Overwrite:   true,
	})
	if err != nil {
		s.logger.Error("failed to cache person photo", "error", err, "device_id", deviceID)
	}
}
