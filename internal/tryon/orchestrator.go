package tryon

import (
	"bytes"
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/imageproc"
	"github.com/modessa/modessa/internal/metrics"
	"github.com/modessa/modessa/internal/prediction"
	"github.com/modessa/modessa/internal/storage"
)

// failureMessage is the generic user-facing text for any generation
// failure. Provider error details stay in the logs.
const failureMessage = "Something went wrong while generating your try-on. Please try again."

// Submit starts a generation for the session. Admission checks run under
// the lock; on success the orchestrator goroutine takes over and the
// session stays in the processing state until it resolves.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) error {
	const op = "tryon.submit"

	// The viewer's tier is read exactly once, here; a login completing
	// mid-generation does not change the attempt already in flight.
	viewer := s.identity.Current(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.entry(id, op)
	if err != nil {
		return err
	}
	session := entry.session

	if session.State == domain.TryOnStateProcessing {
		return domain.Conflict(op, "A try-on is already being generated")
	}
	if session.State == domain.TryOnStateResult {
		return domain.Conflict(op, "Dismiss the current result before generating again")
	}
	if !session.CanConfirm() {
		if len(session.PersonImage) == 0 {
			return domain.Invalid(op, "Upload a photo before generating a try-on")
		}
		if session.Warning != "" {
			return domain.Invalid(op, "Please choose a different photo before continuing")
		}
		return domain.Invalid(op, "Please confirm the photo checklist before continuing")
	}
	if err := session.TransitionTo(domain.TryOnStateProcessing); err != nil {
		return err
	}

	session.ErrorMessage = ""
	session.IsLimitReached = false
	session.RemedyAction = ""
	session.GeneratedImage = nil
	session.Caption = ""

	params := prediction.StartParams{
		PersonImage:   session.PersonImage,
		GarmentImage:  session.GarmentImage,
		Category:      session.Category,
		Model:         session.Model,
		IdentityToken: viewer.Token,
		DeviceID:      session.DeviceID,
	}

	metrics.TryOnSubmissionsTotal.Inc()
	s.logger.Info("try-on submitted",
		"session_id", session.ID,
		"category", session.Category,
		"model", session.Model,
		"tier", viewer.Tier,
	)

	go s.run(session.ID, params)
	return nil
}

// run drives one generation from start through polling to resolution.
// The session may be closed while the job is in flight; every state
// update re-checks that the session still exists and drops the result if
// it does not.
func (s *Service) run(id uuid.UUID, params prediction.StartParams) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.MaxPollDuration+time.Minute)
	defer cancel()

	started := s.clock.Now()

	start, err := s.provider.Start(ctx, params)
	if err != nil {
		s.logger.Error("prediction start failed", "error", err, "session_id", id)
		s.fail(id, "failed")
		return
	}
	if start.Exhausted != nil {
		s.exhaust(id, *start.Exhausted)
		return
	}

	s.mu.Lock()
	if entry, ok := s.sessions[id]; ok {
		entry.session.JobID = start.JobID
	}
	s.mu.Unlock()

	// Polls are strictly sequential: one request, then the full interval,
	// then the next. The deadline bounds total wall-clock time.
	deadline := started.Add(s.config.MaxPollDuration)
	polls := 0
	for {
		select {
		case <-ctx.Done():
			s.logger.Error("prediction polling cancelled", "session_id", id, "job_id", start.JobID)
			s.fail(id, "timeout")
			return
		case <-s.clock.After(s.config.PollInterval):
		}

		if s.clock.Now().After(deadline) {
			s.logger.Error("prediction timed out",
				"session_id", id,
				"job_id", start.JobID,
				"polls", polls,
			)
			s.fail(id, "timeout")
			return
		}

		result, err := s.provider.Poll(ctx, start.JobID)
		if err != nil {
			s.logger.Error("prediction poll failed", "error", err, "session_id", id, "job_id", start.JobID)
			s.fail(id, "failed")
			return
		}
		polls++

		switch result.Status {
		case prediction.JobStatusSucceeded:
			metrics.TryOnPollCycles.Observe(float64(polls))
			s.deliver(ctx, id, start.JobID, result, started)
			return
		case prediction.JobStatusFailed:
			s.logger.Error("prediction job failed", "session_id", id, "job_id", start.JobID)
			s.fail(id, "failed")
			return
		}
	}
}

// deliver fetches the generated image, applies the brand mark, and moves
// the session to the result state.
func (s *Service) deliver(ctx context.Context, id uuid.UUID, jobID string, result *prediction.PollResult, started time.Time) {
	if result.Output == "" {
		s.logger.Error("prediction succeeded without output", "session_id", id, "job_id", jobID)
		s.fail(id, "failed")
		return
	}

	raw, err := s.provider.Fetch(ctx, result.Output)
	if err != nil {
		s.logger.Error("prediction fetch failed", "error", err, "session_id", id, "job_id", jobID)
		s.fail(id, "failed")
		return
	}

	branded, err := imageproc.Brand(raw, s.logo)
	if err != nil {
		s.logger.Error("branding failed", "error", err, "session_id", id)
		s.fail(id, "failed")
		return
	}

	caption := domain.ResultCaptions[rand.IntN(len(domain.ResultCaptions))]

	s.mu.Lock()
	entry, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	session := entry.session
	if err := session.TransitionTo(domain.TryOnStateResult); err != nil {
		s.mu.Unlock()
		return
	}
	session.GeneratedImage = branded
	session.Caption = caption
	session.RemainingAttempts = result.Remaining
	session.JobID = ""
	deviceID := session.DeviceID
	s.mu.Unlock()

	metrics.TryOnOutcomesTotal.WithLabelValues("succeeded").Inc()
	metrics.TryOnGenerationDuration.Observe(s.clock.Now().Sub(started).Seconds())
	s.logger.Info("try-on delivered",
		"session_id", id,
		"duration", s.clock.Now().Sub(started),
		"remaining_attempts", result.Remaining,
	)

	// Keep a copy of the delivered look per device. Best effort: the
	// session already holds the image, so a storage hiccup costs nothing
	// but the saved copy.
	if deviceID != "" && s.cache != nil {
		key := storage.ResultKey(deviceID)
		err := s.cache.Put(ctx, key, bytes.NewReader(branded), storage.PutOptions{
			ContentType: "image/png",
			Overwrite:   true,
		})
		if err != nil {
			s.logger.Warn("saving try-on result failed", "error", err, "key", key)
		}
	}
}

// fail returns the session to the upload state with the generic failure
// message. The person photo and checklist survive so the user can simply
// resubmit.
func (s *Service) fail(id uuid.UUID, outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return
	}
	session := entry.session
	if session.State == domain.TryOnStateProcessing {
		if err := session.TransitionTo(domain.TryOnStateUpload); err != nil {
			return
		}
	}
	session.ErrorMessage = failureMessage
	session.JobID = ""

	metrics.TryOnOutcomesTotal.WithLabelValues(outcome).Inc()
}

// exhaust handles a quota rejection from the prediction service. The
// session returns to upload with the remedy for the viewer's tier; the
// server never second-guesses the prediction service's accounting.
func (s *Service) exhaust(id uuid.UUID, kind prediction.ExhaustionKind) {
	remedy := kind.Remedy()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return
	}
	session := entry.session
	if session.State == domain.TryOnStateProcessing {
		if err := session.TransitionTo(domain.TryOnStateUpload); err != nil {
			return
		}
	}
	session.ErrorMessage = remedy.Message
	session.IsLimitReached = true
	session.RemedyAction = remedy.Action
	session.JobID = ""

	metrics.TryOnOutcomesTotal.WithLabelValues("exhausted_" + string(kind)).Inc()
	s.logger.Info("try-on quota exhausted", "session_id", id, "kind", kind)
}
