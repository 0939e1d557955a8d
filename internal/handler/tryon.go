// Package handler contains HTTP handlers for the Modessa API.
//
// This file implements the virtual try-on session endpoints: opening and
// closing dialogs, photo upload and cropping, the confirmation checklist,
// and generation submission with result retrieval.
package handler

import (
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/modessa/modessa/internal/domain"
	"github.com/modessa/modessa/internal/middleware"
	"github.com/modessa/modessa/internal/tryon"
)

// maxPhotoUploadBytes caps the multipart body for person photo uploads.
// The photo itself may be up to domain.MaxUploadSize; the extra megabyte
// covers multipart boundaries and headers so a photo right at the ceiling
// still reaches validation instead of dying in the body reader.
const maxPhotoUploadBytes = domain.MaxUploadSize + 1<<20

// =============================================================================
// Response Types
// =============================================================================

// TryOnSessionResponse is the client view of a try-on session. The raw
// image bytes never travel in this payload; the result is fetched from its
// own endpoint.
type TryOnSessionResponse struct {
	ID                string          `json:"id"`
	State             string          `json:"state"`
	Category          string          `json:"category"`
	Model             string          `json:"model"`
	HasPhoto          bool            `json:"has_photo"`
	Warning           string          `json:"warning,omitempty"`
	Checklist         map[string]bool `json:"checklist"`
	CanConfirm        bool            `json:"can_confirm"`
	HasResult         bool            `json:"has_result"`
	Caption           string          `json:"caption,omitempty"`
	RemainingAttempts *int            `json:"remaining_attempts,omitempty"`
	ErrorMessage      string          `json:"error_message,omitempty"`
	IsLimitReached    bool            `json:"is_limit_reached,omitempty"`
	RemedyAction      string          `json:"remedy_action,omitempty"`
}

func toSessionResponse(s *domain.TryOnSession) TryOnSessionResponse {
	return TryOnSessionResponse{
		ID:                s.ID.String(),
		State:             string(s.State),
		Category:          string(s.Category),
		Model:             string(s.Model),
		HasPhoto:          len(s.PersonImage) > 0,
		Warning:           s.Warning,
		Checklist:         s.Checklist,
		CanConfirm:        s.CanConfirm(),
		HasResult:         len(s.GeneratedImage) > 0,
		Caption:           s.Caption,
		RemainingAttempts: s.RemainingAttempts,
		ErrorMessage:      s.ErrorMessage,
		IsLimitReached:    s.IsLimitReached,
		RemedyAction:      s.RemedyAction,
	}
}

// =============================================================================
// Handler
// =============================================================================

// TryOnHandler serves the try-on session API.
type TryOnHandler struct {
	service *tryon.Service
	logger  *slog.Logger
}

// NewTryOnHandler creates a new try-on handler.
func NewTryOnHandler(service *tryon.Service, logger *slog.Logger) *TryOnHandler {
	return &TryOnHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the try-on routes with the provided mux.
// limitUpload and limitSubmit are the per-IP abuse guards; generation
// quota itself is accounted by the prediction service.
func (h *TryOnHandler) RegisterRoutes(mux *http.ServeMux, limitUpload, limitSubmit func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/tryon/sessions", h.Create)
	mux.HandleFunc("GET /api/tryon/sessions/{id}", h.Get)
	mux.HandleFunc("DELETE /api/tryon/sessions/{id}", h.Close)
	mux.Handle("POST /api/tryon/sessions/{id}/photo", limitUpload(http.HandlerFunc(h.UploadPhoto)))
	mux.HandleFunc("POST /api/tryon/sessions/{id}/crop", h.ConfirmCrop)
	mux.HandleFunc("POST /api/tryon/sessions/{id}/crop/cancel", h.CancelCrop)
	mux.HandleFunc("POST /api/tryon/sessions/{id}/checklist", h.SetChecklistItem)
	mux.HandleFunc("POST /api/tryon/sessions/{id}/options", h.SetOptions)
	mux.Handle("POST /api/tryon/sessions/{id}/submit", limitSubmit(http.HandlerFunc(h.Submit)))
	mux.HandleFunc("POST /api/tryon/sessions/{id}/retry", h.Retry)
	mux.HandleFunc("GET /api/tryon/sessions/{id}/result", h.Result)
}

// =============================================================================
// Session Lifecycle
// =============================================================================

// Create opens a new try-on session for a garment.
// POST /api/tryon/sessions
func (h *TryOnHandler) Create(w http.ResponseWriter, r *http.Request) {
	deviceID := middleware.GetDeviceID(r.Context())
	if deviceID == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.tryon_create", "Missing device identity"))
		return
	}

	var req struct {
		GarmentImage string `json:"garment_image"`
		Category     string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.tryon_create", "Invalid request body"))
		return
	}

	session, err := h.service.Create(r.Context(), deviceID, req.GarmentImage, domain.GarmentCategory(req.Category))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Get returns the current session snapshot. Clients poll this endpoint
// while a generation is in flight.
// GET /api/tryon/sessions/{id}
func (h *TryOnHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.service.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Close tears down a session. The dialog may be reopened immediately; the
// service keeps the session briefly so a reopen lands on fresh state.
// DELETE /api/tryon/sessions/{id}
func (h *TryOnHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Close(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Photo Pipeline
// =============================================================================

// UploadPhoto accepts a person photo as multipart form data and stages it
// for cropping.
// POST /api/tryon/sessions/{id}/photo
func (h *TryOnHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadBytes)
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, "handler.tryon_photo", "Photo is too large"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.tryon_photo", "Missing photo file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	width, height, err := h.service.AttachPhoto(r.Context(), id, data, header.Header.Get("Content-Type"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"width":  width,
		"height": height,
	})
}

// ConfirmCrop applies the chosen crop window to the staged photo and runs
// the quality gate. The response carries the fresh session snapshot so the
// client sees any brightness warning immediately.
// POST /api/tryon/sessions/{id}/crop
func (h *TryOnHandler) ConfirmCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		X      int     `json:"x"`
		Y      int     `json:"y"`
		Width  int     `json:"width"`
		Height int     `json:"height"`
		Zoom   float64 `json:"zoom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.tryon_crop", "Invalid request body"))
		return
	}

	rect := image.Rect(req.X, req.Y, req.X+req.Width, req.Y+req.Height)
	if _, err := h.service.ConfirmCrop(r.Context(), id, rect, req.Zoom); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.respondWithSession(w, r, id)
}

// CancelCrop discards the staged photo without touching any previously
// accepted one.
// POST /api/tryon/sessions/{id}/crop/cancel
func (h *TryOnHandler) CancelCrop(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.CancelCrop(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.respondWithSession(w, r, id)
}

// =============================================================================
// Checklist and Options
// =============================================================================

// SetChecklistItem toggles one confirmation checklist item.
// POST /api/tryon/sessions/{id}/checklist
func (h *TryOnHandler) SetChecklistItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Item    string `json:"item"`
		Checked bool   `json:"checked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.tryon_checklist", "Invalid request body"))
		return
	}

	if err := h.service.SetChecklistItem(r.Context(), id, req.Item, req.Checked); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.respondWithSession(w, r, id)
}

// SetOptions changes the garment category and model backend. Only valid
// while the session sits in the upload state.
// POST /api/tryon/sessions/{id}/options
func (h *TryOnHandler) SetOptions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Category string `json:"category"`
		Model    string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.tryon_options", "Invalid request body"))
		return
	}

	if err := h.service.SetOptions(r.Context(), id, domain.GarmentCategory(req.Category), domain.ModelKey(req.Model)); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.respondWithSession(w, r, id)
}

// =============================================================================
// Generation
// =============================================================================

// Submit starts a generation. The call returns as soon as the session
// enters the processing state; clients follow progress via Get.
// POST /api/tryon/sessions/{id}/submit
func (h *TryOnHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Submit(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.respondSession(w, r, id, http.StatusAccepted)
}

// Retry returns a session from the result state to upload, keeping the
// accepted photo so the shopper can go again without re-uploading.
// POST /api/tryon/sessions/{id}/retry
func (h *TryOnHandler) Retry(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.service.Retry(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.respondWithSession(w, r, id)
}

// Result streams the branded result image.
// GET /api/tryon/sessions/{id}/result
func (h *TryOnHandler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	data, err := h.service.Result(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// =============================================================================
// Helpers
// =============================================================================

func (h *TryOnHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("handler.tryon", "Invalid session ID"))
		return uuid.Nil, false
	}
	return id, true
}

// respondWithSession writes the current session snapshot with 200 OK.
func (h *TryOnHandler) respondWithSession(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	h.respondSession(w, r, id, http.StatusOK)
}

func (h *TryOnHandler) respondSession(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	session, err := h.service.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, status, toSessionResponse(session))
}
