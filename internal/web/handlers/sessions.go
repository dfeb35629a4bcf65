package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
)

// maxFrameBytes caps a single uploaded frame. Anything larger than a few MB
// is not a webcam frame.
const maxFrameBytes = 8 << 20

// maxAudioBytes caps a single uploaded audio chunk.
const maxAudioBytes = 16 << 20

// SessionsHandler serves the live session lifecycle.
type SessionsHandler struct {
	manager *Manager
}

// NewSessionsHandler creates the live session handler.
func NewSessionsHandler(manager *Manager) *SessionsHandler {
	return &SessionsHandler{manager: manager}
}

type startSessionRequest struct {
	Preset string `json:"preset"`
}

// Start opens a new session.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
	}

	id, err := h.manager.Start(req.Preset)
	if errors.Is(err, ErrSessionActive) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("session %s started (preset %q)", id, sanitizeForLog(req.Preset))
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Stop ends the live session and returns the final report.
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.Stop()
	if errors.Is(err, ErrNoSession) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Printf("session %s stopped", report.ID)
	respondJSON(w, http.StatusOK, report)
}

// Report returns the current report snapshot of the live session.
func (h *SessionsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.manager.Report()
	if errors.Is(err, ErrNoSession) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// SubmitFrame ingests one captured frame (raw JPEG or PNG body).
func (h *SessionsHandler) SubmitFrame(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxFrameBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read frame")
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "empty frame")
		return
	}
	if len(data) > maxFrameBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "frame too large")
		return
	}

	if err := h.manager.SubmitFrame(data); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, nil)
}

// SubmitAudio ingests one recorded audio chunk for transcription.
func (h *SessionsHandler) SubmitAudio(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read audio")
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "empty audio chunk")
		return
	}
	if len(data) > maxAudioBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "audio chunk too large")
		return
	}

	accepted, err := h.manager.SubmitAudio(r.Context(), data, r.Header.Get("Content-Type"))
	if errors.Is(err, ErrNoSession) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	// A dropped chunk is not an error: one transcription runs at a time.
	respondJSON(w, http.StatusAccepted, map[string]bool{"accepted": accepted})
}

type assignNameRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AssignName labels a confirmed identity.
func (h *SessionsHandler) AssignName(w http.ResponseWriter, r *http.Request) {
	var req assignNameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.manager.AssignName(req.ID, req.Name); err != nil {
		if errors.Is(err, ErrNoSession) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// ResetIdentities clears the identity memory without ending the session.
func (h *SessionsHandler) ResetIdentities(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.ResetIdentities(); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

type identityView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	LastSeen string `json:"lastSeen"`
}

// Identities lists the confirmed identities of the live session.
func (h *SessionsHandler) Identities(w http.ResponseWriter, r *http.Request) {
	identities, err := h.manager.Identities()
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	out := make([]identityView, 0, len(identities))
	for _, id := range identities {
		out = append(out, identityView{
			ID:       id.ID,
			Name:     id.Name,
			LastSeen: id.LastSeen.Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
	respondJSON(w, http.StatusOK, out)
}
