package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/smartcam/internal/export"
)

// ArchiveHandler serves finished sessions from the database and gallery
// lookups over the stored face descriptors.
type ArchiveHandler struct {
	manager *Manager
}

// NewArchiveHandler creates the archive handler.
func NewArchiveHandler(manager *Manager) *ArchiveHandler {
	return &ArchiveHandler{manager: manager}
}

// List returns archived sessions, newest first.
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	archive := h.manager.Archive()
	if archive == nil {
		respondError(w, http.StatusServiceUnavailable, "session archive is not configured")
		return
	}

	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	sessions, err := archive.List(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

// Get returns one archived session report, with its model summary.
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	archive := h.manager.Archive()
	if archive == nil {
		respondError(w, http.StatusServiceUnavailable, "session archive is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	report, summary, err := archive.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"report":  report,
		"summary": summary,
	})
}

// Delete removes an archived session.
func (h *ArchiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	archive := h.manager.Archive()
	if archive == nil {
		respondError(w, http.StatusServiceUnavailable, "session archive is not configured")
		return
	}

	if err := archive.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// Export streams an archived session in the requested format: json
// (default), csv, or html.
func (h *ArchiveHandler) Export(w http.ResponseWriter, r *http.Request) {
	archive := h.manager.Archive()
	if archive == nil {
		respondError(w, http.StatusServiceUnavailable, "session archive is not configured")
		return
	}

	id := chi.URLParam(r, "id")
	report, _, err := archive.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=session-"+id+".json")
		if err := export.WriteJSON(w, *report); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=session-"+id+".csv")
		if err := export.WriteCSV(w, *report); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
		}
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := export.WriteHTML(w, *report); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
		}
	default:
		respondError(w, http.StatusBadRequest, "unsupported format: "+sanitizeForLog(format))
	}
}

type searchRequest struct {
	Descriptor []float32 `json:"descriptor"`
	Limit      int       `json:"limit"`
}

type searchMatch struct {
	SessionID string  `json:"sessionId"`
	TrackID   int64   `json:"trackId"`
	Name      string  `json:"name,omitempty"`
	Distance  float64 `json:"distance"`
}

// Search finds the stored identities closest to a face descriptor. The
// in-memory gallery answers when built; otherwise the database does the
// vector scan.
func (h *ArchiveHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Descriptor) == 0 {
		respondError(w, http.StatusBadRequest, "descriptor is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	gallery := h.manager.Gallery()
	if gallery != nil && gallery.Size() > 0 {
		matches, err := gallery.Search(req.Descriptor, req.Limit)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := make([]searchMatch, 0, len(matches))
		for _, m := range matches {
			out = append(out, searchMatch{
				SessionID: m.Identity.SessionID,
				TrackID:   m.Identity.TrackID,
				Name:      m.Identity.Name,
				Distance:  m.Distance,
			})
		}
		respondJSON(w, http.StatusOK, out)
		return
	}

	identities := h.manager.IdentityStore()
	if identities == nil {
		respondError(w, http.StatusServiceUnavailable, "identity archive is not configured")
		return
	}

	matches, err := identities.Nearest(r.Context(), req.Descriptor, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]searchMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, searchMatch{
			SessionID: m.Identity.SessionID,
			TrackID:   m.Identity.TrackID,
			Name:      m.Identity.Name,
			Distance:  m.Distance,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
