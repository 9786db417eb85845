package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/api/response"
	"github.com/oversteer-dev/pitwall/internal/api/validation"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/team"
)

type uploadURLRequest struct {
	Filename string `json:"filename"`
	TeamID   string `json:"teamId"`
}

type uploadURLResponse struct {
	URL        string `json:"url"`
	SessionID  string `json:"sessionId"`
	StorageKey string `json:"storageKey"`
	ExpiresAt  string `json:"expiresAt"`
}

// UploadHandler handles upload credential requests.
type UploadHandler struct {
	sessions *session.Service
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(sessions *session.Service) *UploadHandler {
	return &UploadHandler{sessions: sessions}
}

// Create handles POST /api/upload-url. It reserves a session row in the
// uploaded status and returns a single-PUT credential for the derived raw
// capture key. The payload bytes never pass through this service; the
// caller PUTs directly against object storage.
func (h *UploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req uploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUploadURLRequest(validation.UploadURLRequest{
		TeamID:   req.TeamID,
		Filename: req.Filename,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	teamID, _ := uuid.Parse(req.TeamID)

	grant, err := h.sessions.CreateForUpload(r.Context(), ident, teamID)
	if err != nil {
		switch {
		case errors.Is(err, team.ErrNotMember), errors.Is(err, team.ErrInsufficientRole):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a team member", requestID)
		default:
			slog.Error("failed to create upload credential", "error", err, "teamId", req.TeamID)
			response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create upload credential", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, uploadURLResponse{
		URL:        grant.URL.URL,
		SessionID:  grant.Session.ID.String(),
		StorageKey: grant.Session.StorageKey,
		ExpiresAt:  grant.URL.ExpiresAt.UTC().Format(time.RFC3339),
	}, requestID)
}
