package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/api/response"
	"github.com/oversteer-dev/pitwall/internal/lap"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/team"
)

type lapRowsResponse struct {
	Rows []lap.Sample `json:"rows"`
}

// LapHandler handles parsed lap retrieval.
type LapHandler struct {
	svc *lap.Service
}

// NewLapHandler creates a new LapHandler.
func NewLapHandler(svc *lap.Service) *LapHandler {
	return &LapHandler{svc: svc}
}

// Fetch handles GET /api/sessions/{id}/laps/{lap}. A lap whose artifact
// the worker has not produced yet maps to 404 with the NOT_READY code:
// the wire status matches a missing session, but the code tells clients a
// retry is meaningful.
func (h *LapHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	lapNumber, err := strconv.Atoi(chi.URLParam(r, "lap"))
	if err != nil || lapNumber < 1 {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "lap must be a positive integer", requestID)
		return
	}

	rows, err := h.svc.FetchLap(r.Context(), ident, sessionID, lapNumber)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Session not found", requestID)
		case errors.Is(err, team.ErrNotMember), errors.Is(err, team.ErrInsufficientRole):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a team member", requestID)
		case errors.Is(err, lap.ErrLapNotReady):
			slog.Info("lap artifact not ready", "sessionId", sessionID, "lap", lapNumber)
			response.Err(w, http.StatusNotFound, "NOT_READY", "Lap not found or not parsed yet", requestID)
		default:
			slog.Error("failed to fetch lap", "error", err, "sessionId", sessionID, "lap", lapNumber)
			response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to fetch lap", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, lapRowsResponse{Rows: rows}, requestID)
}
