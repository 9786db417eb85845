package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/api/response"
	"github.com/oversteer-dev/pitwall/internal/api/validation"
	"github.com/oversteer-dev/pitwall/internal/session"
)

type workerLap struct {
	LapNumber int    `json:"lapNumber"`
	LapTimeMs *int64 `json:"lapTimeMs"`
	IsValid   bool   `json:"isValid"`
	Best      bool   `json:"best"`
}

type workerChannel struct {
	Name string  `json:"name"`
	Unit *string `json:"unit"`
}

type workerUpdateRequest struct {
	Status     string          `json:"status"`
	DriverName *string         `json:"driverName"`
	TrackName  *string         `json:"trackName"`
	CarName    *string         `json:"carName"`
	StartedAt  *time.Time      `json:"startedAt"`
	Laps       []workerLap     `json:"laps"`
	Channels   []workerChannel `json:"channels"`
}

// WorkerHandler receives status reports from the external parsing worker.
// The route sits behind the webhook-secret middleware, not the session
// auth: the worker is a service, not a team member.
type WorkerHandler struct {
	sessions *session.Service
}

// NewWorkerHandler creates a new WorkerHandler.
func NewWorkerHandler(sessions *session.Service) *WorkerHandler {
	return &WorkerHandler{sessions: sessions}
}

// Update handles POST /internal/sessions/{id}/status.
func (h *WorkerHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 8<<20)
	var req workerUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateWorkerUpdateRequest(validation.WorkerUpdateRequest{
		Status:   req.Status,
		LapCount: len(req.Laps),
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	update := session.WorkerUpdate{
		Status: session.Status(req.Status),
		Meta: session.ParsedMeta{
			DriverName: req.DriverName,
			TrackName:  req.TrackName,
			CarName:    req.CarName,
			StartedAt:  req.StartedAt,
			LapCount:   len(req.Laps),
		},
	}
	for _, l := range req.Laps {
		update.Laps = append(update.Laps, session.Lap{
			SessionID: id,
			LapNumber: l.LapNumber,
			LapTimeMs: l.LapTimeMs,
			IsValid:   l.IsValid,
			Best:      l.Best,
		})
	}
	for _, ch := range req.Channels {
		update.Channels = append(update.Channels, session.Channel{
			SessionID: id,
			Name:      ch.Name,
			Unit:      ch.Unit,
		})
	}

	if err := h.sessions.ApplyWorkerUpdate(r.Context(), id, update); err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Session not found", requestID)
		case errors.Is(err, session.ErrInvalidTransition):
			response.Err(w, http.StatusConflict, "INVALID_TRANSITION", "Session is not in a state accepting this update", requestID)
		default:
			slog.Error("failed to apply worker update", "error", err, "sessionId", id, "status", req.Status)
			response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to apply update", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, map[string]bool{"ok": true}, requestID)
}
