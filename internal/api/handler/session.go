package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/api/response"
	"github.com/oversteer-dev/pitwall/internal/session"
	"github.com/oversteer-dev/pitwall/internal/team"
)

type sessionResponse struct {
	ID         string  `json:"id"`
	TeamID     string  `json:"teamId"`
	Status     string  `json:"status"`
	DriverName *string `json:"driverName"`
	TrackName  *string `json:"trackName"`
	CarName    *string `json:"carName"`
	LapCount   *int    `json:"lapCount"`
	StartedAt  *string `json:"startedAt"`
	CreatedAt  string  `json:"createdAt"`
}

type lapIndexResponse struct {
	LapNumber int    `json:"lapNumber"`
	LapTimeMs *int64 `json:"lapTimeMs"`
	IsValid   bool   `json:"isValid"`
	Best      bool   `json:"best"`
}

type channelResponse struct {
	Name string  `json:"name"`
	Unit *string `json:"unit"`
}

type sessionDetailResponse struct {
	Session  sessionResponse    `json:"session"`
	Laps     []lapIndexResponse `json:"laps"`
	Channels []channelResponse  `json:"channels"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID.String(),
		TeamID:     s.TeamID.String(),
		Status:     string(s.Status),
		DriverName: s.DriverName,
		TrackName:  s.TrackName,
		CarName:    s.CarName,
		LapCount:   s.LapCount,
		CreatedAt:  s.CreatedAt.UTC().Format(time.RFC3339),
	}
	if s.StartedAt != nil {
		started := s.StartedAt.UTC().Format(time.RFC3339)
		resp.StartedAt = &started
	}
	return resp
}

// SessionHandler handles session listing and detail endpoints.
type SessionHandler struct {
	svc *session.Service
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc *session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// List handles GET /api/sessions, returning the caller's sessions across
// all their teams. Callers poll this for status changes; nothing blocks
// on the parsing worker.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	sessions, err := h.svc.ListForUser(r.Context(), ident)
	if err != nil {
		slog.Error("failed to list sessions", "error", err, "userId", ident.UserID)
		response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to list sessions", requestID)
		return
	}

	items := make([]sessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, toSessionResponse(&sessions[i]))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// Get handles GET /api/sessions/{id}, returning the session with its lap
// index and channel list.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	d, err := h.svc.DetailForUser(r.Context(), ident, id)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Session not found", requestID)
		case errors.Is(err, team.ErrNotMember), errors.Is(err, team.ErrInsufficientRole):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Not a team member", requestID)
		default:
			slog.Error("failed to get session", "error", err, "id", id)
			response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to get session", requestID)
		}
		return
	}

	detail := sessionDetailResponse{
		Session:  toSessionResponse(d.Session),
		Laps:     make([]lapIndexResponse, 0, len(d.Laps)),
		Channels: make([]channelResponse, 0, len(d.Channels)),
	}
	for _, lap := range d.Laps {
		detail.Laps = append(detail.Laps, lapIndexResponse{
			LapNumber: lap.LapNumber,
			LapTimeMs: lap.LapTimeMs,
			IsValid:   lap.IsValid,
			Best:      lap.Best,
		})
	}
	for _, ch := range d.Channels {
		detail.Channels = append(detail.Channels, channelResponse{Name: ch.Name, Unit: ch.Unit})
	}

	response.Success(w, http.StatusOK, detail, requestID)
}
