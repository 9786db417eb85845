package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/oversteer-dev/pitwall/internal/api/middleware"
	"github.com/oversteer-dev/pitwall/internal/api/response"
	"github.com/oversteer-dev/pitwall/internal/api/validation"
	"github.com/oversteer-dev/pitwall/internal/identity"
	"github.com/oversteer-dev/pitwall/internal/team"
)

type createTeamRequest struct {
	Base string `json:"base"`
}

type addMemberRequest struct {
	TeamID    string `json:"teamId"`
	EmailOrID string `json:"emailOrId"`
}

type teamPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createTeamResponse struct {
	Team teamPayload `json:"team"`
}

type membershipResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// TeamHandler handles team creation and membership endpoints.
type TeamHandler struct {
	svc *team.Service
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(svc *team.Service) *TeamHandler {
	return &TeamHandler{svc: svc}
}

// Create handles POST /api/teams. The caller becomes the owner of a team
// named "<base> <n>" with the next free suffix for that base.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{Base: req.Base})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t, err := h.svc.CreateTeam(r.Context(), ident, req.Base)
	if err != nil {
		slog.Error("failed to create team", "error", err, "base", req.Base)
		response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to create team", requestID)
		return
	}

	response.Success(w, http.StatusCreated, createTeamResponse{
		Team: teamPayload{ID: t.ID.String(), Name: t.Name},
	}, requestID)
}

// List handles GET /api/teams, returning the caller's teams with roles.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	memberships, err := h.svc.ListForUser(r.Context(), ident)
	if err != nil {
		slog.Error("failed to list teams", "error", err, "userId", ident.UserID)
		response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to list teams", requestID)
		return
	}

	items := make([]membershipResponse, 0, len(memberships))
	for _, ms := range memberships {
		items = append(items, membershipResponse{
			ID:   ms.Team.ID.String(),
			Name: ms.Team.Name,
			Role: string(ms.Role),
		})
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// AddMember handles POST /api/members. Only owners and admins of the team
// may add members; the target joins with the member role.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ident := middleware.GetIdentity(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAddMemberRequest(validation.AddMemberRequest{
		TeamID:    req.TeamID,
		EmailOrID: req.EmailOrID,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	teamID, _ := uuid.Parse(req.TeamID)

	if err := h.svc.AddMember(r.Context(), ident, teamID, req.EmailOrID); err != nil {
		switch {
		case errors.Is(err, team.ErrNotMember), errors.Is(err, team.ErrInsufficientRole):
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Owner or admin role required", requestID)
		case errors.Is(err, identity.ErrUserNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "No user found for that email (they must sign in once first)", requestID)
		case errors.Is(err, team.ErrTeamNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
		case errors.Is(err, team.ErrAlreadyMember):
			response.Err(w, http.StatusConflict, "ALREADY_MEMBER", "User is already a team member", requestID)
		default:
			slog.Error("failed to add member", "error", err, "teamId", req.TeamID)
			response.Err(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to add member", requestID)
		}
		return
	}

	response.Success(w, http.StatusOK, map[string]bool{"ok": true}, requestID)
}
