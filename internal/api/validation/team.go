package validation

import (
	"strings"

	"github.com/google/uuid"
)

// CreateTeamRequest mirrors the fields needed for create team validation.
type CreateTeamRequest struct {
	Base string
}

// ValidateCreateTeamRequest validates the fields of a create team request.
func ValidateCreateTeamRequest(req CreateTeamRequest) []FieldError {
	var errs []FieldError

	base := strings.TrimSpace(req.Base)
	if base == "" {
		errs = append(errs, FieldError{Field: "base", Message: "base is required"})
	} else if len(base) > 100 {
		errs = append(errs, FieldError{Field: "base", Message: "base must be at most 100 characters"})
	}

	return errs
}

// AddMemberRequest mirrors the fields needed for add member validation.
type AddMemberRequest struct {
	TeamID    string
	EmailOrID string
}

// ValidateAddMemberRequest validates the fields of an add member request.
func ValidateAddMemberRequest(req AddMemberRequest) []FieldError {
	var errs []FieldError

	if req.TeamID == "" {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId is required"})
	} else if _, err := uuid.Parse(req.TeamID); err != nil {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId must be a valid UUID"})
	}

	if strings.TrimSpace(req.EmailOrID) == "" {
		errs = append(errs, FieldError{Field: "emailOrId", Message: "emailOrId is required"})
	}

	return errs
}
