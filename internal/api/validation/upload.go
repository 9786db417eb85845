package validation

import "github.com/google/uuid"

// UploadURLRequest mirrors the fields needed for upload credential validation.
// The filename is informational only; the storage key is derived from
// identifiers, never from caller input.
type UploadURLRequest struct {
	TeamID   string
	Filename string
}

// ValidateUploadURLRequest validates the fields of an upload credential request.
func ValidateUploadURLRequest(req UploadURLRequest) []FieldError {
	var errs []FieldError

	if req.TeamID == "" {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId is required"})
	} else if _, err := uuid.Parse(req.TeamID); err != nil {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId must be a valid UUID"})
	}

	if len(req.Filename) > 255 {
		errs = append(errs, FieldError{Field: "filename", Message: "filename must be at most 255 characters"})
	}

	return errs
}
