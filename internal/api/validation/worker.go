package validation

// WorkerUpdateRequest mirrors the fields needed for worker status validation.
type WorkerUpdateRequest struct {
	Status   string
	LapCount int
}

// ValidateWorkerUpdateRequest validates the fields of a worker status report.
func ValidateWorkerUpdateRequest(req WorkerUpdateRequest) []FieldError {
	var errs []FieldError

	switch req.Status {
	case "":
		errs = append(errs, FieldError{Field: "status", Message: "status is required"})
	case "parsing", "parsed", "failed":
	default:
		errs = append(errs, FieldError{Field: "status", Message: "status must be \"parsing\", \"parsed\" or \"failed\""})
	}

	if req.Status == "parsed" && req.LapCount < 0 {
		errs = append(errs, FieldError{Field: "lapCount", Message: "lapCount must not be negative"})
	}

	return errs
}
