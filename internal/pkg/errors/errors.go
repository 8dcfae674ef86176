package errors

import "errors"

// Shared application errors
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when the caller has no valid admin session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the rights for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned for invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for resource state conflicts.
	ErrConflict = errors.New("resource state conflict")

	// ErrAlreadySubmitted means a submission already exists for the team email.
	// It is not a failure: callers render the persisted submission instead.
	ErrAlreadySubmitted = errors.New("quiz already submitted")

	// ErrNotConfigured means a backing store is not configured at all,
	// which is different from "configured but empty".
	ErrNotConfigured = errors.New("store not configured")

	// ErrUnavailable is returned when a dependency is temporarily unreachable.
	// The operation is safe to retry.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// FieldError describes a validation failure of a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level details and matches ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + e.Fields[0].Field + " " + e.Fields[0].Message
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add appends a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed, so callers can write `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
