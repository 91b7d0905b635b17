package event

import (
	"errors"
	"fmt"
)

// ValidationError rejects a malformed event before it reaches the
// queue. The code identifies which field failed.
type ValidationError struct {
	Code    ValidationCode
	Field   string
	Message string
}

// ValidationCode categorizes event validation failures.
type ValidationCode string

const (
	ErrCodeMissingID       ValidationCode = "MISSING_ID"
	ErrCodeMissingElement  ValidationCode = "MISSING_ELEMENT"
	ErrCodeInvalidType     ValidationCode = "INVALID_TYPE"
	ErrCodeInvalidPriority ValidationCode = "INVALID_PRIORITY"
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
}

// IsValidation returns true if the error is an event validation error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func validate(e Event) error {
	if e.ID == "" {
		return &ValidationError{Code: ErrCodeMissingID, Field: "id", Message: "event id is required"}
	}
	if e.ElementID == "" {
		return &ValidationError{Code: ErrCodeMissingElement, Field: "element_id", Message: "element id is required"}
	}
	if !e.Type.Valid() {
		return &ValidationError{Code: ErrCodeInvalidType, Field: "type", Message: fmt.Sprintf("unknown event type %q", e.Type)}
	}
	if !e.Priority.Valid() {
		return &ValidationError{Code: ErrCodeInvalidPriority, Field: "priority", Message: fmt.Sprintf("priority %d out of range", e.Priority)}
	}
	return nil
}
