package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	// ErrCodeValidation covers malformed or missing request fields;
	// never retried
	ErrCodeValidation = "validation_error"

	// ErrCodeAuthenticity marks a failed webhook signature check;
	// never retried, logged as a security event
	ErrCodeAuthenticity = "authenticity_error"

	// ErrCodeUpstream marks a transient provider failure; recovered by
	// the next poll tick or webhook redelivery, never by an in-handler
	// retry and never interpreted as a refusal
	ErrCodeUpstream = "upstream_error"

	// ErrCodeNotFound is returned when verify is called for an id that
	// was never created
	ErrCodeNotFound = "transaction_not_found"

	ErrCodeInternalError = "internal_error"
)
