package errors

import (
	"fmt"
)

// BackendAPIError represents a non-2xx answer from the backend REST API.
// Detail carries the human-readable reason the API put into its response and
// is safe to show to the Telegram user.
type BackendAPIError struct {
	Operation string
	Status    int
	Detail    string
}

// Error returns the error message
func (e *BackendAPIError) Error() string {
	return fmt.Sprintf("backend API error during %s (status %d): %s", e.Operation, e.Status, e.Detail)
}

// ValidationError represents an error when admin input validation fails
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
