package client

import (
	"errors"
	"fmt"
)

// APIError represents an error returned by the API
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsConflict returns true if the error is a 409, such as a job that is already running
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}

// IsValidationError returns true if the error is a 400 validation error
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == 400
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsNotFound reports whether err is an APIError with status 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}
