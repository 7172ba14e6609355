package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with additional context
type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeProbeFailure       = "PROBE_FAILURE"
	ErrCodeExternalTool       = "EXTERNAL_TOOL_ERROR"
	ErrCodeDelivery           = "DELIVERY_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

func (e *AppError) withDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Conflict creates a conflict error
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// ValidationError creates a validation error
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).withDetails(details)
}

// DatabaseError creates a persistence error
func DatabaseError(message string, err error) *AppError {
	return wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// ProbeFailure reports that a health probe could not run
func ProbeFailure(check string, err error) *AppError {
	return wrap(err, ErrCodeProbeFailure, fmt.Sprintf("Health check %s failed to run", check), http.StatusInternalServerError)
}

// ExternalToolError reports a failed dump/restore utility, keeping its diagnostic output
func ExternalToolError(tool string, output string, err error) *AppError {
	return wrap(err, ErrCodeExternalTool, fmt.Sprintf("%s failed", tool), http.StatusBadGateway).
		withDetails(map[string]string{"output": output})
}

// DeliveryError reports a notification that could not reach its recipient
func DeliveryError(recipient string, err error) *AppError {
	return wrap(err, ErrCodeDelivery, fmt.Sprintf("Failed to deliver notification to %s", recipient), http.StatusBadGateway)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// ServiceUnavailable creates a service unavailable error
func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

// IsNotFound reports whether err carries the NOT_FOUND code
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// hasCode reports whether the first AppError in err's chain has the given code
func hasCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
