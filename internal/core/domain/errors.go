package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an operational error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates an authentication failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypePermission indicates a permission/authorization failure.
	ErrorTypePermission ErrorType = "permission"

	// ErrorTypeNotFound indicates a resource was not found.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeConflict indicates a state conflict with an existing resource.
	ErrorTypeConflict ErrorType = "conflict"

	// ErrorTypeServer indicates an internal failure safe to report generically.
	ErrorTypeServer ErrorType = "server"
)

// OperationalError is an expected, user-facing failure: validation errors,
// auth denials, missing resources. It carries a status and a message that are
// safe to expose in a response. Anything that is not an OperationalError is
// treated as unexpected and never leaks detail to the caller.
type OperationalError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Code is an optional specific error code
	Code string `json:"code,omitempty"`

	// Message is the human-readable error message, safe for responses
	Message string `json:"message"`

	// StatusCode is the suggested HTTP status code
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *OperationalError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *OperationalError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypePermission:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WithCode adds an error code to the error.
func (e *OperationalError) WithCode(code string) *OperationalError {
	e.Code = code
	return e
}

// WithStatusCode sets a specific HTTP status code.
func (e *OperationalError) WithStatusCode(code int) *OperationalError {
	e.StatusCode = code
	return e
}

// NewOperationalError creates an operational error.
func NewOperationalError(errType ErrorType, message string) *OperationalError {
	return &OperationalError{
		Type:    errType,
		Message: message,
	}
}

// IsOperational reports whether err is (or wraps) an OperationalError.
func IsOperational(err error) bool {
	var oe *OperationalError
	return errors.As(err, &oe)
}

// AsOperational extracts the OperationalError from err, if present.
func AsOperational(err error) (*OperationalError, bool) {
	var oe *OperationalError
	ok := errors.As(err, &oe)
	return oe, ok
}

// Convenience constructors for common operational errors

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *OperationalError {
	return NewOperationalError(ErrorTypeInvalidRequest, message)
}

// ErrUnauthorized creates an authentication error.
func ErrUnauthorized(message string) *OperationalError {
	return NewOperationalError(ErrorTypeAuthentication, message)
}

// ErrPermission creates a permission error.
func ErrPermission(message string) *OperationalError {
	return NewOperationalError(ErrorTypePermission, message)
}

// ErrNotFound creates a not found error.
func ErrNotFound(message string) *OperationalError {
	return NewOperationalError(ErrorTypeNotFound, message)
}

// ErrConflict creates a conflict error.
func ErrConflict(message string) *OperationalError {
	return NewOperationalError(ErrorTypeConflict, message)
}

// Engine-contract violations. These indicate misuse by the integrating
// application and are detected as early as possible, ideally at registration
// time, never silently degraded at request time.
var (
	// ErrDuplicateRoute is returned when (method, path) is already registered.
	ErrDuplicateRoute = errors.New("route already registered")

	// ErrEmptyPipeline is returned when a pipeline is built with no stages.
	ErrEmptyPipeline = errors.New("pipeline has no stages")

	// ErrMissingTerminator is returned when no stage in a pipeline can
	// produce a final respond outcome.
	ErrMissingTerminator = errors.New("pipeline has no terminator stage")

	// ErrUnterminatedPipeline is returned when a pipeline runs out of stages
	// without any stage responding.
	ErrUnterminatedPipeline = errors.New("pipeline completed without responding")

	// ErrAlreadyResponded is returned on any mutation of a finalized response.
	ErrAlreadyResponded = errors.New("response already finalized")

	// ErrMissingSessionContext is returned on a session-scope write without a
	// session id.
	ErrMissingSessionContext = errors.New("session scope requires a session id")
)

// ErrorRouterFailure is the fatal, unrecoverable condition raised when the
// error-handling path itself breaks. It propagates to the hosting layer,
// which emits a last-resort generic response.
type ErrorRouterFailure struct {
	// Stage is the name of the error stage that failed.
	Stage string
	// Cause is the original failure the error stage was handling.
	Cause error
}

func (e *ErrorRouterFailure) Error() string {
	return fmt.Sprintf("error stage %s failed while handling: %v", e.Stage, e.Cause)
}

func (e *ErrorRouterFailure) Unwrap() error { return e.Cause }

// IsErrorRouterFailure reports whether err is a fatal error-router failure.
func IsErrorRouterFailure(err error) bool {
	var f *ErrorRouterFailure
	return errors.As(err, &f)
}
