package errors

import (
	"errors"
	"net/http"
)

// Standard error types
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("resource conflict")
	ErrInternal          = errors.New("internal error")
	ErrRejected          = errors.New("rejected by backend")
	ErrNetwork           = errors.New("network failure")
	ErrTimeout           = errors.New("timeout")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCodeMismatch      = errors.New("verification code mismatch")
	ErrNoChallenge       = errors.New("no active verification challenge")
	ErrNotLoaded         = errors.New("orders not loaded")
)

// AppError represents a structured application error with context
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Context    map[string]interface{}
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new AppError with the given parameters
func NewAppError(err error, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Context:    make(map[string]interface{}),
	}
}

// StatusCode returns the HTTP status carried by err, or 500.
func StatusCode(err error) int {
	var appErr *AppError

	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}

	return http.StatusInternalServerError
}

// IsNetwork reports whether err is a transport failure rather than a
// backend answer. Only logging distinguishes the two.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}

// IsRejected reports whether the backend answered with an error status.
func IsRejected(err error) bool {
	var appErr *AppError

	if !errors.As(err, &appErr) {
		return false
	}

	return !IsNetwork(err) && appErr.StatusCode >= 400 && !IsLocal(err)
}

// IsLocal reports whether err was raised before any network call.
func IsLocal(err error) bool {
	var appErr *AppError

	if errors.As(err, &appErr) {
		if c, ok := appErr.Context["local"].(bool); ok && c {
			return true
		}
	}

	return errors.Is(err, ErrCodeMismatch) ||
		errors.Is(err, ErrNoChallenge) ||
		errors.Is(err, ErrInvalidTransition)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound)
}

// NewValidationError creates a local validation error. No request was sent.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest).WithContext("local", true)
}

// NewInvalidTransitionError creates an error for an FSM violation detected locally
func NewInvalidTransitionError(message string) *AppError {
	return NewAppError(ErrInvalidTransition, message, http.StatusUnprocessableEntity)
}

// NewCodeMismatchError creates an error for a mistyped verification code
func NewCodeMismatchError(message string) *AppError {
	return NewAppError(ErrCodeMismatch, message, http.StatusBadRequest)
}

// NewNoChallengeError creates an error for a confirm without an active challenge
func NewNoChallengeError(message string) *AppError {
	return NewAppError(ErrNoChallenge, message, http.StatusConflict)
}

// NewNetworkError creates a transport failure error
func NewNetworkError(message string) *AppError {
	return NewAppError(ErrNetwork, message, http.StatusBadGateway)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *AppError {
	return NewAppError(ErrTimeout, message, http.StatusGatewayTimeout)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrInternal, message, http.StatusInternalServerError)
}

// NewBackendError maps a backend error status to a sentinel. The message is
// the backend's own text and is never rewritten.
func NewBackendError(statusCode int, message string) *AppError {
	var sentinel error

	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrInvalidInput
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrConflict
	default:
		sentinel = ErrRejected
	}

	return NewAppError(sentinel, message, statusCode).WithContext("backend", true)
}
