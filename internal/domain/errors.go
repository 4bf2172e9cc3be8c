package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling in the
// handler layer without switching on concrete types.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a document or locale was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrStaleWrite   = errors.New("stale write")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// StaleWriteError is returned when a caller submits a version token that no
// longer matches the persisted token, meaning another editor committed first.
// The edit is rejected as a whole; the caller must re-fetch and retry.
type StaleWriteError struct {
	Message      string // Human-readable error message
	ResourceType string // Which token mismatched ("document" or "locale")
	Lang         string // Language code for locale-level mismatches
}

// Error implements the error interface
func (e *StaleWriteError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *StaleWriteError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrStaleWrite
func (e *StaleWriteError) Is(target error) bool {
	return target == ErrStaleWrite
}
