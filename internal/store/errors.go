package store

import (
	"fmt"
	"net/http"
)

// Error is a store-level error carrying the HTTP status it maps to.
// Callers wrap the sentinels below with fmt.Errorf("...: %w", ...) so
// errors.Is keeps matching.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status for this error.
func (e *Error) HTTPCode() int { return e.Code }

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}

	// ErrStaleGeneration is returned when a segment set commit carries a
	// generation older than the one already stored.
	ErrStaleGeneration = &Error{
		Code:    http.StatusConflict,
		Message: "detection result superseded by a newer run",
	}
)
