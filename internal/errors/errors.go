// Package errors provides standardized domain errors with codes for the
// PodSkip API.
//
// Usage:
//
//	// In services - return typed errors
//	if set == nil {
//	    return errors.NotFound("no segments for episode")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrParse) {
//	    // map to 422
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeAlreadyExists  Code = "ALREADY_EXISTS"
	CodeValidation     Code = "VALIDATION"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL"
	CodeParse          Code = "PARSE"           // AI reply unusable even after sanitizing
	CodePlaybackSource Code = "PLAYBACK_SOURCE" // local audio unusable after recovery
	CodeStaleResult    Code = "STALE_RESULT"    // detection result superseded by a newer run
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict, CodeStaleResult:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeParse:
		return http.StatusUnprocessableEntity
	case CodePlaybackSource:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists  = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
	ErrParse          = &Error{Code: CodeParse, Message: "unparseable response"}
	ErrPlaybackSource = &Error{Code: CodePlaybackSource, Message: "playback source unavailable"}
	ErrStaleResult    = &Error{Code: CodeStaleResult, Message: "detection result superseded"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Parse creates a parse error for an AI reply that is unusable even
// after sanitizing.
func Parse(msg string) *Error {
	return &Error{Code: CodeParse, Message: msg}
}

// PlaybackSource creates a terminal playback source error.
func PlaybackSource(msg string) *Error {
	return &Error{Code: CodePlaybackSource, Message: msg}
}

// StaleResult creates a stale detection result error.
func StaleResult(msg string) *Error {
	return &Error{Code: CodeStaleResult, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
