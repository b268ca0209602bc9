// Package domainerrors provides coded errors shared across the engine.
//
// Services return these so transport can translate them into consistent HTTP
// responses without string matching. Stores return pkg/platform/sentinel
// errors instead; services translate at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for callers and transport.
type Code string

const (
	// CodeInvalidInput marks an incomplete or malformed request.
	CodeInvalidInput Code = "invalid_input"
	// CodeNotFound marks a referenced record that does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition marks a status change not reachable from the
	// record's current state.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeConflict marks a write that lost a race against another writer.
	CodeConflict Code = "concurrent_modification"
	// CodeUnauthorized marks a caller that failed identity checks.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal marks unexpected failures the caller cannot act on.
	CodeInternal Code = "internal"
)

// Error carries a machine-readable code alongside a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a coded error preserving the underlying cause for errors.Is/As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status transport should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
