// Package errors provides standardized domain errors with codes for the ReadShelf engine.
//
// Usage:
//
//	// In views and services - return typed errors
//	if strings.TrimSpace(content) == "" {
//	    return errors.Validation("note content must not be blank")
//	}
//
//	// At call sites - check with errors.Is
//	if errors.Is(err, errors.ErrRemoteWrite) {
//	    // local state has already been rolled back
//	}
package errors

import (
	"errors"
	"fmt"
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
	// CodeValidation marks input rejected before any I/O (blank note, bad rating).
	CodeValidation Code = "VALIDATION"
	// CodeRemoteFetch marks a failed read from a remote collaborator.
	// The previously displayed state is retained.
	CodeRemoteFetch Code = "REMOTE_FETCH"
	// CodeRemoteWrite marks a failed mutation commit. Optimistic local state
	// has been reverted by the time this error is surfaced.
	CodeRemoteWrite Code = "REMOTE_WRITE"
	// CodeConsistencyGap marks a multi-step mutation whose first call
	// succeeded but whose dependent call failed. Not auto-repaired.
	CodeConsistencyGap Code = "CONSISTENCY_GAP"
	CodeNotFound       Code = "NOT_FOUND"
	CodeAlreadyExists  Code = "ALREADY_EXISTS"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL"
)

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

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrRemoteFetch    = &Error{Code: CodeRemoteFetch, Message: "remote fetch failed"}
	ErrRemoteWrite    = &Error{Code: CodeRemoteWrite, Message: "remote write failed"}
	ErrConsistencyGap = &Error{Code: CodeConsistencyGap, Message: "consistency gap"}
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists  = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// RemoteFetch creates a remote fetch error wrapping the transport failure.
func RemoteFetch(msg string, cause error) *Error {
	return &Error{Code: CodeRemoteFetch, Message: msg, cause: cause}
}

// RemoteWrite creates a remote write error wrapping the transport failure.
func RemoteWrite(msg string, cause error) *Error {
	return &Error{Code: CodeRemoteWrite, Message: msg, cause: cause}
}

// ConsistencyGap creates a consistency gap error wrapping the dependent failure.
func ConsistencyGap(msg string, cause error) *Error {
	return &Error{Code: CodeConsistencyGap, Message: msg, cause: cause}
}

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

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
