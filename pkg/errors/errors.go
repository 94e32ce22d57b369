// Package errors provides structured error types for metachannel.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the core, CLI, and HTTP layers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The taxonomy is fixed by the proxy's failure-semantics design:
// UpstreamUnavailable, Decode, Parse, NotFound, MalformedRequest, Internal.
// The HTTP layer maps these onto status codes at a single boundary.
//
// # Usage
//
//	err := errors.New(errors.CodeNotFound, "artifact %s not found", filename)
//	if errors.Is(err, errors.CodeNotFound) {
//	    // Handle not-found
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.CodeUpstreamUnavailable, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the proxy's failure taxonomy.
const (
	// CodeUpstreamUnavailable is returned when the upstream channel could
	// not be reached (transport failure, timeout, non-2xx other than a
	// missing "current" variant).
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	// CodeDecode is returned when fetched bytes could not be decompressed.
	CodeDecode Code = "DECODE_ERROR"
	// CodeParse is returned when decompressed bytes are not valid repodata JSON.
	CodeParse Code = "PARSE_ERROR"
	// CodeNotFound is returned when a requested artifact, variant, or
	// cache entry does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeMalformedRequest is returned for an unparseable channel/arch/
	// constraint path segment.
	CodeMalformedRequest Code = "MALFORMED_REQUEST"
	// CodeInternal is returned for unexpected internal failures. The core
	// never catches it; it always propagates.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
