// Package domainerrors classifies every failure the client can surface.
//
// Each error carries a Code (the classification callers branch on) and a
// human-readable Message (the text shown to the user). Infrastructure facts
// such as "key not found" live in pkg/platform/sentinel and are translated into
// a Code at the boundary that understands them.
//
// Usage:
//
//	return nil, dErrors.New(dErrors.CodeValidation, "username is required")
//	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist token")
//	if dErrors.Is(err, dErrors.CodeUnauthorized) { ... }
package domainerrors

import (
	"errors"
)

// Code classifies a failure.
type Code string

const (
	// CodeUnauthorized: session invalid or expired. Always paired with session teardown
	// unless the request was a credential exchange.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: authenticated but lacking privilege.
	CodeForbidden Code = "forbidden"
	CodeNotFound  Code = "not_found"
	// CodeBadRequest: the backend rejected client-supplied data.
	CodeBadRequest Code = "bad_request"
	// CodeValidation: input failed validation, locally or on the backend.
	CodeValidation Code = "validation"
	// CodeServer covers the 5xx class.
	CodeServer Code = "server_error"
	// CodeNetwork: no response reached the client.
	CodeNetwork Code = "network"
	CodeTimeout Code = "timeout"
	// CodeRequestFailed is the generic business failure for codes without a
	// dedicated classification.
	CodeRequestFailed Code = "request_failed"
	// CodeCanceled: the caller abandoned the call.
	CodeCanceled Code = "canceled"
	CodeInternal Code = "internal"
)

// Error is a classified failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code and message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a classified error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap classifies an underlying error, keeping it reachable through errors.Is/As.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// Is reports whether any error in err's chain carries the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// HasCode is an alias for Is that reads better in guard clauses.
func HasCode(err error, code Code) bool {
	return Is(err, code)
}

// CodeOf returns the classification of err, or CodeInternal for unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the user-facing message of err. Unclassified errors fall
// back to their Error() text.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
