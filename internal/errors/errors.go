// Package errors provides standardized domain errors with codes for the BBLib server.
//
// Usage:
//
//	// In services - return typed errors
//	if len(rows) == 0 {
//	    return errors.EmptyDataset("inventory CSV loaded but contains no rows")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrReadOnly) {
//	    ...
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
	// CodeNotPublic means a read endpoint returned markup instead of CSV,
	// i.e. the sheet is not published to the web.
	CodeNotPublic Code = "NOT_PUBLIC"
	// CodeFetchFailed means a read endpoint returned a non-success HTTP status.
	CodeFetchFailed Code = "FETCH_FAILED"
	// CodeEmptyDataset means a CSV decoded without error but yielded no rows.
	CodeEmptyDataset Code = "EMPTY_DATASET"
	// CodeMissingColumn means a required column (e.g. the inventory ID column) is absent.
	CodeMissingColumn Code = "MISSING_COLUMN"
	// CodeReadOnly means a write was attempted while the server is in public mode.
	CodeReadOnly Code = "READ_ONLY"
	// CodeRateLimited means an identity exceeded its submission rate.
	CodeRateLimited Code = "RATE_LIMITED"

	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeValidation   Code = "VALIDATION"
	CodeInternal     Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeReadOnly:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeNotPublic, CodeFetchFailed, CodeEmptyDataset, CodeMissingColumn:
		// Upstream sheet problems surface as 502: the request was fine,
		// the backing spreadsheet was not.
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

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotPublic     = &Error{Code: CodeNotPublic, Message: "endpoint returned markup instead of CSV"}
	ErrFetchFailed   = &Error{Code: CodeFetchFailed, Message: "fetch failed"}
	ErrEmptyDataset  = &Error{Code: CodeEmptyDataset, Message: "dataset is empty"}
	ErrMissingColumn = &Error{Code: CodeMissingColumn, Message: "required column missing"}
	ErrReadOnly      = &Error{Code: CodeReadOnly, Message: "server is in read-only mode"}
	ErrRateLimited   = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized  = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden     = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotPublic creates a not-public error.
func NotPublic(msg string) *Error {
	return &Error{Code: CodeNotPublic, Message: msg}
}

// FetchFailed creates a fetch-failed error carrying the HTTP status.
func FetchFailed(dataset string, status int) *Error {
	return &Error{
		Code:    CodeFetchFailed,
		Message: fmt.Sprintf("%s CSV fetch failed with status %d", dataset, status),
		Details: map[string]any{"dataset": dataset, "status": status},
	}
}

// EmptyDataset creates an empty-dataset error.
func EmptyDataset(msg string) *Error {
	return &Error{Code: CodeEmptyDataset, Message: msg}
}

// MissingColumn creates a missing-column error.
func MissingColumn(msg string) *Error {
	return &Error{Code: CodeMissingColumn, Message: msg}
}

// ReadOnly creates a read-only error.
func ReadOnly(msg string) *Error {
	return &Error{Code: CodeReadOnly, Message: msg}
}

// RateLimited creates a rate-limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
