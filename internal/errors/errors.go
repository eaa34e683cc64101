// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindTransient  Kind = "transient"
	KindInternal   Kind = "internal"
)

// Error is the service error type. The engine translates raw store errors
// into this taxonomy at its boundary so handlers never see driver errors.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation creates a recoverable bad-input error (HTTP 400).
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound creates a missing-resource error (HTTP 404).
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict creates an error for upserts that could not silently resolve (HTTP 409).
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Transient creates a retryable infrastructure error (HTTP 503).
func Transient(msg string, cause error) error {
	return &Error{Kind: KindTransient, Message: msg, cause: cause}
}

// Map converts repo/infra errors into taxonomy errors.
// Keeps the service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return err // already classified
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: "record not found", cause: err}

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: KindConflict, Message: "duplicate record", cause: err}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTransient, Message: "request timed out", cause: err}

	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindTransient, Message: "request was canceled", cause: err}

	default:
		return &Error{Kind: KindInternal, Message: "internal error", cause: err}
	}
}

// KindOf extracts the Kind from any error; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Public returns the classification and caller-safe message for an error.
// Unclassified errors and causes never leak to clients.
func Public(err error) (Kind, string) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, e.Message
	}
	return KindInternal, "internal error"
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
