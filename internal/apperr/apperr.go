// Package apperr defines the error kinds shared by services and the HTTP layer.
// Services return these instead of raw driver errors so handlers can pick a status
// code without inspecting SQL or filesystem details.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrStorage       = errors.New("storage error")
	ErrSourceMissing = errors.New("backup source missing")
)

// Error carries a kind, a message safe to show to clients and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a failed store or filesystem operation.
func Storage(err error, format string, args ...any) error {
	return &Error{Kind: ErrStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

func SourceMissing(path string) error {
	return &Error{Kind: ErrSourceMissing, Message: fmt.Sprintf("backup source %q does not exist", path)}
}

// Message returns the client-facing part of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
