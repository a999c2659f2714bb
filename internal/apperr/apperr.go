// Package apperr holds the error kinds every operation is translated into
// before a response leaves the service.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

// Error is a domain error with a client-safe message attached to one of the kinds above.
type Error struct {
	kind error
	msg  string
}

func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

type class struct {
	kind   error
	status int
	code   string
}

var classes = []class{
	{ErrValidation, http.StatusBadRequest, "invalid_request"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrConflict, http.StatusConflict, "conflict"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
}

// Classify maps err to an HTTP status and a stable error code.
// Errors without a known kind are internal.
func Classify(err error) (status int, code string) {
	for _, c := range classes {
		if errors.Is(err, c.kind) {
			return c.status, c.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// IsInternal reports whether err carries none of the known kinds.
func IsInternal(err error) bool {
	status, _ := Classify(err)
	return status == http.StatusInternalServerError
}

// PublicMessage returns the text that may be shown to a client for err.
// Internal errors never leak their detail.
func PublicMessage(err error) string {
	if IsInternal(err) {
		return "Internal server error"
	}

	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}

	for _, c := range classes {
		if errors.Is(err, c.kind) {
			return c.kind.Error()
		}
	}
	return "Internal server error"
}
