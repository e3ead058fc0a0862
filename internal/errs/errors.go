package errs

import (
	"errors"
	"net/http"
)

// Sentinel kinds for all domain failures. Every error produced by the
// core components wraps exactly one of these, so transport code can map
// a failure to a status with errors.Is and nothing else.
var (
	ErrInvalidID  = errors.New("invalid identifier")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error carries a short human-readable message alongside its kind.
// The message is what callers are allowed to see; internal detail stays
// in logs.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

func Invalid(msg string) error    { return &Error{kind: ErrInvalidID, msg: msg} }
func Validation(msg string) error { return &Error{kind: ErrValidation, msg: msg} }
func Forbidden(msg string) error  { return &Error{kind: ErrForbidden, msg: msg} }
func NotFound(msg string) error   { return &Error{kind: ErrNotFound, msg: msg} }
func Conflict(msg string) error   { return &Error{kind: ErrConflict, msg: msg} }

// ToHTTP maps a domain error to its response status. Anything outside
// the taxonomy is an unexpected failure.
func ToHTTP(err error) int {
	switch {
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
