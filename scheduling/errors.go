package scheduling

import (
	"errors"
	"fmt"
)

// Error kinds returned by the scheduling services. Callers match them with
// errors.Is; the wrapped message is safe to show to clients.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Error carries a client-facing message for one of the error kinds above.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func notFoundErr(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

func forbiddenErr(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

func conflictErr(format string, args ...any) error {
	return newError(ErrConflict, format, args...)
}

// NotFound builds an ErrNotFound error for store adapters.
func NotFound(what string) error {
	return notFoundErr("%s not found", what)
}

// Conflict builds an ErrConflict error for store adapters.
func Conflict(msg string) error {
	return conflictErr("%s", msg)
}
