package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication failed")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage error")
)

// Error is returned by every workflow. Msg is safe to show to the user.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error { return newError(ErrValidation, format, args...) }
func notFoundf(format string, args ...any) error   { return newError(ErrNotFound, format, args...) }
func conflictf(format string, args ...any) error   { return newError(ErrConflict, format, args...) }
func forbiddenf(format string, args ...any) error  { return newError(ErrForbidden, format, args...) }

// storageError logs the underlying failure and hides it behind a generic message.
// Errors that already carry a kind pass through untouched.
func storageError(log *zap.Logger, op string, err error, fields ...zap.Field) error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	log.Error(op, append(fields, zap.Error(err))...)
	return &Error{Kind: ErrStorage, Msg: op + " failed, please try again", Err: err}
}
