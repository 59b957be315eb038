// Package apperr defines the error kinds surfaced by the domain layer.
// Handlers translate each kind into an HTTP status; everything else is a 500.
package apperr

import (
	"errors"
	"fmt"
)

// Kinds. Match them with errors.Is.
var (
	// ErrValidation covers malformed input and references to missing entities.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when an entity does not exist or is outside the caller's scope.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a lifecycle or capacity precondition is violated.
	ErrConflict = errors.New("conflict")
)

// Error carries a human readable message alongside its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Validation returns an ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConflict with a formatted message.
func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports which kind err belongs to, or nil for infrastructure errors.
func KindOf(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConflict):
		return ErrConflict
	}
	return nil
}
