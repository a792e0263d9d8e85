package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the cfghist domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrIllegalState is returned when the boot file cannot be resolved.
	// It is fatal for the boot; the raw config name must be fixed by hand.
	ErrIllegalState = errors.New("cfghist: illegal state")

	// ErrPersistence is returned when writing the main file or its history fails.
	ErrPersistence = errors.New("cfghist: configuration persistence failed")

	// ErrResourceClosed is returned when a persistence resource is committed
	// or rolled back after it already reached a terminal state.
	ErrResourceClosed = errors.New("cfghist: persistence resource closed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("cfghist: invalid configuration")

	// ErrSnapshotNotFound is returned when no snapshot matches a name or prefix.
	ErrSnapshotNotFound = errors.New("cfghist: snapshot not found")
)

// PersistError describes the step of a persist operation that failed.
// It matches both ErrPersistence and the underlying cause with errors.Is.
type PersistError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("cfghist: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// IllegalStatef builds an error wrapping ErrIllegalState.
func IllegalStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}
