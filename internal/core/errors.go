package core

import (
	"errors"
	"fmt"
)

// fatalError marks a failure that must abort the current unit of work and, at
// the top level, drive a non-zero exit. Errors without the marker are treated
// as recoverable: logged, counted and skipped by the enclosing loop.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }

func (e *fatalError) Unwrap() error { return e.err }

// Fatalf wraps a formatted error with the fatal marker.
func Fatalf(format string, args ...any) error {
	return &fatalError{err: fmt.Errorf(format, args...)}
}

// Fatal wraps err with the fatal marker. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether any error in the chain carries the fatal marker.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
