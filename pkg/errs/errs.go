// Package errs defines the sentinel errors shared across repositories and
// handlers. Callers classify with errors.Is; anything unclassified is an
// internal failure.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the referenced row or document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: the caller is authenticated but does not own the resource.
	// Always distinct from ErrNotFound; existence is checked first.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict: a uniqueness constraint was violated.
	ErrConflict = errors.New("already exists")
	// ErrInvalidInput: the input failed domain validation.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFound wraps ErrNotFound naming the missing entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// Forbidden wraps ErrForbidden for the given entity.
func Forbidden(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrForbidden)
}

// Conflict wraps ErrConflict naming the conflicting entity.
func Conflict(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrConflict)
}
