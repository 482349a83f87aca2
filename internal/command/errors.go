// Package command turns write requests into persisted state changes and the
// domain events that announce them.
package command

import (
	"errors"
	"fmt"

	"github.com/npezzotti/go-classroom/internal/database"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// IsDomainError reports whether err is one of the errors a retry cannot fix.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict)
}

// storeError translates a repository error about the entity what/id.
func storeError(action, what, id string, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%s %q: %w", what, id, ErrNotFound)
	}
	if errors.Is(err, database.ErrConflict) {
		return fmt.Errorf("%s %q: %w", what, id, ErrConflict)
	}
	return fmt.Errorf("%s %s %q: %w", action, what, id, err)
}

func forbidden(action string) error {
	return fmt.Errorf("%s: %w", action, ErrForbidden)
}
