package service

import (
	"errors"
	"fmt"

	"media-tracker/internal/repository"
)

var (
	// ErrNotFound means the resource does not exist or is not visible to the caller.
	ErrNotFound = repository.ErrNotFound
	// ErrConflict means the request clashes with existing state.
	ErrConflict = repository.ErrConflict
	// ErrValidation means the request itself is invalid.
	ErrValidation = errors.New("validation failed")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
