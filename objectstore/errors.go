package objectstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no object matches a reference.
	ErrNotFound = errors.New("geoobject: object not found")

	// ErrAlreadyExists is returned when creating an object at a path that is
	// already taken.
	ErrAlreadyExists = errors.New("geoobject: object already exists")

	// ErrConcurrentModification is returned when an object was modified
	// between being read and being written.
	ErrConcurrentModification = errors.New("geoobject: object was modified concurrently")

	// ErrInvalidPath is returned when an object path cannot be resolved.
	ErrInvalidPath = errors.New("geoobject: invalid object path")
)

// AlreadyExistsError reports the object occupying a path.
type AlreadyExistsError struct {
	Path       string
	ExistingID string
}

func (e *AlreadyExistsError) Error() string {
	if e.ExistingID == "" {
		return fmt.Sprintf("%s: %s", ErrAlreadyExists, e.Path)
	}
	return fmt.Sprintf("%s: %s (id %s)", ErrAlreadyExists, e.Path, e.ExistingID)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }
