package store

import "errors"

var (
	// ErrNotFound is returned when no item exists at the requested key.
	// Callers must treat it as expected under concurrent deletion.
	ErrNotFound = errors.New("store: item not found")

	// ErrAlreadyExists is returned when a conditional put collides with an
	// existing item.
	ErrAlreadyExists = errors.New("store: item already exists")
)
