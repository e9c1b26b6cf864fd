package interfaces

import "errors"

var (
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("duplicate document")
	// ErrConflict is returned when a conditional update matched no document.
	ErrConflict = errors.New("conditional update failed")
)
