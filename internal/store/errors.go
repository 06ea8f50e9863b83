package store

import "errors"

var (
	// ErrNotFound signals that the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict signals a unique constraint violation.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidReference signals that a referenced row (e.g. a place type id)
	// does not exist.
	ErrInvalidReference = errors.New("referenced record does not exist")
)
