package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup or delete matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("already exists")
)
