package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when a username is already taken (case-insensitively).
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrNotAuthenticated indicates that no authenticated user is present.
	ErrNotAuthenticated = errors.New("login required")
	// ErrNotFound indicates that the referenced record does not exist for the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFormat indicates an upload with a disallowed file extension.
	ErrInvalidFormat = errors.New("unsupported image format")
	// ErrValidation wraps form-input validation failures.
	ErrValidation = errors.New("validation error")
)
