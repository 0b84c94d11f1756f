package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("already exists")
	// ErrValidation indicates a request failed domain validation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidStatus indicates a forbidden document status transition.
	ErrInvalidStatus = errors.New("invalid status transition")
)
