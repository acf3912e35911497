package homework

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or belongs to another owner.
	ErrNotFound = errors.New("homework not found")
	// ErrPersistence wraps background failures writing the durable copy.
	ErrPersistence = errors.New("homework persistence failed")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid homework request")
)
