package homework

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session closed")
	ErrAlreadySubmitted = errors.New("session already has a result")
	ErrNotSubmitted     = errors.New("session has no result yet")
)
