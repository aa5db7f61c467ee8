package storage

import "errors"

// Errors returned by the lifecycle operations. Callers match them with
// errors.Is; the wrapped message is safe to show to the end user.
var (
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
)

// ErrUnauthorized is returned by Authenticate for any credential mismatch.
var ErrUnauthorized = errors.New("invalid username or password")
