package domain

import "errors"

// Error taxonomy shared by every layer. Callers classify with errors.Is and
// turn the class into a short operator-facing message at the bot boundary.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrTransport    = errors.New("transport failure")
	ErrPersistence  = errors.New("persistence failure")
)
