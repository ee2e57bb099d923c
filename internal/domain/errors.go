package domain

import "errors"

// Sentinel errors for the application. Handlers map these onto HTTP status
// codes; everything else is treated as an internal failure.
var (
	ErrInvalidParticipant = errors.New("invalid participant id")
	ErrEmptyText          = errors.New("message text is required")
	ErrSelfAction         = errors.New("action cannot target its own author")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrInternal           = errors.New("internal server error")
)
