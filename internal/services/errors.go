package services

import "errors"

// Common service errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrValidationFailed  = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized access")
	ErrForbidden         = errors.New("forbidden operation")
	ErrDuplicateStudent  = errors.New("student already registered")
	ErrAlreadyRegistered = errors.New("already registered for event")
	ErrEventFull         = errors.New("event is fully booked")
	ErrChainUnavailable  = errors.New("blockchain provider unavailable")
	ErrPinningFailed     = errors.New("document pinning failed")
)
