package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidTransition = errors.New("illegal payment state transition")
	ErrOperationFailed   = errors.New("storage operation failed")
	ErrDeliveryFailed    = errors.New("notification delivery failed")
	ErrRateLimited       = errors.New("too many requests")

	// Repository-internal errors
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
