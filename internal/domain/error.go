package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrDuplicate          = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrVerificationFailed = errors.New("signature verification failed")
	ErrReplayedDelivery   = errors.New("notification delivery already processed")
	ErrGatewayRejected    = errors.New("gateway rejected the request")

	// Storage-layer errors surfaced through repositories
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")

	// ErrLockHeld means another process holds the distributed lock.
	ErrLockHeld = errors.New("lock is held by another process")
)
