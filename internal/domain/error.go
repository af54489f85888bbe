package domain

import "errors"

var (
	// Client-visible taxonomy
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrAccessDenied        = errors.New("access denied")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrInternal            = errors.New("internal error")

	// Storage
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Lifecycle
	ErrStaleInvoice    = errors.New("invoice was modified concurrently")
	ErrInvoiceNotDraft = errors.New("invoice is not a draft")
	ErrNoSettleAddress = errors.New("merchant has not configured payout address")
)
