package repository

import (
	"context"
	"time"

	"swapscribe/internal/domain/model"
)

// RateLimitRepository stores admitted attempts.
type RateLimitRepository interface {
	// LockKey serialises callers on key for the rest of tx. It requires a real transaction.
	LockKey(ctx context.Context, tx Tx, key string) error
	CountSince(ctx context.Context, tx Tx, origin, action string, since time.Time) (int, error)
	Insert(ctx context.Context, tx Tx, rec *model.RateLimitRecord) error
	// DeleteBefore prunes records that can no longer fall inside any window.
	DeleteBefore(ctx context.Context, tx Tx, before time.Time) (int64, error)
}
