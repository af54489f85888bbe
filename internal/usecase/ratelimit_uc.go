package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
)

// RateLimiter admits or denies one attempt of action from origin. An admitted
// attempt is recorded in the same step.
type RateLimiter interface {
	Admit(ctx context.Context, origin, action string) (bool, error)
}

// RateLimitPolicy bounds attempts per origin and action within a trailing window.
type RateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

func DefaultRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{Limit: 10, Window: time.Hour}
}

var _ RateLimiter = (*storeRateLimiter)(nil)

// storeRateLimiter counts records in the database. The advisory lock on
// origin|action makes count-then-insert atomic per key.
type storeRateLimiter struct {
	repo   repository.RateLimitRepository
	tm     repository.TransactionManager
	policy RateLimitPolicy
	now    func() time.Time
	log    *zerolog.Logger
}

func NewRateLimiter(repo repository.RateLimitRepository, tm repository.TransactionManager, policy RateLimitPolicy, logger *zerolog.Logger) *storeRateLimiter {
	if policy.Limit <= 0 {
		policy.Limit = DefaultRateLimitPolicy().Limit
	}
	if policy.Window <= 0 {
		policy.Window = DefaultRateLimitPolicy().Window
	}
	l := logger.With().Str("component", "RateLimiter").Logger()
	return &storeRateLimiter{repo: repo, tm: tm, policy: policy, now: time.Now, log: &l}
}

func (r *storeRateLimiter) Admit(ctx context.Context, origin, action string) (bool, error) {
	allowed := false
	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := r.repo.LockKey(ctx, tx, origin+"|"+action); err != nil {
			return err
		}
		now := r.now()
		n, err := r.repo.CountSince(ctx, tx, origin, action, now.Add(-r.policy.Window))
		if err != nil {
			return err
		}
		if n >= r.policy.Limit {
			return nil
		}
		allowed = true
		return r.repo.Insert(ctx, tx, &model.RateLimitRecord{Origin: origin, Action: action, CreatedAt: now})
	})
	if err != nil {
		return false, fmt.Errorf("rate limit admit: %w", err)
	}
	if !allowed {
		r.log.Debug().Str("origin", origin).Str("action", action).Msg("attempt denied")
	}
	return allowed, nil
}

// Prune deletes records older than the window. It is safe to run at any time.
func (r *storeRateLimiter) Prune(ctx context.Context) (int64, error) {
	return r.repo.DeleteBefore(ctx, repository.NoTX, r.now().Add(-r.policy.Window))
}
