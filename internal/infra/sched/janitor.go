package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"swapscribe/internal/infra/metrics"
)

// Pruner deletes rate limit records that fell out of every window.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// RateLimitJanitor keeps the rate_limits table bounded. It needs no lock: deletes are idempotent.
type RateLimitJanitor struct {
	p periodic
}

func NewRateLimitJanitor(interval time.Duration, pruner Pruner, logger *zerolog.Logger) *RateLimitJanitor {
	l := logger.With().Str("component", "RateLimitJanitor").Logger()
	return &RateLimitJanitor{p: periodic{
		name:     "janitor",
		interval: interval,
		log:      &l,
		task: func(ctx context.Context) error {
			n, err := pruner.Prune(ctx)
			if err != nil {
				return err
			}
			metrics.AddRateLimitPruned(n)
			l.Debug().Int64("deleted", n).Msg("rate limit records pruned")
			return nil
		},
	}}
}

func (w *RateLimitJanitor) Run(ctx context.Context) error { return w.p.run(ctx) }
