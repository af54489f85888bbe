package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"swapscribe/internal/infra/metrics"
	red "swapscribe/internal/infra/redis"
	"swapscribe/internal/usecase"
)

// RenewalWorker periodically demotes lapsed subscriptions and drafts their renewal invoices.
type RenewalWorker struct {
	p periodic
}

func NewRenewalWorker(interval time.Duration, uc usecase.RenewalUseCase, locker red.Locker, lockTTL time.Duration, logger *zerolog.Logger) *RenewalWorker {
	l := logger.With().Str("component", "RenewalWorker").Logger()
	w := &RenewalWorker{}
	w.p = periodic{
		name:     "renew",
		interval: interval,
		locker:   locker,
		lockTTL:  lockTTL,
		log:      &l,
		task: func(ctx context.Context) error {
			rep, err := uc.SweepRenewals(ctx, time.Now())
			if err != nil {
				return err
			}
			if rep.Processed > 0 {
				metrics.AddRenewals(rep.Processed)
				l.Info().Int("count", rep.Processed).Msg("subscriptions renewed")
			}
			return nil
		},
	}
	return w
}

func (w *RenewalWorker) Run(ctx context.Context) error { return w.p.run(ctx) }
