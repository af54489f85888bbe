package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	red "swapscribe/internal/infra/redis"
	"swapscribe/internal/usecase"
)

// InvoiceReconciler periodically polls the provider for open invoices. It covers
// payers who closed the checkout page before their shift settled.
type InvoiceReconciler struct {
	p periodic
}

func NewInvoiceReconciler(interval time.Duration, uc usecase.SweepUseCase, limit int, locker red.Locker, lockTTL time.Duration, logger *zerolog.Logger) *InvoiceReconciler {
	l := logger.With().Str("component", "InvoiceReconciler").Logger()
	return &InvoiceReconciler{p: periodic{
		name:     "reconcile",
		interval: interval,
		locker:   locker,
		lockTTL:  lockTTL,
		log:      &l,
		task: func(ctx context.Context) error {
			rep, err := uc.SweepPending(ctx, limit)
			if err != nil {
				return err
			}
			if rep.Updated > 0 {
				l.Info().Int("checked", rep.Checked).Int("updated", rep.Updated).Msg("invoices reconciled")
			}
			return nil
		},
	}}
}

func (w *InvoiceReconciler) Run(ctx context.Context) error { return w.p.run(ctx) }
