package usecase

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"swapscribe/internal/domain/ports/repository"
)

const (
	DefaultSweepLimit       = 50
	DefaultSweepConcurrency = 4
)

// SweepReport summarises one batch reconciliation.
type SweepReport struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}

type SweepUseCase interface {
	SweepPending(ctx context.Context, limit int) (*SweepReport, error)
}

var _ SweepUseCase = (*sweepUC)(nil)

type sweepUC struct {
	invoices    repository.InvoiceRepository
	reconciler  ReconcileUseCase
	concurrency int
	log         *zerolog.Logger
}

func NewSweepUseCase(invoices repository.InvoiceRepository, reconciler ReconcileUseCase, concurrency int, logger *zerolog.Logger) *sweepUC {
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	l := logger.With().Str("component", "SweepUC").Logger()
	return &sweepUC{invoices: invoices, reconciler: reconciler, concurrency: concurrency, log: &l}
}

// SweepPending reconciles open invoices independently; one failure never stops the batch.
func (u *sweepUC) SweepPending(ctx context.Context, limit int) (*SweepReport, error) {
	if limit <= 0 {
		limit = DefaultSweepLimit
	}
	open, err := u.invoices.ListPolling(ctx, repository.NoTX, limit)
	if err != nil {
		return nil, err
	}

	var updated atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, inv := range open {
		id, before := inv.ID, inv.Status
		g.Go(func() error {
			res, err := u.reconciler.Reconcile(gctx, id)
			if err != nil {
				u.log.Error().Err(err).Str("invoice_id", id).Msg("reconcile failed")
				return nil
			}
			if res.Invoice != nil && res.Invoice.Status != before {
				updated.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &SweepReport{Checked: len(open), Updated: int(updated.Load())}
	u.log.Info().Int("checked", report.Checked).Int("updated", report.Updated).Msg("sweep finished")
	return report, nil
}
