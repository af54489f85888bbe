package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/domain/ports/repository"
)

const (
	RenewalStatusDraft      = "renewed_draft"
	DefaultRenewalBatchSize = 500
)

type RenewalDetail struct {
	SubscriptionID string `json:"subscriptionId"`
	InvoiceID      string `json:"invoiceId"`
	Status         string `json:"status"`
}

type RenewalReport struct {
	Processed int             `json:"processed"`
	Details   []RenewalDetail `json:"details"`
}

type RenewalUseCase interface {
	SweepRenewals(ctx context.Context, now time.Time) (*RenewalReport, error)
}

var _ RenewalUseCase = (*renewalUC)(nil)

type renewalUC struct {
	subs      repository.SubscriptionRepository
	plans     repository.PlanRepository
	invoices  repository.InvoiceRepository
	tm        repository.TransactionManager
	publisher adapter.EventPublisher
	batch     int
	log       *zerolog.Logger
}

// NewRenewalUseCase builds the renewal sweep. batch caps subscriptions per sweep; <= 0 uses the default.
func NewRenewalUseCase(
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	invoices repository.InvoiceRepository,
	tm repository.TransactionManager,
	publisher adapter.EventPublisher,
	batch int,
	logger *zerolog.Logger,
) *renewalUC {
	l := logger.With().Str("component", "RenewalUC").Logger()
	if batch <= 0 {
		batch = DefaultRenewalBatchSize
	}
	return &renewalUC{subs: subs, plans: plans, invoices: invoices, tm: tm, publisher: publisher, batch: batch, log: &l}
}

// SweepRenewals demotes every elapsed active subscription to past_due and opens a
// draft invoice for its next period. The demotion is conditional, so a subscription
// renewed by a concurrent sweep is skipped and never gets a second draft.
func (u *renewalUC) SweepRenewals(ctx context.Context, now time.Time) (*RenewalReport, error) {
	due, err := u.subs.ListDueForRenewal(ctx, repository.NoTX, now, u.batch)
	if err != nil {
		return nil, err
	}

	report := &RenewalReport{Details: []RenewalDetail{}}
	for _, sub := range due {
		var draft *model.Invoice
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			ok, err := u.subs.DemoteIfDue(ctx, tx, sub.ID, now)
			if err != nil || !ok {
				return err
			}
			// Read through the tx so the draft carries the price as of this cycle.
			plan, err := u.plans.FindByID(ctx, tx, sub.PlanID)
			if err != nil {
				return fmt.Errorf("load plan: %w", err)
			}
			inv, err := model.NewDraftInvoice(sub, plan, "", "", now)
			if err != nil {
				return err
			}
			if err := u.invoices.Save(ctx, tx, inv); err != nil {
				return err
			}
			draft = inv
			return nil
		})
		if err != nil {
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("renewal failed")
			continue
		}
		if draft == nil {
			continue
		}

		report.Details = append(report.Details, RenewalDetail{
			SubscriptionID: sub.ID,
			InvoiceID:      draft.ID,
			Status:         RenewalStatusDraft,
		})
		if u.publisher != nil {
			if err := u.publisher.Publish(ctx, model.NewInvoiceEvent(model.EventInvoiceRenewalDue, draft, now)); err != nil {
				u.log.Error().Err(err).Str("invoice_id", draft.ID).Msg("publish renewal event failed")
			}
		}
	}
	report.Processed = len(report.Details)
	if report.Processed > 0 {
		u.log.Info().Int("processed", report.Processed).Msg("subscriptions renewed")
	}
	return report, nil
}
