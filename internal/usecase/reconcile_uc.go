package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/domain/ports/repository"
	"swapscribe/internal/infra/logging"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileResult is the invoice after one provider poll.
type ReconcileResult struct {
	Invoice *model.Invoice
	// Previous is the status before this poll; equal to Invoice.Status when nothing moved.
	Previous model.InvoiceStatus
	Warning  string
	// ProviderStatus carries an action-required provider status (refund) back to the payer.
	ProviderStatus model.ShiftStatus
	// ProviderError is set when the poll itself failed; the invoice is returned unchanged.
	ProviderError error
}

func (r *ReconcileResult) Changed() bool { return r.Invoice != nil && r.Invoice.Status != r.Previous }

type ReconcileUseCase interface {
	Reconcile(ctx context.Context, invoiceID string) (*ReconcileResult, error)
	SetRefundAddress(ctx context.Context, invoiceID, address string) error
}

type reconcileUC struct {
	invoices  repository.InvoiceRepository
	subs      repository.SubscriptionRepository
	tm        repository.TransactionManager
	gateway   adapter.SettlementGateway
	publisher adapter.EventPublisher
	policy    model.Policy
	now       func() time.Time
	log       *zerolog.Logger
}

func NewReconcileUseCase(
	invoices repository.InvoiceRepository,
	subs repository.SubscriptionRepository,
	tm repository.TransactionManager,
	gateway adapter.SettlementGateway,
	publisher adapter.EventPublisher,
	policy model.Policy,
	logger *zerolog.Logger,
) *reconcileUC {
	l := logger.With().Str("component", "ReconcileUC").Logger()
	return &reconcileUC{
		invoices:  invoices,
		subs:      subs,
		tm:        tm,
		gateway:   gateway,
		publisher: publisher,
		policy:    policy,
		now:       time.Now,
		log:       &l,
	}
}

func (u *reconcileUC) Reconcile(ctx context.Context, invoiceID string) (*ReconcileResult, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "ReconcileUC.Reconcile")()

	agg, err := u.invoices.FindAggregate(ctx, repository.NoTX, invoiceID)
	if err != nil {
		return nil, err
	}
	inv := agg.Invoice
	res := &ReconcileResult{Invoice: inv, Previous: inv.Status}
	if inv.Status.IsTerminal() || !inv.HasShift() {
		return res, nil
	}

	report, err := u.gateway.ShiftStatus(ctx, *inv.ShiftID)
	if err != nil {
		log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("shift status poll failed")
		res.ProviderError = err
		return res, nil
	}

	out := model.Decide(inv, agg.Plan.BillingInterval, report, u.policy, u.now())
	res.Warning = out.Warning
	res.ProviderStatus = out.ActionRequired
	if !out.NeedsPersist() {
		return res, nil
	}

	next := *inv
	next.Apply(out)

	applied := false
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.invoices.UpdateStatusIf(ctx, tx, &next, out.From)
		if err != nil || !ok {
			return err
		}
		if out.ActivateSubscription {
			if err := u.subs.Activate(ctx, tx, agg.Subscription.ID, *out.PeriodEnd); err != nil {
				return err
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist invoice %s: %w", inv.ID, err)
	}

	if !applied {
		// Another poll moved the invoice first; report what is stored.
		stored, err := u.invoices.FindByID(ctx, repository.NoTX, inv.ID)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("invoice_id", inv.ID).Str("status", string(stored.Status)).Msg("concurrent update won")
		res.Invoice = stored
		return res, nil
	}

	res.Invoice = &next
	if out.StatusChanged() {
		log.Info().
			Str("invoice_id", inv.ID).
			Str("from", string(out.From)).
			Str("to", string(out.To)).
			Msg("invoice transitioned")
		if et, ok := model.EventFor(out.To); ok {
			u.publish(ctx, model.NewInvoiceEvent(et, &next, u.now()))
		}
	}
	if out.Warning != "" {
		log.Warn().Str("invoice_id", inv.ID).Str("settle_amount", out.SettleAmount.String()).Msg("underpayment detected")
	}
	return res, nil
}

func (u *reconcileUC) SetRefundAddress(ctx context.Context, invoiceID, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return fmt.Errorf("%w: refund address is required", domain.ErrInvalidInput)
	}
	inv, err := u.invoices.FindByID(ctx, repository.NoTX, invoiceID)
	if err != nil {
		return err
	}
	if !inv.HasShift() {
		return fmt.Errorf("%w: invoice has no shift", domain.ErrNotFound)
	}
	if err := u.gateway.SetRefundAddress(ctx, *inv.ShiftID, address); err != nil {
		return err
	}
	logging.With(ctx, u.log).Info().Str("invoice_id", inv.ID).Msg("refund address submitted")
	return nil
}

func (u *reconcileUC) publish(ctx context.Context, ev model.InvoiceEvent) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		u.log.Error().Err(err).Str("invoice_id", ev.InvoiceID).Str("event", string(ev.Type)).Msg("publish failed")
	}
}
