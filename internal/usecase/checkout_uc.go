package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/domain/ports/repository"
	"swapscribe/internal/infra/logging"
)

// CheckoutRequest starts a subscription. PlanRef is a plan id or public slug.
type CheckoutRequest struct {
	Email          string
	PlanRef        string
	DepositCoin    string
	DepositNetwork string
	RefundAddress  string
	Origin         string
}

// PayRequest starts payment on an existing draft invoice.
type PayRequest struct {
	DepositCoin    string
	DepositNetwork string
	RefundAddress  string
	Origin         string
}

type CheckoutResult struct {
	Invoice *model.Invoice
	Shift   model.ShiftDescriptor
}

type CheckoutUseCase interface {
	Start(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	Pay(ctx context.Context, invoiceID string, req PayRequest) (*CheckoutResult, error)
}

var _ CheckoutUseCase = (*checkoutUC)(nil)

type checkoutUC struct {
	plans       repository.PlanRepository
	merchants   repository.MerchantRepository
	subscribers repository.SubscriberRepository
	subs        repository.SubscriptionRepository
	invoices    repository.InvoiceRepository
	tm          repository.TransactionManager
	gateway     adapter.SettlementGateway
	limiter     RateLimiter
	publisher   adapter.EventPublisher
	dev         bool
	payLocks    keyedMutex
	log         *zerolog.Logger
}

type CheckoutDeps struct {
	Plans       repository.PlanRepository
	Merchants   repository.MerchantRepository
	Subscribers repository.SubscriberRepository
	Subs        repository.SubscriptionRepository
	Invoices    repository.InvoiceRepository
	Tx          repository.TransactionManager
	Gateway     adapter.SettlementGateway
	Limiter     RateLimiter
	Publisher   adapter.EventPublisher
}

func NewCheckoutUseCase(d CheckoutDeps, dev bool, logger *zerolog.Logger) *checkoutUC {
	l := logger.With().Str("component", "CheckoutUC").Logger()
	return &checkoutUC{
		plans:       d.Plans,
		merchants:   d.Merchants,
		subscribers: d.Subscribers,
		subs:        d.Subs,
		invoices:    d.Invoices,
		tm:          d.Tx,
		gateway:     d.Gateway,
		limiter:     d.Limiter,
		publisher:   d.Publisher,
		dev:         dev,
		log:         &l,
	}
}

func (u *checkoutUC) Start(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	log := logging.With(ctx, u.log)
	if err := u.admit(ctx, req.Origin); err != nil {
		return nil, err
	}

	email, err := normaliseEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PlanRef) == "" {
		return nil, fmt.Errorf("%w: planId is required", domain.ErrInvalidInput)
	}
	if err := requireDepositAsset(req.DepositCoin, req.DepositNetwork); err != nil {
		return nil, err
	}

	plan, err := u.activePlan(ctx, req.PlanRef)
	if err != nil {
		return nil, err
	}
	settings, err := u.payoutSettings(ctx, plan.MerchantID)
	if err != nil {
		return nil, err
	}
	if err := u.checkPermission(ctx, req.Origin); err != nil {
		return nil, err
	}

	var inv *model.Invoice
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		candidate, err := model.NewSubscriber("", plan.MerchantID, email)
		if err != nil {
			return err
		}
		subscriber, err := u.subscribers.Upsert(ctx, tx, candidate)
		if err != nil {
			return err
		}
		newSub, err := model.NewSubscription("", subscriber.ID, plan.ID)
		if err != nil {
			return err
		}
		sub, err := u.subs.Upsert(ctx, tx, newSub)
		if err != nil {
			return err
		}
		inv, err = model.NewDraftInvoice(sub, plan, req.DepositCoin, req.DepositNetwork, time.Now())
		if err != nil {
			return err
		}
		return u.invoices.Save(ctx, tx, inv)
	})
	if err != nil {
		return nil, fmt.Errorf("create draft invoice: %w", err)
	}
	log.Info().
		Str("invoice_id", inv.ID).
		Str("plan_id", plan.ID).
		Str("email", logging.Redact(email, u.dev)).
		Msg("draft invoice created")

	return u.openShift(ctx, inv, settings, req.RefundAddress, req.Origin)
}

func (u *checkoutUC) Pay(ctx context.Context, invoiceID string, req PayRequest) (*CheckoutResult, error) {
	if err := u.admit(ctx, req.Origin); err != nil {
		return nil, err
	}
	if err := requireDepositAsset(req.DepositCoin, req.DepositNetwork); err != nil {
		return nil, err
	}

	// One shift per draft: concurrent pays on the same invoice queue up here and
	// the later ones see the attached shift.
	unlock := u.payLocks.lock(invoiceID)
	defer unlock()

	agg, err := u.invoices.FindAggregate(ctx, repository.NoTX, invoiceID)
	if err != nil {
		return nil, err
	}
	inv := agg.Invoice
	if inv.Status != model.InvoiceStatusDraft || inv.HasShift() {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrInvoiceNotDraft)
	}
	settings, err := u.payoutSettings(ctx, agg.Plan.MerchantID)
	if err != nil {
		return nil, err
	}
	if err := u.checkPermission(ctx, req.Origin); err != nil {
		return nil, err
	}

	inv.DepositCoin = strings.ToLower(strings.TrimSpace(req.DepositCoin))
	inv.DepositNetwork = strings.ToLower(strings.TrimSpace(req.DepositNetwork))
	return u.openShift(ctx, inv, settings, req.RefundAddress, req.Origin)
}

// openShift asks the provider for deposit instructions. A failed request is fatal
// for the draft: it is marked failed and the classified error is returned.
func (u *checkoutUC) openShift(ctx context.Context, inv *model.Invoice, settings *model.MerchantSettings, refundAddress, origin string) (*CheckoutResult, error) {
	log := logging.With(ctx, u.log)

	shift, err := u.gateway.CreateShift(ctx, adapter.ShiftRequest{
		DepositAsset:   inv.DepositCoin,
		DepositNetwork: inv.DepositNetwork,
		SettleAsset:    inv.SettleCoin,
		SettleNetwork:  inv.SettleNetwork,
		SettleAddress:  settings.SettleAddress,
		RefundAddress:  strings.TrimSpace(refundAddress),
		Origin:         origin,
	})
	if err != nil {
		log.Error().Err(err).Str("invoice_id", inv.ID).Msg("create shift failed")
		// The invoice outcome must be recorded even if the caller has gone away.
		bg := context.WithoutCancel(ctx)
		if ok, mErr := u.invoices.MarkFailed(bg, repository.NoTX, inv.ID); mErr != nil {
			log.Error().Err(mErr).Str("invoice_id", inv.ID).Msg("mark invoice failed")
		} else if ok {
			inv.Status = model.InvoiceStatusFailed
			u.publish(bg, model.NewInvoiceEvent(model.EventInvoiceFailed, inv, time.Now()))
		}
		return nil, err
	}

	if err := inv.AttachShift(shift); err != nil {
		return nil, err
	}
	ok, err := u.invoices.AttachShift(context.WithoutCancel(ctx), repository.NoTX, inv)
	if err != nil {
		return nil, fmt.Errorf("attach shift: %w", err)
	}
	if !ok {
		log.Error().Str("invoice_id", inv.ID).Str("shift_id", shift.ID).Msg("shift orphaned: invoice changed while it was being opened")
		return nil, domain.ErrStaleInvoice
	}
	log.Info().Str("invoice_id", inv.ID).Str("shift_id", shift.ID).Msg("shift opened")
	return &CheckoutResult{Invoice: inv, Shift: shift}, nil
}

func (u *checkoutUC) admit(ctx context.Context, origin string) error {
	ok, err := u.limiter.Admit(ctx, origin, model.ActionCreateInvoice)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

// activePlan reads the plan inside a read-only tx, so price and active flag are
// never served from the catalog cache.
func (u *checkoutUC) activePlan(ctx context.Context, ref string) (*model.Plan, error) {
	ref = strings.TrimSpace(ref)
	var plan *model.Plan
	err := u.tm.WithTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		plan, err = u.plans.FindByID(ctx, tx, ref)
		if errors.Is(err, domain.ErrNotFound) {
			plan, err = u.plans.FindBySlug(ctx, tx, ref)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: plan is not active", domain.ErrNotFound)
	}
	return plan, nil
}

func (u *checkoutUC) payoutSettings(ctx context.Context, merchantID string) (*model.MerchantSettings, error) {
	s, err := u.merchants.FindSettings(ctx, repository.NoTX, merchantID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if !s.HasPayoutAddress() {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrNoSettleAddress)
	}
	return s, nil
}

// checkPermission is advisory: only an explicit denial blocks checkout.
func (u *checkoutUC) checkPermission(ctx context.Context, origin string) error {
	perm, err := u.gateway.CheckPermission(ctx, origin)
	if err != nil {
		logging.With(ctx, u.log).Warn().Err(err).Msg("permission check failed, continuing")
		return nil
	}
	if !perm.Allowed {
		return domain.ErrAccessDenied
	}
	return nil
}

func (u *checkoutUC) publish(ctx context.Context, ev model.InvoiceEvent) {
	if u.publisher == nil {
		return
	}
	if err := u.publisher.Publish(ctx, ev); err != nil {
		u.log.Error().Err(err).Str("invoice_id", ev.InvoiceID).Msg("publish failed")
	}
}

func normaliseEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}

func requireDepositAsset(coin, network string) error {
	if strings.TrimSpace(coin) == "" || strings.TrimSpace(network) == "" {
		return fmt.Errorf("%w: depositCoin and depositNetwork are required", domain.ErrInvalidInput)
	}
	return nil
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
