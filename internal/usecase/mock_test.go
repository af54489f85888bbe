//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/domain/ports/repository"
)

// -----------------------------
// Plans / merchants / subscribers
// -----------------------------

type MockPlanRepo struct {
	mu    sync.RWMutex
	plans map[string]*model.Plan
}

func NewMockPlanRepo(plans ...*model.Plan) *MockPlanRepo {
	r := &MockPlanRepo{plans: map[string]*model.Plan{}}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPlanRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plans {
		if p.PublicSlug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPlanRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string) ([]*model.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Plan
	for _, p := range r.plans {
		if p.MerchantID == merchantID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CachingPlanRepo keeps the first plan it reads outside a tx and serves that
// copy afterwards, the way the redis decorator does. Reads inside a tx go
// straight to the wrapped repo.
type CachingPlanRepo struct {
	*MockPlanRepo
	mu     sync.Mutex
	cached map[string]*model.Plan
}

func NewCachingPlanRepo(inner *MockPlanRepo) *CachingPlanRepo {
	return &CachingPlanRepo{MockPlanRepo: inner, cached: map[string]*model.Plan{}}
}

func (r *CachingPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if tx != nil {
		return r.MockPlanRepo.FindByID(ctx, tx, id)
	}
	return r.load("id:"+id, func() (*model.Plan, error) { return r.MockPlanRepo.FindByID(ctx, tx, id) })
}

func (r *CachingPlanRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Plan, error) {
	if tx != nil {
		return r.MockPlanRepo.FindBySlug(ctx, tx, slug)
	}
	return r.load("slug:"+slug, func() (*model.Plan, error) { return r.MockPlanRepo.FindBySlug(ctx, tx, slug) })
}

func (r *CachingPlanRepo) load(key string, fn func() (*model.Plan, error)) (*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cached[key]; ok {
		cp := *p
		return &cp, nil
	}
	p, err := fn()
	if err != nil {
		return nil, err
	}
	r.cached[key] = p
	cp := *p
	return &cp, nil
}

type MockMerchantRepo struct {
	mu        sync.RWMutex
	merchants map[string]*model.Merchant
	settings  map[string]*model.MerchantSettings
}

func NewMockMerchantRepo() *MockMerchantRepo {
	return &MockMerchantRepo{merchants: map[string]*model.Merchant{}, settings: map[string]*model.MerchantSettings{}}
}

func (r *MockMerchantRepo) Save(ctx context.Context, tx repository.Tx, m *model.Merchant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.merchants[m.ID] = &cp
	return nil
}

func (r *MockMerchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.merchants[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockMerchantRepo) SaveSettings(ctx context.Context, tx repository.Tx, s *model.MerchantSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.settings[s.MerchantID] = &cp
	return nil
}

func (r *MockMerchantRepo) FindSettings(ctx context.Context, tx repository.Tx, merchantID string) (*model.MerchantSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.settings[merchantID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

type MockSubscriberRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Subscriber
}

func NewMockSubscriberRepo() *MockSubscriberRepo {
	return &MockSubscriberRepo{byID: map[string]*model.Subscriber{}}
}

func (r *MockSubscriberRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscriber) (*model.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.MerchantID == s.MerchantID && existing.Email == s.Email {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *s
	r.byID[s.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MockSubscriberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// -----------------------------
// Subscriptions
// -----------------------------

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription
}

func NewMockSubscriptionRepo(subs ...*model.Subscription) *MockSubscriptionRepo {
	r := &MockSubscriptionRepo{subs: map[string]*model.Subscription{}}
	for _, s := range subs {
		r.subs[s.ID] = s
	}
	return r
}

func (r *MockSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.subs {
		if existing.SubscriberID == s.SubscriberID && existing.PlanID == s.PlanID {
			cp := *existing
			return &cp, nil
		}
	}
	cp := *s
	r.subs[s.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) ListDueForRenewal(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Subscription
	for _, s := range r.subs {
		if s.DueForRenewal(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockSubscriptionRepo) DemoteIfDue(ctx context.Context, tx repository.Tx, id string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok || !s.DueForRenewal(now) {
		return false, nil
	}
	s.Status = model.SubscriptionStatusPastDue
	s.UpdatedAt = now
	return true, nil
}

func (r *MockSubscriptionRepo) Activate(ctx context.Context, tx repository.Tx, id string, periodEnd time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Activate(periodEnd)
	return nil
}

func (r *MockSubscriptionRepo) get(id string) model.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.subs[id]
}

// -----------------------------
// Invoices
// -----------------------------

type MockInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[string]*model.Invoice
	subs     *MockSubscriptionRepo
	plans    *MockPlanRepo

	// BeforeUpdate runs inside UpdateStatusIf before the status check; tests use it
	// to simulate a concurrent writer.
	BeforeUpdate func(stored *model.Invoice)
	ListErr      error
	updates      int
}

func NewMockInvoiceRepo(subs *MockSubscriptionRepo, plans *MockPlanRepo) *MockInvoiceRepo {
	return &MockInvoiceRepo{invoices: map[string]*model.Invoice{}, subs: subs, plans: plans}
}

func (r *MockInvoiceRepo) Save(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[inv.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *MockInvoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.invoices[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockInvoiceRepo) FindAggregate(ctx context.Context, tx repository.Tx, id string) (*model.InvoiceAggregate, error) {
	inv, err := r.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	sub, err := r.subs.FindByID(ctx, tx, inv.SubscriptionID)
	if err != nil {
		return nil, err
	}
	plan, err := r.plans.FindByID(ctx, tx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	return &model.InvoiceAggregate{Invoice: inv, Subscription: sub, Plan: plan}, nil
}

func (r *MockInvoiceRepo) AttachShift(ctx context.Context, tx repository.Tx, inv *model.Invoice) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok || stored.Status != model.InvoiceStatusDraft || stored.HasShift() {
		return false, nil
	}
	cp := *inv
	r.invoices[inv.ID] = &cp
	return true, nil
}

func (r *MockInvoiceRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, inv *model.Invoice, expected model.InvoiceStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return false, nil
	}
	if r.BeforeUpdate != nil {
		r.BeforeUpdate(stored)
	}
	if stored.Status != expected {
		return false, nil
	}
	stored.Status = inv.Status
	stored.PaidAt = inv.PaidAt
	stored.SettleAmount = inv.SettleAmount
	stored.Warning = inv.Warning
	r.updates++
	return true, nil
}

func (r *MockInvoiceRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[id]
	if !ok || stored.Status != model.InvoiceStatusDraft {
		return false, nil
	}
	stored.Status = model.InvoiceStatusFailed
	return true, nil
}

func (r *MockInvoiceRepo) ListPolling(ctx context.Context, tx repository.Tx, limit int) ([]*model.Invoice, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Invoice
	for _, inv := range r.invoices {
		if inv.HasShift() && !inv.Status.IsTerminal() && inv.Status != model.InvoiceStatusDraft {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockInvoiceRepo) ListRecentByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.InvoiceSummary, error) {
	return nil, nil
}

func (r *MockInvoiceRepo) bySubscription(subID string) []*model.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Invoice
	for _, inv := range r.invoices {
		if inv.SubscriptionID == subID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out
}

func (r *MockInvoiceRepo) all() []*model.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Invoice
	for _, inv := range r.invoices {
		cp := *inv
		out = append(out, &cp)
	}
	return out
}

type MockStatsRepo struct {
	Counters *model.MerchantCounters
	Err      error
}

func (r *MockStatsRepo) MerchantCounters(ctx context.Context, tx repository.Tx, merchantID string) (*model.MerchantCounters, error) {
	return r.Counters, r.Err
}

// -----------------------------
// Rate limit records
// -----------------------------

type MockRateLimitRepo struct {
	mu      sync.Mutex
	records []model.RateLimitRecord
	locks   []string
}

func (r *MockRateLimitRepo) LockKey(ctx context.Context, tx repository.Tx, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, key)
	return nil
}

func (r *MockRateLimitRepo) CountSince(ctx context.Context, tx repository.Tx, origin, action string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Origin == origin && rec.Action == action && !rec.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MockRateLimitRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RateLimitRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = int64(len(r.records) + 1)
	r.records = append(r.records, *rec)
	return nil
}

func (r *MockRateLimitRepo) DeleteBefore(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var n int64
	for _, rec := range r.records {
		if rec.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return n, nil
}

// -----------------------------
// Adapters
// -----------------------------

type MockGateway struct {
	SupportedAssetsFunc  func(ctx context.Context) ([]adapter.AssetDescriptor, error)
	CheckPermissionFunc  func(ctx context.Context, origin string) (adapter.Permission, error)
	CreateShiftFunc      func(ctx context.Context, req adapter.ShiftRequest) (model.ShiftDescriptor, error)
	ShiftStatusFunc      func(ctx context.Context, shiftID string) (model.ShiftReport, error)
	SetRefundAddressFunc func(ctx context.Context, shiftID, address string) error

	mu          sync.Mutex
	statusCalls int
}

func (m *MockGateway) SupportedAssets(ctx context.Context) ([]adapter.AssetDescriptor, error) {
	if m.SupportedAssetsFunc != nil {
		return m.SupportedAssetsFunc(ctx)
	}
	return nil, nil
}

func (m *MockGateway) CheckPermission(ctx context.Context, origin string) (adapter.Permission, error) {
	if m.CheckPermissionFunc != nil {
		return m.CheckPermissionFunc(ctx, origin)
	}
	return adapter.Permission{Allowed: true}, nil
}

func (m *MockGateway) CreateShift(ctx context.Context, req adapter.ShiftRequest) (model.ShiftDescriptor, error) {
	if m.CreateShiftFunc != nil {
		return m.CreateShiftFunc(ctx, req)
	}
	return model.ShiftDescriptor{
		ID:             "shift-" + req.DepositAsset,
		DepositAddress: "addr-1",
		DepositMin:     "0.001",
		DepositMax:     "1",
		ExpiresAt:      time.Now().Add(time.Hour),
		Status:         model.ShiftWaiting,
	}, nil
}

func (m *MockGateway) ShiftStatus(ctx context.Context, shiftID string) (model.ShiftReport, error) {
	m.mu.Lock()
	m.statusCalls++
	m.mu.Unlock()
	if m.ShiftStatusFunc != nil {
		return m.ShiftStatusFunc(ctx, shiftID)
	}
	return model.ShiftReport{Status: model.ShiftWaiting}, nil
}

func (m *MockGateway) SetRefundAddress(ctx context.Context, shiftID, address string) error {
	if m.SetRefundAddressFunc != nil {
		return m.SetRefundAddressFunc(ctx, shiftID, address)
	}
	return nil
}

func (m *MockGateway) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

type MockPublisher struct {
	mu     sync.Mutex
	events []model.InvoiceEvent
	Err    error
}

func (p *MockPublisher) Publish(ctx context.Context, ev model.InvoiceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.Err
}

func (p *MockPublisher) Close() error { return nil }

func (p *MockPublisher) Events() []model.InvoiceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.InvoiceEvent(nil), p.events...)
}

// -----------------------------
// Transactions / logging
// -----------------------------

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

type mockTx struct{}

// NewRealTxManager hands fn a non-nil tx handle, as the postgres manager does.
func NewRealTxManager() *MockTxManager {
	return &MockTxManager{WithTxFunc: func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
		return fn(ctx, mockTx{})
	}}
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
