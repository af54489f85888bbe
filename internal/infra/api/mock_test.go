//go:build !integration

package api

import (
	"context"
	"time"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/usecase"
)

type mockCheckout struct {
	StartFunc func(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error)
	PayFunc   func(ctx context.Context, id string, req usecase.PayRequest) (*usecase.CheckoutResult, error)
}

func (m *mockCheckout) Start(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	return m.StartFunc(ctx, req)
}

func (m *mockCheckout) Pay(ctx context.Context, id string, req usecase.PayRequest) (*usecase.CheckoutResult, error) {
	return m.PayFunc(ctx, id, req)
}

type mockReconcile struct {
	ReconcileFunc        func(ctx context.Context, id string) (*usecase.ReconcileResult, error)
	SetRefundAddressFunc func(ctx context.Context, id, addr string) error
}

func (m *mockReconcile) Reconcile(ctx context.Context, id string) (*usecase.ReconcileResult, error) {
	return m.ReconcileFunc(ctx, id)
}

func (m *mockReconcile) SetRefundAddress(ctx context.Context, id, addr string) error {
	return m.SetRefundAddressFunc(ctx, id, addr)
}

type mockRenewals struct {
	SweepRenewalsFunc func(ctx context.Context, now time.Time) (*usecase.RenewalReport, error)
}

func (m *mockRenewals) SweepRenewals(ctx context.Context, now time.Time) (*usecase.RenewalReport, error) {
	return m.SweepRenewalsFunc(ctx, now)
}

type mockSweeps struct {
	SweepPendingFunc func(ctx context.Context, limit int) (*usecase.SweepReport, error)
}

func (m *mockSweeps) SweepPending(ctx context.Context, limit int) (*usecase.SweepReport, error) {
	return m.SweepPendingFunc(ctx, limit)
}

type mockMerchants struct {
	RecentInvoicesFunc func(ctx context.Context, merchantID string) ([]*model.InvoiceSummary, error)
	StatsFunc          func(ctx context.Context, merchantID string) (*model.DashboardStats, error)
}

func (m *mockMerchants) RecentInvoices(ctx context.Context, merchantID string) ([]*model.InvoiceSummary, error) {
	return m.RecentInvoicesFunc(ctx, merchantID)
}

func (m *mockMerchants) Stats(ctx context.Context, merchantID string) (*model.DashboardStats, error) {
	return m.StatsFunc(ctx, merchantID)
}

type mockCatalog struct {
	PlanBySlugFunc      func(ctx context.Context, slug string) (*model.Plan, *model.MerchantSettings, error)
	SupportedAssetsFunc func(ctx context.Context) ([]adapter.AssetDescriptor, error)
}

func (m *mockCatalog) PlanBySlug(ctx context.Context, slug string) (*model.Plan, *model.MerchantSettings, error) {
	return m.PlanBySlugFunc(ctx, slug)
}

func (m *mockCatalog) SupportedAssets(ctx context.Context) ([]adapter.AssetDescriptor, error) {
	return m.SupportedAssetsFunc(ctx)
}
