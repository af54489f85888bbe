package usecase

import (
	"context"
	"fmt"
	"strings"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/domain/ports/repository"
)

const recentInvoicesLimit = 50

// MerchantUseCase serves the merchant dashboard reads.
type MerchantUseCase interface {
	RecentInvoices(ctx context.Context, merchantID string) ([]*model.InvoiceSummary, error)
	Stats(ctx context.Context, merchantID string) (*model.DashboardStats, error)
}

// CatalogUseCase serves the public checkout page.
type CatalogUseCase interface {
	PlanBySlug(ctx context.Context, slug string) (*model.Plan, *model.MerchantSettings, error)
	SupportedAssets(ctx context.Context) ([]adapter.AssetDescriptor, error)
}

var (
	_ MerchantUseCase = (*merchantUC)(nil)
	_ CatalogUseCase  = (*catalogUC)(nil)
)

type merchantUC struct {
	invoices repository.InvoiceRepository
	stats    repository.StatsRepository
}

func NewMerchantUseCase(invoices repository.InvoiceRepository, stats repository.StatsRepository) *merchantUC {
	return &merchantUC{invoices: invoices, stats: stats}
}

func (u *merchantUC) RecentInvoices(ctx context.Context, merchantID string) ([]*model.InvoiceSummary, error) {
	if merchantID == "" {
		return nil, domain.ErrAccessDenied
	}
	return u.invoices.ListRecentByMerchant(ctx, repository.NoTX, merchantID, recentInvoicesLimit)
}

func (u *merchantUC) Stats(ctx context.Context, merchantID string) (*model.DashboardStats, error) {
	if merchantID == "" {
		return nil, domain.ErrAccessDenied
	}
	c, err := u.stats.MerchantCounters(ctx, repository.NoTX, merchantID)
	if err != nil {
		return nil, err
	}
	s := model.BuildDashboardStats(*c)
	return &s, nil
}

type catalogUC struct {
	plans     repository.PlanRepository
	merchants repository.MerchantRepository
	gateway   adapter.SettlementGateway
}

func NewCatalogUseCase(plans repository.PlanRepository, merchants repository.MerchantRepository, gateway adapter.SettlementGateway) *catalogUC {
	return &catalogUC{plans: plans, merchants: merchants, gateway: gateway}
}

// PlanBySlug returns an active plan and its merchant's public settings. Settings may be nil.
func (u *catalogUC) PlanBySlug(ctx context.Context, slug string) (*model.Plan, *model.MerchantSettings, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil, fmt.Errorf("%w: slug is required", domain.ErrInvalidInput)
	}
	plan, err := u.plans.FindBySlug(ctx, repository.NoTX, slug)
	if err != nil {
		return nil, nil, err
	}
	if !plan.IsActive {
		return nil, nil, domain.ErrNotFound
	}
	settings, err := u.merchants.FindSettings(ctx, repository.NoTX, plan.MerchantID)
	if err != nil {
		settings = nil
	}
	return plan, settings, nil
}

func (u *catalogUC) SupportedAssets(ctx context.Context) ([]adapter.AssetDescriptor, error) {
	return u.gateway.SupportedAssets(ctx)
}
