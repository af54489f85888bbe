package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"swapscribe/internal/domain"
)

type BillingInterval string

const (
	BillingMonthly BillingInterval = "monthly"
	BillingYearly  BillingInterval = "yearly"
)

func (b BillingInterval) Valid() bool {
	return b == BillingMonthly || b == BillingYearly
}

// Next returns the end of one billing period starting at from.
func (b BillingInterval) Next(from time.Time) time.Time {
	if b == BillingYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

// MonthlyShare is the per-month value of price billed at this interval.
func (b BillingInterval) MonthlyShare(price decimal.Decimal) decimal.Decimal {
	if b == BillingYearly {
		return price.Div(decimal.NewFromInt(12))
	}
	return price
}

// Plan is a merchant's recurring offer. PriceUSD is the USD-equivalent face value
// the settlement asset is expected to track.
type Plan struct {
	ID              string
	MerchantID      string
	Name            string
	Description     string
	PriceUSD        decimal.Decimal
	BillingInterval BillingInterval
	SettleCoin      string
	SettleNetwork   string
	PublicSlug      string
	IsActive        bool
	CreatedAt       time.Time
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// NewPlan validates and constructs an active plan.
func NewPlan(id, merchantID, name, slug string, price decimal.Decimal, interval BillingInterval, settleCoin, settleNetwork string) (*Plan, error) {
	if id == "" {
		id = uuid.NewString()
	}
	slug = strings.TrimSpace(slug)
	if merchantID == "" || name == "" || slug == "" || !price.IsPositive() || !interval.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if settleCoin == "" || settleNetwork == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:              id,
		MerchantID:      merchantID,
		Name:            name,
		PriceUSD:        price,
		BillingInterval: interval,
		SettleCoin:      strings.ToLower(settleCoin),
		SettleNetwork:   strings.ToLower(settleNetwork),
		PublicSlug:      slug,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}, nil
}
