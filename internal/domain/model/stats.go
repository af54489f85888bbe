package model

import "github.com/shopspring/decimal"

// InvoiceSummary is an invoice row joined with the names a merchant dashboard shows.
type InvoiceSummary struct {
	Invoice         *Invoice
	SubscriberEmail string
	PlanName        string
	PlanSlug        string
}

// PlanRevenueLine is the number of active subscriptions on one plan.
type PlanRevenueLine struct {
	PlanID          string
	PriceUSD        decimal.Decimal
	BillingInterval BillingInterval
	ActiveCount     int
}

// MerchantCounters are the raw aggregates backing the dashboard.
type MerchantCounters struct {
	ActiveSubscriptions int
	PaidInvoices        int
	PendingInvoices     int
	TotalRevenue        decimal.Decimal
	Lines               []PlanRevenueLine
}

type DashboardStats struct {
	ActiveSubscriptions int             `json:"activeSubscriptions"`
	PaidInvoices        int             `json:"paidInvoices"`
	PendingInvoices     int             `json:"pendingInvoices"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	MRR                 decimal.Decimal `json:"mrr"`
}

// BuildDashboardStats normalises yearly plans to a monthly share and rounds money to cents.
func BuildDashboardStats(c MerchantCounters) DashboardStats {
	mrr := decimal.Zero
	for _, l := range c.Lines {
		mrr = mrr.Add(l.BillingInterval.MonthlyShare(l.PriceUSD).Mul(decimal.NewFromInt(int64(l.ActiveCount))))
	}
	return DashboardStats{
		ActiveSubscriptions: c.ActiveSubscriptions,
		PaidInvoices:        c.PaidInvoices,
		PendingInvoices:     c.PendingInvoices,
		TotalRevenue:        c.TotalRevenue.Round(2),
		MRR:                 mrr.Round(2),
	}
}
