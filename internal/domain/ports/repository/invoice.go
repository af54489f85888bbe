package repository

import (
	"context"

	"swapscribe/internal/domain/model"
)

// InvoiceRepository is the port for invoices. Every mutation is scoped to a single
// invoice and guarded by its expected current status.
type InvoiceRepository interface {
	Save(ctx context.Context, tx Tx, inv *model.Invoice) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Invoice, error)

	// FindAggregate loads the invoice with the subscription and plan that govern it.
	FindAggregate(ctx context.Context, tx Tx, id string) (*model.InvoiceAggregate, error)

	// AttachShift stores shift details and the chosen deposit asset on a draft without a shift.
	AttachShift(ctx context.Context, tx Tx, inv *model.Invoice) (bool, error)

	// UpdateStatusIf writes status, paid_at, settle amount and warning only when the
	// stored status still equals expected.
	UpdateStatusIf(ctx context.Context, tx Tx, inv *model.Invoice, expected model.InvoiceStatus) (bool, error)

	// MarkFailed fails a draft whose shift could not be created.
	MarkFailed(ctx context.Context, tx Tx, id string) (bool, error)

	// ListPolling returns up to limit non-terminal invoices that carry a shift id, oldest first.
	ListPolling(ctx context.Context, tx Tx, limit int) ([]*model.Invoice, error)

	ListRecentByMerchant(ctx context.Context, tx Tx, merchantID string, limit int) ([]*model.InvoiceSummary, error)
}

// StatsRepository serves read-only merchant aggregates.
type StatsRepository interface {
	MerchantCounters(ctx context.Context, tx Tx, merchantID string) (*model.MerchantCounters, error)
}
