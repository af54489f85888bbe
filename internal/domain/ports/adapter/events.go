package adapter

import (
	"context"

	"swapscribe/internal/domain/model"
)

// EventPublisher announces persisted invoice lifecycle changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.InvoiceEvent) error
	Close() error
}
