package repository

import (
	"context"

	"swapscribe/internal/domain/model"
)

// MerchantRepository reads merchants and their payout settings. Save exists for seeding.
type MerchantRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Merchant) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Merchant, error)
	SaveSettings(ctx context.Context, tx Tx, s *model.MerchantSettings) error
	FindSettings(ctx context.Context, tx Tx, merchantID string) (*model.MerchantSettings, error)
}

// SubscriberRepository stores payers, unique by (merchant, email).
type SubscriberRepository interface {
	// Upsert returns the stored subscriber; an existing row keeps its id.
	Upsert(ctx context.Context, tx Tx, s *model.Subscriber) (*model.Subscriber, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscriber, error)
}
