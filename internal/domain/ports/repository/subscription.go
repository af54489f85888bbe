package repository

import (
	"context"
	"time"

	"swapscribe/internal/domain/model"
)

// SubscriptionRepository is the port for subscriptions.
type SubscriptionRepository interface {
	// Upsert inserts s or returns the existing subscription for (subscriber, plan) unchanged.
	Upsert(ctx context.Context, tx Tx, s *model.Subscription) (*model.Subscription, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)

	// ListDueForRenewal returns active subscriptions whose period ended before now.
	ListDueForRenewal(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Subscription, error)

	// DemoteIfDue moves an active, elapsed subscription to past_due. It reports false
	// when another writer already renewed or demoted it.
	DemoteIfDue(ctx context.Context, tx Tx, id string, now time.Time) (bool, error)

	Activate(ctx context.Context, tx Tx, id string, periodEnd time.Time) error
}
