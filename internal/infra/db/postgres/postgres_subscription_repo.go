package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, subscriber_id, plan_id, status, current_period_end, created_at, updated_at`

func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) (*model.Subscription, error) {
	const q = `
INSERT INTO subscriptions (id, subscriber_id, plan_id, status, current_period_end, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (subscriber_id, plan_id) DO UPDATE SET updated_at = subscriptions.updated_at
RETURNING ` + subscriptionColumns + `;`
	row, err := pickRow(ctx, r.pool, tx, q,
		s.ID, s.SubscriberID, s.PlanID, string(s.Status), s.CurrentPeriodEnd, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	out, err := scanSubscription(row)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return out, nil
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	q := forUpdate(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, tx) + ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	s, err := scanSubscription(row)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return s, nil
}

func (r *subscriptionRepo) ListDueForRenewal(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE status = 'active' AND current_period_end < $1
 ORDER BY current_period_end ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, mapReadErr(err)
		}
		out = append(out, s)
	}
	return out, mapReadErr(rows.Err())
}

func (r *subscriptionRepo) DemoteIfDue(ctx context.Context, tx repository.Tx, id string, now time.Time) (bool, error) {
	const q = `
UPDATE subscriptions
   SET status = 'past_due', updated_at = $2
 WHERE id = $1
   AND status = 'active'
   AND current_period_end < $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, now)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *subscriptionRepo) Activate(ctx context.Context, tx repository.Tx, id string, periodEnd time.Time) error {
	const q = `UPDATE subscriptions SET status = 'active', current_period_end = $2, updated_at = NOW() WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, periodEnd)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var (
		s      model.Subscription
		status string
	)
	if err := row.Scan(&s.ID, &s.SubscriberID, &s.PlanID, &status, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SubscriptionStatus(status)
	return &s, nil
}
