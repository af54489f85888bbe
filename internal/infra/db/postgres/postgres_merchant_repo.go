package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
)

var (
	_ repository.MerchantRepository   = (*merchantRepo)(nil)
	_ repository.SubscriberRepository = (*subscriberRepo)(nil)
)

type merchantRepo struct{ pool *pgxpool.Pool }

func NewMerchantRepo(pool *pgxpool.Pool) *merchantRepo {
	return &merchantRepo{pool: pool}
}

func (r *merchantRepo) Save(ctx context.Context, tx repository.Tx, m *model.Merchant) error {
	const q = `
INSERT INTO merchants (id, email, name, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name;`
	_, err := execSQL(ctx, r.pool, tx, q, m.ID, m.Email, m.Name, m.CreatedAt)
	return mapWriteErr(err)
}

func (r *merchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, email, name, created_at FROM merchants WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	var m model.Merchant
	if err := row.Scan(&m.ID, &m.Email, &m.Name, &m.CreatedAt); err != nil {
		return nil, mapReadErr(err)
	}
	return &m, nil
}

func (r *merchantRepo) SaveSettings(ctx context.Context, tx repository.Tx, s *model.MerchantSettings) error {
	const q = `
INSERT INTO merchant_settings (merchant_id, display_name, settle_address, settle_coin, settle_network)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (merchant_id) DO UPDATE
  SET display_name   = EXCLUDED.display_name,
      settle_address = EXCLUDED.settle_address,
      settle_coin    = EXCLUDED.settle_coin,
      settle_network = EXCLUDED.settle_network;`
	_, err := execSQL(ctx, r.pool, tx, q, s.MerchantID, s.DisplayName, s.SettleAddress, s.SettleCoin, s.SettleNetwork)
	return mapWriteErr(err)
}

func (r *merchantRepo) FindSettings(ctx context.Context, tx repository.Tx, merchantID string) (*model.MerchantSettings, error) {
	const q = `SELECT merchant_id, display_name, settle_address, settle_coin, settle_network FROM merchant_settings WHERE merchant_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, merchantID)
	if err != nil {
		return nil, err
	}
	var s model.MerchantSettings
	if err := row.Scan(&s.MerchantID, &s.DisplayName, &s.SettleAddress, &s.SettleCoin, &s.SettleNetwork); err != nil {
		return nil, mapReadErr(err)
	}
	return &s, nil
}

type subscriberRepo struct{ pool *pgxpool.Pool }

func NewSubscriberRepo(pool *pgxpool.Pool) *subscriberRepo {
	return &subscriberRepo{pool: pool}
}

// Upsert relies on UNIQUE (merchant_id, email); the no-op update makes RETURNING
// yield the existing row.
func (r *subscriberRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscriber) (*model.Subscriber, error) {
	const q = `
INSERT INTO subscribers (id, merchant_id, email, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (merchant_id, email) DO UPDATE SET email = EXCLUDED.email
RETURNING id, merchant_id, email, created_at;`
	row, err := pickRow(ctx, r.pool, tx, q, s.ID, s.MerchantID, s.Email, s.CreatedAt)
	if err != nil {
		return nil, err
	}
	var out model.Subscriber
	if err := row.Scan(&out.ID, &out.MerchantID, &out.Email, &out.CreatedAt); err != nil {
		return nil, mapWriteErr(err)
	}
	return &out, nil
}

func (r *subscriberRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscriber, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, merchant_id, email, created_at FROM subscribers WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	var s model.Subscriber
	if err := row.Scan(&s.ID, &s.MerchantID, &s.Email, &s.CreatedAt); err != nil {
		return nil, mapReadErr(err)
	}
	return &s, nil
}
