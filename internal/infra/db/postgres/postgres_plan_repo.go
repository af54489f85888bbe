package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
)

var _ repository.PlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planColumns = `id, merchant_id, name, description, price_usd::text, billing_interval, settle_coin, settle_network, public_slug, is_active, created_at`

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	const q = `
INSERT INTO plans (id, merchant_id, name, description, price_usd, billing_interval, settle_coin, settle_network, public_slug, is_active, created_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE
  SET name             = EXCLUDED.name,
      description      = EXCLUDED.description,
      price_usd        = EXCLUDED.price_usd,
      billing_interval = EXCLUDED.billing_interval,
      settle_coin      = EXCLUDED.settle_coin,
      settle_network   = EXCLUDED.settle_network,
      is_active        = EXCLUDED.is_active;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.MerchantID, p.Name, p.Description, p.PriceUSD.String(), string(p.BillingInterval),
		p.SettleCoin, p.SettleNetwork, p.PublicSlug, p.IsActive, p.CreatedAt,
	)
	return mapWriteErr(err)
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	return r.findOne(ctx, tx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
}

func (r *planRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Plan, error) {
	return r.findOne(ctx, tx, `SELECT `+planColumns+` FROM plans WHERE public_slug = $1`, slug)
}

func (r *planRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+planColumns+` FROM plans WHERE merchant_id = $1 ORDER BY created_at;`, merchantID)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, mapReadErr(rows.Err())
}

func (r *planRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg string) (*model.Plan, error) {
	row, err := pickRow(ctx, r.pool, tx, q+";", arg)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var (
		p        model.Plan
		price    string
		interval string
	)
	if err := row.Scan(&p.ID, &p.MerchantID, &p.Name, &p.Description, &price, &interval,
		&p.SettleCoin, &p.SettleNetwork, &p.PublicSlug, &p.IsActive, &p.CreatedAt); err != nil {
		return nil, mapReadErr(err)
	}
	d, err := parseDecimal(price)
	if err != nil {
		return nil, err
	}
	p.PriceUSD = d
	p.BillingInterval = model.BillingInterval(interval)
	return &p, nil
}
