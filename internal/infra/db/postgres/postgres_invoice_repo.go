package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
)

var (
	_ repository.InvoiceRepository = (*invoiceRepo)(nil)
	_ repository.StatsRepository   = (*statsRepo)(nil)
)

type invoiceRepo struct{ pool *pgxpool.Pool }

func NewInvoiceRepo(pool *pgxpool.Pool) *invoiceRepo {
	return &invoiceRepo{pool: pool}
}

const invoiceColumns = `i.id, i.subscription_id, i.amount_usd::text, i.deposit_coin, i.deposit_network,
       i.settle_coin, i.settle_network, i.shift_id, i.deposit_address, i.deposit_memo,
       i.deposit_min, i.deposit_max, i.expires_at, i.due_at, i.status, i.paid_at,
       i.settle_amount::text, i.warning, i.created_at, i.updated_at`

func (r *invoiceRepo) Save(ctx context.Context, tx repository.Tx, inv *model.Invoice) error {
	const q = `
INSERT INTO invoices (
    id, subscription_id, amount_usd, deposit_coin, deposit_network, settle_coin, settle_network,
    shift_id, deposit_address, deposit_memo, deposit_min, deposit_max, expires_at, due_at,
    status, paid_at, settle_amount, warning, created_at, updated_at)
VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17::numeric, $18, $19, $20);`
	_, err := execSQL(ctx, r.pool, tx, q,
		inv.ID, inv.SubscriptionID, inv.AmountUSD.String(), inv.DepositCoin, inv.DepositNetwork,
		inv.SettleCoin, inv.SettleNetwork, inv.ShiftID, inv.DepositAddress, inv.DepositMemo,
		inv.DepositMin, inv.DepositMax, inv.ExpiresAt, inv.DueAt, string(inv.Status), inv.PaidAt,
		decimalArg(inv.SettleAmount), inv.Warning, inv.CreatedAt, inv.UpdatedAt,
	)
	return mapWriteErr(err)
}

func (r *invoiceRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Invoice, error) {
	q := forUpdate(`SELECT `+invoiceColumns+` FROM invoices i WHERE i.id = $1`, tx) + ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanInvoice(row)
}

func (r *invoiceRepo) FindAggregate(ctx context.Context, tx repository.Tx, id string) (*model.InvoiceAggregate, error) {
	const q = `
SELECT ` + invoiceColumns + `,
       s.id, s.subscriber_id, s.plan_id, s.status, s.current_period_end, s.created_at, s.updated_at,
       p.id, p.merchant_id, p.name, p.description, p.price_usd::text, p.billing_interval,
       p.settle_coin, p.settle_network, p.public_slug, p.is_active, p.created_at
  FROM invoices i
  JOIN subscriptions s ON s.id = i.subscription_id
  JOIN plans p ON p.id = s.plan_id
 WHERE i.id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	var (
		ir        invoiceRow
		sub       model.Subscription
		subStatus string
		plan      model.Plan
		price     string
		interval  string
	)
	dest := append(ir.dest(),
		&sub.ID, &sub.SubscriberID, &sub.PlanID, &subStatus, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
		&plan.ID, &plan.MerchantID, &plan.Name, &plan.Description, &price, &interval,
		&plan.SettleCoin, &plan.SettleNetwork, &plan.PublicSlug, &plan.IsActive, &plan.CreatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, mapReadErr(err)
	}
	inv, err := ir.invoice()
	if err != nil {
		return nil, err
	}
	if plan.PriceUSD, err = parseDecimal(price); err != nil {
		return nil, err
	}
	plan.BillingInterval = model.BillingInterval(interval)
	sub.Status = model.SubscriptionStatus(subStatus)

	return &model.InvoiceAggregate{Invoice: inv, Subscription: &sub, Plan: &plan}, nil
}

func (r *invoiceRepo) AttachShift(ctx context.Context, tx repository.Tx, inv *model.Invoice) (bool, error) {
	const q = `
UPDATE invoices
   SET shift_id        = $2,
       deposit_address = $3,
       deposit_memo    = $4,
       deposit_min     = $5,
       deposit_max     = $6,
       expires_at      = $7,
       deposit_coin    = $8,
       deposit_network = $9,
       status          = $10,
       updated_at      = NOW()
 WHERE id = $1
   AND status = 'draft'
   AND shift_id IS NULL;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		inv.ID, inv.ShiftID, inv.DepositAddress, inv.DepositMemo, inv.DepositMin, inv.DepositMax,
		inv.ExpiresAt, inv.DepositCoin, inv.DepositNetwork, string(inv.Status),
	)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invoiceRepo) UpdateStatusIf(ctx context.Context, tx repository.Tx, inv *model.Invoice, expected model.InvoiceStatus) (bool, error) {
	const q = `
UPDATE invoices
   SET status        = $2,
       paid_at       = COALESCE($3, paid_at),
       settle_amount = COALESCE($4::numeric, settle_amount),
       warning       = COALESCE($5, warning),
       updated_at    = NOW()
 WHERE id = $1
   AND status = $6;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		inv.ID, string(inv.Status), inv.PaidAt, decimalArg(inv.SettleAmount), inv.Warning, string(expected),
	)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invoiceRepo) MarkFailed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE invoices SET status = 'failed', updated_at = NOW() WHERE id = $1 AND status = 'draft';`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invoiceRepo) ListPolling(ctx context.Context, tx repository.Tx, limit int) ([]*model.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT ` + invoiceColumns + `
  FROM invoices i
 WHERE i.status IN ('pending_payment', 'processing')
   AND i.shift_id IS NOT NULL
 ORDER BY i.created_at ASC
 LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()

	var out []*model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, mapReadErr(rows.Err())
}

func (r *invoiceRepo) ListRecentByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.InvoiceSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT ` + invoiceColumns + `, sb.email, p.name, p.public_slug
  FROM invoices i
  JOIN subscriptions s ON s.id = i.subscription_id
  JOIN subscribers sb ON sb.id = s.subscriber_id
  JOIN plans p ON p.id = s.plan_id
 WHERE p.merchant_id = $1
 ORDER BY i.created_at DESC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, merchantID, limit)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()

	out := make([]*model.InvoiceSummary, 0, limit)
	for rows.Next() {
		var (
			ir  invoiceRow
			sum model.InvoiceSummary
		)
		if err := rows.Scan(append(ir.dest(), &sum.SubscriberEmail, &sum.PlanName, &sum.PlanSlug)...); err != nil {
			return nil, mapReadErr(err)
		}
		if sum.Invoice, err = ir.invoice(); err != nil {
			return nil, err
		}
		out = append(out, &sum)
	}
	return out, mapReadErr(rows.Err())
}

// invoiceRow holds the raw column values of invoiceColumns before decimal parsing.
type invoiceRow struct {
	inv    model.Invoice
	amount string
	status string
	settle *string
}

func (ir *invoiceRow) dest() []interface{} {
	i := &ir.inv
	return []interface{}{
		&i.ID, &i.SubscriptionID, &ir.amount, &i.DepositCoin, &i.DepositNetwork,
		&i.SettleCoin, &i.SettleNetwork, &i.ShiftID, &i.DepositAddress, &i.DepositMemo,
		&i.DepositMin, &i.DepositMax, &i.ExpiresAt, &i.DueAt, &ir.status, &i.PaidAt,
		&ir.settle, &i.Warning, &i.CreatedAt, &i.UpdatedAt,
	}
}

func (ir *invoiceRow) invoice() (*model.Invoice, error) {
	amount, err := parseDecimal(ir.amount)
	if err != nil {
		return nil, err
	}
	settle, err := parseDecimalPtr(ir.settle)
	if err != nil {
		return nil, err
	}
	inv := ir.inv
	inv.AmountUSD = amount
	inv.SettleAmount = settle
	inv.Status = model.InvoiceStatus(ir.status)
	return &inv, nil
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var ir invoiceRow
	if err := row.Scan(ir.dest()...); err != nil {
		return nil, mapReadErr(err)
	}
	return ir.invoice()
}

type statsRepo struct{ pool *pgxpool.Pool }

func NewStatsRepo(pool *pgxpool.Pool) *statsRepo {
	return &statsRepo{pool: pool}
}

func (r *statsRepo) MerchantCounters(ctx context.Context, tx repository.Tx, merchantID string) (*model.MerchantCounters, error) {
	const countersQ = `
SELECT
  (SELECT COUNT(*) FROM subscriptions s JOIN plans p ON p.id = s.plan_id
    WHERE p.merchant_id = $1 AND s.status = 'active'),
  COUNT(*) FILTER (WHERE i.status = 'paid'),
  COUNT(*) FILTER (WHERE i.status IN ('pending_payment', 'processing')),
  COALESCE(SUM(i.amount_usd) FILTER (WHERE i.status = 'paid'), 0)::text
  FROM invoices i
  JOIN subscriptions s ON s.id = i.subscription_id
  JOIN plans p ON p.id = s.plan_id
 WHERE p.merchant_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, countersQ, merchantID)
	if err != nil {
		return nil, err
	}
	var (
		c       model.MerchantCounters
		revenue string
	)
	if err := row.Scan(&c.ActiveSubscriptions, &c.PaidInvoices, &c.PendingInvoices, &revenue); err != nil {
		return nil, mapReadErr(err)
	}
	if c.TotalRevenue, err = parseDecimal(revenue); err != nil {
		return nil, err
	}

	const linesQ = `
SELECT p.id, p.price_usd::text, p.billing_interval, COUNT(s.id)
  FROM plans p
  JOIN subscriptions s ON s.plan_id = p.id AND s.status = 'active'
 WHERE p.merchant_id = $1
 GROUP BY p.id, p.price_usd, p.billing_interval
 ORDER BY p.id;`
	rows, err := queryRows(ctx, r.pool, tx, linesQ, merchantID)
	if err != nil {
		return nil, mapReadErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l        model.PlanRevenueLine
			price    string
			interval string
		)
		if err := rows.Scan(&l.PlanID, &price, &interval, &l.ActiveCount); err != nil {
			return nil, mapReadErr(err)
		}
		if l.PriceUSD, err = parseDecimal(price); err != nil {
			return nil, err
		}
		l.BillingInterval = model.BillingInterval(interval)
		c.Lines = append(c.Lines, l)
	}
	return &c, mapReadErr(rows.Err())
}
