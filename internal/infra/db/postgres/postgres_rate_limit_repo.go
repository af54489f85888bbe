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

var _ repository.RateLimitRepository = (*rateLimitRepo)(nil)

type rateLimitRepo struct{ pool *pgxpool.Pool }

func NewRateLimitRepo(pool *pgxpool.Pool) *rateLimitRepo {
	return &rateLimitRepo{pool: pool}
}

// LockKey takes a transaction-scoped advisory lock; it is released on commit or rollback.
func (r *rateLimitRepo) LockKey(ctx context.Context, tx repository.Tx, key string) error {
	ptx, ok := tx.(pgx.Tx)
	if !ok {
		return domain.ErrInvalidExecContext
	}
	if _, err := ptx.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, hashToInt64("ratelimit:"+key)); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *rateLimitRepo) CountSince(ctx context.Context, tx repository.Tx, origin, action string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM rate_limits WHERE origin = $1 AND action = $2 AND created_at >= $3;`
	row, err := pickRow(ctx, r.pool, tx, q, origin, action, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, mapReadErr(err)
	}
	return n, nil
}

func (r *rateLimitRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.RateLimitRecord) error {
	const q = `INSERT INTO rate_limits (origin, action, created_at) VALUES ($1, $2, $3) RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, rec.Origin, rec.Action, rec.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&rec.ID); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *rateLimitRepo) DeleteBefore(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM rate_limits WHERE created_at < $1;`, before)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return tag.RowsAffected(), nil
}
