package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
	"swapscribe/internal/infra/metrics"
	red "swapscribe/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan lookups by id and slug. Transactional reads
// bypass the cache so a tx always sees its own writes.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.PlanRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	l := logger.With().Str("component", "PlanCache").Logger()
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func planIDKey(id string) string     { return fmt.Sprintf("plan:id:%s", id) }
func planSlugKey(slug string) string { return fmt.Sprintf("plan:slug:%s", slug) }

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	return d.cached(ctx, "plan", planIDKey(id), func() (*model.Plan, error) {
		return d.inner.FindByID(ctx, tx, id)
	})
}

func (d *planRepoCacheDecorator) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Plan, error) {
	if tx != nil {
		return d.inner.FindBySlug(ctx, tx, slug)
	}
	return d.cached(ctx, "plan_slug", planSlugKey(slug), func() (*model.Plan, error) {
		return d.inner.FindBySlug(ctx, tx, slug)
	})
}

func (d *planRepoCacheDecorator) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string) ([]*model.Plan, error) {
	return d.inner.ListByMerchant(ctx, tx, merchantID)
}

// Save invalidates both keys before writing through.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	if err := d.cache.Del(ctx, planIDKey(plan.ID), planSlugKey(plan.PublicSlug)); err != nil {
		d.log.Warn().Err(err).Str("plan_id", plan.ID).Msg("cache invalidation failed")
	}
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) cached(ctx context.Context, name, key string, load func() (*model.Plan, error)) (*model.Plan, error) {
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest(name, "hit")
			return &plan, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	metrics.IncCacheRequest(name, "miss")
	plan, err := load()
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(plan); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return plan, nil
}
