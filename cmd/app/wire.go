package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"swapscribe/internal/config"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
	"swapscribe/internal/domain/ports/repository"
	pg "swapscribe/internal/infra/db/postgres"
	"swapscribe/internal/infra/events"
	"swapscribe/internal/infra/logging"
	"swapscribe/internal/infra/metrics"
	"swapscribe/internal/infra/payment"
	red "swapscribe/internal/infra/redis"
	"swapscribe/internal/infra/sched"
	"swapscribe/internal/usecase"
)

type publisher interface {
	adapter.EventPublisher
	Close() error
}

// application holds every wired component. Redis is optional: without it the
// plan cache and sweep lock are skipped and the limiter stays on Postgres.
type application struct {
	cfg       *config.Config
	log       *zerolog.Logger
	pool      *pgxpool.Pool
	redis     *red.Client
	locker    red.Locker
	publisher publisher
	pruner    sched.Pruner

	checkout  usecase.CheckoutUseCase
	reconcile usecase.ReconcileUseCase
	renewals  usecase.RenewalUseCase
	sweeps    usecase.SweepUseCase
	merchants usecase.MerchantUseCase
	catalog   usecase.CatalogUseCase
}

func bootstrap(ctx context.Context, flags *rootFlags) (*application, error) {
	cfg, err := config.Load(flags.configPath, flags.dev)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.SetBuildInfo(version, commit)

	a := &application{cfg: cfg, log: logger}
	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *application) wire(ctx context.Context) error {
	cfg, logger := a.cfg, a.log

	// ---- Postgres ----
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	a.pool = pool

	// ---- Redis (optional) ----
	if cfg.Redis.URL != "" {
		cli, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		a.redis = cli
		a.locker = red.NewLocker(cli.Cmdable())
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	var plans repository.PlanRepository = pg.NewPlanRepo(pool)
	if a.redis != nil {
		plans = pg.NewPlanRepoCacheDecorator(plans, a.redis, cfg.Redis.TTL, logger)
	}
	merchants := pg.NewMerchantRepo(pool)
	subscribers := pg.NewSubscriberRepo(pool)
	subs := pg.NewSubscriptionRepo(pool)
	invoices := pg.NewInvoiceRepo(pool)
	stats := pg.NewStatsRepo(pool)

	// ---- Rate limiter ----
	policy := usecase.RateLimitPolicy{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window}
	storeLimiter := usecase.NewRateLimiter(pg.NewRateLimitRepo(pool), tm, policy, logger)
	a.pruner = storeLimiter
	var limiter usecase.RateLimiter = storeLimiter
	if cfg.RateLimit.Backend == "redis" {
		limiter = red.NewRateLimiter(a.redis.Cmdable(), policy.Limit, policy.Window)
	}
	limiter = sched.NewInstrumentedLimiter(limiter)

	// ---- Settlement gateway ----
	var gateway adapter.SettlementGateway
	if cfg.SideShift.Fake {
		logger.Warn().Msg("using in-memory settlement gateway")
		gateway = payment.NewFakeGateway()
	} else {
		gateway = payment.NewSideShiftGateway(cfg.SideShift)
	}
	gateway = payment.NewBreakerGateway(gateway, cfg.Breaker, logger)

	// ---- Events ----
	if cfg.Events.AMQPURL != "" {
		p, err := events.NewRabbitMQPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		a.publisher = p
	} else {
		a.publisher = events.NewNoopPublisher(logger)
	}

	// ---- Use cases ----
	tolerance, err := decimal.NewFromString(cfg.Billing.SlippageTolerance)
	if err != nil {
		return fmt.Errorf("billing.slippage_tolerance: %w", err)
	}
	a.reconcile = sched.NewInstrumentedReconciler(
		usecase.NewReconcileUseCase(invoices, subs, tm, gateway, a.publisher, model.Policy{SlippageTolerance: tolerance}, logger),
	)
	a.sweeps = usecase.NewSweepUseCase(invoices, a.reconcile, cfg.Billing.SweepConcurrency, logger)
	a.renewals = usecase.NewRenewalUseCase(subs, plans, invoices, tm, a.publisher, cfg.Billing.RenewalBatch, logger)
	a.checkout = usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		Plans:       plans,
		Merchants:   merchants,
		Subscribers: subscribers,
		Subs:        subs,
		Invoices:    invoices,
		Tx:          tm,
		Gateway:     gateway,
		Limiter:     limiter,
		Publisher:   a.publisher,
	}, cfg.Runtime.Dev, logger)
	a.merchants = usecase.NewMerchantUseCase(invoices, stats)
	a.catalog = usecase.NewCatalogUseCase(plans, merchants, gateway)
	return nil
}

func (a *application) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close publisher")
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
