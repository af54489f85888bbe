package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"swapscribe/internal/infra/api"
	pg "swapscribe/internal/infra/db/postgres"
	"swapscribe/internal/infra/metrics"
	"swapscribe/internal/infra/sched"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	var noWorkers bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the in-process sweep workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close()
			metrics.MustRegister()
			return a.serve(ctx, !noWorkers)
		},
	}
	cmd.Flags().BoolVar(&noWorkers, "no-workers", false, "serve HTTP only; sweeps are driven by the cron routes")
	return cmd
}

func (a *application) serve(ctx context.Context, workers bool) error {
	cfg := a.cfg
	srv := api.NewServer(api.Deps{
		Checkout:  a.checkout,
		Reconcile: a.reconcile,
		Renewals:  a.renewals,
		Sweeps:    a.sweeps,
		Merchants: a.merchants,
		Catalog:   a.catalog,
		Sessions:  api.NewSessionManager(cfg.Security.JWTSecret, 0),
		Health:    a.pool.Ping,
	}, cfg, a.log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx, cfg.HTTP.Port, cfg.HTTP.ShutdownGrace) })
	g.Go(func() error {
		pg.ReportPoolStats(ctx, a.pool, 15*time.Second, a.log)
		return nil
	})

	if workers {
		s := cfg.Scheduler
		if s.RenewInterval > 0 {
			w := sched.NewRenewalWorker(s.RenewInterval, a.renewals, a.locker, s.LockTTL, a.log)
			g.Go(func() error { return ignoreCanceled(w.Run(ctx)) })
		}
		if s.ReconcileInterval > 0 {
			w := sched.NewInvoiceReconciler(s.ReconcileInterval, a.sweeps, cfg.Billing.SweepLimit, a.locker, s.LockTTL, a.log)
			g.Go(func() error { return ignoreCanceled(w.Run(ctx)) })
		}
		if s.JanitorInterval > 0 {
			w := sched.NewRateLimitJanitor(s.JanitorInterval, a.pruner, a.log)
			g.Go(func() error { return ignoreCanceled(w.Run(ctx)) })
		}
	}

	err := g.Wait()
	a.log.Info().Msg("shutdown complete")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
