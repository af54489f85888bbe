package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"swapscribe/internal/config"
	"swapscribe/internal/usecase"
)

// Deps are the use cases the HTTP surface drives. Health is optional.
type Deps struct {
	Checkout  usecase.CheckoutUseCase
	Reconcile usecase.ReconcileUseCase
	Renewals  usecase.RenewalUseCase
	Sweeps    usecase.SweepUseCase
	Merchants usecase.MerchantUseCase
	Catalog   usecase.CatalogUseCase
	Sessions  *SessionManager
	Health    func(ctx context.Context) error
}

type Server struct {
	deps           Deps
	cronSecret     string
	production     bool
	requestTimeout time.Duration
	sweepLimit     int
	log            *zerolog.Logger
}

func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	limit := cfg.Billing.SweepLimit
	if limit <= 0 {
		limit = usecase.DefaultSweepLimit
	}
	return &Server{
		deps:           deps,
		cronSecret:     cfg.Security.CronSecret,
		production:     cfg.IsProduction(),
		requestTimeout: cfg.HTTP.RequestTimeout,
		sweepLimit:     limit,
		log:            &l,
	}
}

// Routes builds the router. Cron routes sit outside the request timeout: a sweep
// may outlive a single handler budget.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(Timeout(s.requestTimeout))

			r.Post("/subscribe/start", s.handleSubscribeStart)
			r.Get("/invoices/{id}/status", s.handleInvoiceStatus)
			r.Post("/invoices/{id}/refund", s.handleRefundAddress)
			r.Post("/invoices/{id}/pay", s.handlePayInvoice)
			r.Get("/plans/{slug}", s.handlePlan)
			r.Get("/coins", s.handleCoins)

			r.Group(func(r chi.Router) {
				r.Use(MerchantSession(s.deps.Sessions))
				r.Get("/invoices", s.handleMerchantInvoices)
				r.Get("/dashboard/stats", s.handleDashboardStats)
			})
		})

		r.Route("/cron", func(r chi.Router) {
			r.Use(CronAuth(s.cronSecret, !s.production))
			r.Get("/renew", s.handleCronRenew)
			r.Get("/update-invoices", s.handleCronUpdateInvoices)
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then drains in-flight requests for up to grace.
func (s *Server) ListenAndServe(ctx context.Context, port int, grace time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health(ctx); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
