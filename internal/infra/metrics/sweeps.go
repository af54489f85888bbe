package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		renewalsTotal,
		sweepRunsTotal,
		sweepDuration,
		rateLimitDecisionsTotal,
		rateLimitPrunedTotal,
	)
}

var (
	renewalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swapscribe_renewals_total",
			Help: "Subscriptions demoted to past_due with a new draft invoice.",
		},
	)

	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscribe_sweep_runs_total",
			Help: "Sweep executions by sweep (renew|reconcile|janitor) and result (ok|error|skipped).",
		},
		[]string{"sweep", "result"},
	)

	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swapscribe_sweep_duration_seconds",
			Help:    "Duration of one sweep run in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"sweep"},
	)

	rateLimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscribe_rate_limit_decisions_total",
			Help: "Rate limiter decisions by action and decision (allow|deny|error).",
		},
		[]string{"action", "decision"},
	)

	rateLimitPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swapscribe_rate_limit_pruned_total",
			Help: "Rate limit records deleted by the janitor.",
		},
	)
)

func AddRenewals(n int) { renewalsTotal.Add(float64(n)) }

func ObserveSweep(sweep, result string, d time.Duration) {
	sweepRunsTotal.WithLabelValues(norm(sweep), norm(result)).Inc()
	if result != "skipped" {
		sweepDuration.WithLabelValues(norm(sweep)).Observe(d.Seconds())
	}
}

func IncRateLimitDecision(action, decision string) {
	rateLimitDecisionsTotal.WithLabelValues(norm(action), norm(decision)).Inc()
}

func AddRateLimitPruned(n int64) { rateLimitPrunedTotal.Add(float64(n)) }
