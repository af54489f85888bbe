package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		invoiceTransitionsTotal,
		reconcileResultsTotal,
		underpaymentsTotal,
		checkoutsTotal,
		eventsPublishedTotal,
	)
}

var (
	invoiceTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscribe_invoice_transitions_total",
			Help: "Persisted invoice status changes by from/to status.",
		},
		[]string{"from", "to"},
	)

	// result: changed|unchanged|provider_error|error
	reconcileResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscribe_reconcile_results_total",
			Help: "Reconcile outcomes by result.",
		},
		[]string{"result"},
	)

	underpaymentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swapscribe_underpayments_total",
			Help: "Settled shifts whose settle amount fell below the tolerance threshold.",
		},
	)

	// result: created|rate_limited|rejected|failed
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscribe_checkouts_total",
			Help: "Shift creation attempts at checkout and pay by result.",
		},
		[]string{"result"},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swapscribe_events_published_total",
			Help: "Lifecycle events handed to the broker by type and result.",
		},
		[]string{"type", "result"},
	)
)

func IncInvoiceTransition(from, to string) {
	invoiceTransitionsTotal.WithLabelValues(norm(from), norm(to)).Inc()
}

func IncReconcileResult(result string) {
	reconcileResultsTotal.WithLabelValues(norm(result)).Inc()
}

func IncUnderpayment() { underpaymentsTotal.Inc() }

func IncCheckout(result string) {
	checkoutsTotal.WithLabelValues(norm(result)).Inc()
}

func IncEventPublished(eventType string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	eventsPublishedTotal.WithLabelValues(norm(eventType), result).Inc()
}
