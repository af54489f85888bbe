//go:build !integration

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	t.Run("should label transitions with normalised statuses", func(t *testing.T) {
		IncInvoiceTransition(" Pending_Payment", "PAID")
		got := testutil.ToFloat64(invoiceTransitionsTotal.WithLabelValues("pending_payment", "paid"))
		if got < 1 {
			t.Errorf("expected transition counter to be incremented, got %v", got)
		}
	})

	t.Run("should not observe duration for skipped sweeps", func(t *testing.T) {
		before := testutil.CollectAndCount(sweepDuration)
		ObserveSweep("janitor-test", "skipped", time.Second)
		if after := testutil.CollectAndCount(sweepDuration); after != before {
			t.Errorf("skipped sweep created a histogram series")
		}
		if testutil.ToFloat64(sweepRunsTotal.WithLabelValues("janitor-test", "skipped")) != 1 {
			t.Error("skipped run was not counted")
		}
	})

	t.Run("should register every collector once", func(t *testing.T) {
		MustRegister()
		MustRegister()
	})
}
