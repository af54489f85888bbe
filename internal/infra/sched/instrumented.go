package sched

import (
	"context"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/infra/metrics"
	"swapscribe/internal/usecase"
)

var _ usecase.ReconcileUseCase = (*instrumentedReconciler)(nil)

// instrumentedReconciler records reconcile outcomes for both the payer poll and the sweep.
type instrumentedReconciler struct {
	inner usecase.ReconcileUseCase
}

func NewInstrumentedReconciler(inner usecase.ReconcileUseCase) usecase.ReconcileUseCase {
	return &instrumentedReconciler{inner: inner}
}

func (r *instrumentedReconciler) Reconcile(ctx context.Context, invoiceID string) (*usecase.ReconcileResult, error) {
	res, err := r.inner.Reconcile(ctx, invoiceID)
	switch {
	case err != nil:
		metrics.IncReconcileResult("error")
		return res, err
	case res.ProviderError != nil:
		metrics.IncReconcileResult("provider_error")
	case res.Changed():
		metrics.IncReconcileResult("changed")
		metrics.IncInvoiceTransition(string(res.Previous), string(res.Invoice.Status))
	default:
		metrics.IncReconcileResult("unchanged")
	}
	if res.Warning == model.UnderpaymentWarning {
		metrics.IncUnderpayment()
	}
	return res, nil
}

func (r *instrumentedReconciler) SetRefundAddress(ctx context.Context, invoiceID, address string) error {
	return r.inner.SetRefundAddress(ctx, invoiceID, address)
}

var _ usecase.RateLimiter = (*instrumentedLimiter)(nil)

type instrumentedLimiter struct {
	inner usecase.RateLimiter
}

// NewInstrumentedLimiter counts admit/deny decisions of either limiter backend.
func NewInstrumentedLimiter(inner usecase.RateLimiter) usecase.RateLimiter {
	return &instrumentedLimiter{inner: inner}
}

func (l *instrumentedLimiter) Admit(ctx context.Context, origin, action string) (bool, error) {
	ok, err := l.inner.Admit(ctx, origin, action)
	switch {
	case err != nil:
		metrics.IncRateLimitDecision(action, "error")
	case ok:
		metrics.IncRateLimitDecision(action, "admit")
	default:
		metrics.IncRateLimitDecision(action, "deny")
	}
	return ok, err
}
