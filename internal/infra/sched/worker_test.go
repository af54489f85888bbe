//go:build !integration

package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"swapscribe/internal/domain/model"
	red "swapscribe/internal/infra/redis"
	"swapscribe/internal/usecase"
)

type fakeLocker struct {
	lockErr  error
	locked   []string
	unlocked []string
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if f.lockErr != nil {
		return "", f.lockErr
	}
	f.locked = append(f.locked, key)
	return "tok", nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.unlocked = append(f.unlocked, key)
	return nil
}

func newPeriodic(locker red.Locker, task func(context.Context) error) *periodic {
	l := zerolog.Nop()
	return &periodic{name: "test", interval: time.Hour, locker: locker, lockTTL: time.Minute, log: &l, task: task}
}

func TestPeriodicTick(t *testing.T) {
	ctx := context.Background()

	t.Run("should run the task under the sweep lock", func(t *testing.T) {
		// --- Arrange ---
		locker := &fakeLocker{}
		ran := false
		p := newPeriodic(locker, func(context.Context) error { ran = true; return nil })

		// --- Act ---
		p.tick(ctx)

		// --- Assert ---
		if !ran {
			t.Fatal("task did not run")
		}
		if len(locker.locked) != 1 || locker.locked[0] != "lock:sweep:test" {
			t.Errorf("expected lock:sweep:test to be taken, got %v", locker.locked)
		}
		if len(locker.unlocked) != 1 {
			t.Errorf("expected lock to be released")
		}
	})

	t.Run("should skip the tick when another instance holds the lock", func(t *testing.T) {
		ran := false
		p := newPeriodic(&fakeLocker{lockErr: red.ErrLockHeld}, func(context.Context) error { ran = true; return nil })

		p.tick(ctx)

		if ran {
			t.Error("task must not run while the lock is held elsewhere")
		}
	})

	t.Run("should run unlocked when redis is unreachable", func(t *testing.T) {
		ran := false
		p := newPeriodic(&fakeLocker{lockErr: errors.New("dial tcp: refused")}, func(context.Context) error { ran = true; return nil })

		p.tick(ctx)

		if !ran {
			t.Error("task should run when the lock backend fails")
		}
	})

	t.Run("should run without a locker", func(t *testing.T) {
		ran := false
		p := newPeriodic(nil, func(context.Context) error { ran = true; return errors.New("boom") })

		p.tick(ctx)

		if !ran {
			t.Error("task should run without a locker")
		}
	})
}

func TestPeriodicRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := newPeriodic(nil, func(context.Context) error { return nil })
	p.interval = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- p.run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

type stubReconciler struct {
	res *usecase.ReconcileResult
	err error
}

func (s *stubReconciler) Reconcile(ctx context.Context, id string) (*usecase.ReconcileResult, error) {
	return s.res, s.err
}
func (s *stubReconciler) SetRefundAddress(ctx context.Context, id, addr string) error { return nil }

func TestInstrumentedReconciler(t *testing.T) {
	ctx := context.Background()

	t.Run("should pass results through", func(t *testing.T) {
		inv := &model.Invoice{ID: "i", Status: model.InvoiceStatusPaid}
		inner := &stubReconciler{res: &usecase.ReconcileResult{Invoice: inv, Previous: model.InvoiceStatusPendingPayment}}

		res, err := NewInstrumentedReconciler(inner).Reconcile(ctx, "i")

		if err != nil || res.Invoice != inv || !res.Changed() {
			t.Errorf("unexpected result %+v, %v", res, err)
		}
	})

	t.Run("should pass errors through", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := NewInstrumentedReconciler(&stubReconciler{err: boom}).Reconcile(ctx, "i")

		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})
}

type stubLimiter struct{ ok bool }

func (s stubLimiter) Admit(ctx context.Context, origin, action string) (bool, error) { return s.ok, nil }

func TestInstrumentedLimiter(t *testing.T) {
	ok, err := NewInstrumentedLimiter(stubLimiter{ok: false}).Admit(context.Background(), "1.1.1.1", model.ActionCreateInvoice)

	if err != nil || ok {
		t.Errorf("expected deny without error, got %v, %v", ok, err)
	}
}
