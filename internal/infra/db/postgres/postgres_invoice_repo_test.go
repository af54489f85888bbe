//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"swapscribe/internal/domain"
	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
)

func TestInvoiceRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewInvoiceRepo(testPool)

	t.Run("should load the invoice aggregate", func(t *testing.T) {
		resetInvoiceStore(t)
		f := seedFixture(t, "agg")
		inv := seedInvoice(t, f, "shift-agg")

		agg, err := repo.FindAggregate(ctx, repository.NoTX, inv.ID)
		if err != nil {
			t.Fatalf("FindAggregate failed: %v", err)
		}
		if agg.Invoice.Status != model.InvoiceStatusPendingPayment {
			t.Errorf("expected pending_payment, got %s", agg.Invoice.Status)
		}
		if !agg.Invoice.AmountUSD.Equal(decimal.NewFromInt(100)) {
			t.Errorf("amount mismatch: %s", agg.Invoice.AmountUSD)
		}
		if agg.Subscription.ID != f.sub.ID || agg.Plan.ID != f.plan.ID {
			t.Errorf("aggregate joined the wrong rows")
		}
		if agg.Invoice.ShiftID == nil || *agg.Invoice.ShiftID != "shift-agg" {
			t.Errorf("shift id was not stored")
		}
	})

	t.Run("should attach a shift only once", func(t *testing.T) {
		resetInvoiceStore(t)
		f := seedFixture(t, "attach")
		inv := seedInvoice(t, f, "shift-1")

		other := *inv
		other2 := "shift-2"
		other.ShiftID = &other2
		other.Status = model.InvoiceStatusPendingPayment
		ok, err := repo.AttachShift(ctx, repository.NoTX, &other)
		if err != nil {
			t.Fatalf("AttachShift failed: %v", err)
		}
		if ok {
			t.Error("second AttachShift should not apply")
		}
	})

	t.Run("should update status only from the expected state", func(t *testing.T) {
		resetInvoiceStore(t)
		f := seedFixture(t, "cas")
		inv := seedInvoice(t, f, "shift-cas")

		now := time.Now()
		settled := decimal.RequireFromString("99.5")
		inv.Status = model.InvoiceStatusPaid
		inv.PaidAt = &now
		inv.SettleAmount = &settled

		ok, err := repo.UpdateStatusIf(ctx, repository.NoTX, inv, model.InvoiceStatusPendingPayment)
		if err != nil || !ok {
			t.Fatalf("first update should apply: ok=%v err=%v", ok, err)
		}
		ok, err = repo.UpdateStatusIf(ctx, repository.NoTX, inv, model.InvoiceStatusPendingPayment)
		if err != nil || ok {
			t.Fatalf("stale update should not apply: ok=%v err=%v", ok, err)
		}

		stored, err := repo.FindByID(ctx, repository.NoTX, inv.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if stored.Status != model.InvoiceStatusPaid || stored.PaidAt == nil {
			t.Errorf("expected paid with paid_at, got %s", stored.Status)
		}
		if stored.SettleAmount == nil || !stored.SettleAmount.Equal(settled) {
			t.Errorf("settle amount not stored: %v", stored.SettleAmount)
		}
	})

	t.Run("should lock the row inside a transaction", func(t *testing.T) {
		resetInvoiceStore(t)
		f := seedFixture(t, "lock")
		inv := seedInvoice(t, f, "shift-lock")

		tm := NewTxManager(testPool)
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			_, err := repo.FindByID(ctx, tx, inv.ID)
			return err
		})
		if err != nil {
			t.Fatalf("FindByID inside tx failed: %v", err)
		}
	})

	t.Run("should fail only drafts", func(t *testing.T) {
		resetInvoiceStore(t)
		f := seedFixture(t, "fail")
		draft := seedInvoice(t, f, "")
		open := seedInvoice(t, f, "shift-open")

		if ok, _ := repo.MarkFailed(ctx, repository.NoTX, draft.ID); !ok {
			t.Error("draft should be marked failed")
		}
		if ok, _ := repo.MarkFailed(ctx, repository.NoTX, open.ID); ok {
			t.Error("an invoice with a shift must not be failed by MarkFailed")
		}
	})

	t.Run("should list polling invoices and merchant summaries", func(t *testing.T) {
		resetInvoiceStore(t)
		f := seedFixture(t, "list")
		seedInvoice(t, f, "")
		polling := seedInvoice(t, f, "shift-poll")

		list, err := repo.ListPolling(ctx, repository.NoTX, 50)
		if err != nil {
			t.Fatalf("ListPolling failed: %v", err)
		}
		if len(list) != 1 || list[0].ID != polling.ID {
			t.Fatalf("expected only the invoice with a shift, got %d", len(list))
		}

		recent, err := repo.ListRecentByMerchant(ctx, repository.NoTX, f.merchant.ID, 50)
		if err != nil {
			t.Fatalf("ListRecentByMerchant failed: %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("expected 2 summaries, got %d", len(recent))
		}
		if recent[0].SubscriberEmail != f.subscriber.Email || recent[0].PlanName != "Pro" {
			t.Errorf("summary joined the wrong rows: %+v", recent[0])
		}
	})

	t.Run("should return ErrNotFound for unknown invoice", func(t *testing.T) {
		if _, err := repo.FindAggregate(ctx, repository.NoTX, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStatsRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	resetInvoiceStore(t)
	f := seedFixture(t, "stats")
	invoices := NewInvoiceRepo(testPool)

	paid := seedInvoice(t, f, "shift-paid")
	now := time.Now()
	paid.Status = model.InvoiceStatusPaid
	paid.PaidAt = &now
	if ok, err := invoices.UpdateStatusIf(ctx, repository.NoTX, paid, model.InvoiceStatusPendingPayment); err != nil || !ok {
		t.Fatalf("mark paid: ok=%v err=%v", ok, err)
	}
	seedInvoice(t, f, "shift-pending")
	if err := NewSubscriptionRepo(testPool).Activate(ctx, repository.NoTX, f.sub.ID, now.AddDate(0, 1, 0)); err != nil {
		t.Fatalf("activate: %v", err)
	}

	c, err := NewStatsRepo(testPool).MerchantCounters(ctx, repository.NoTX, f.merchant.ID)
	if err != nil {
		t.Fatalf("MerchantCounters failed: %v", err)
	}
	if c.ActiveSubscriptions != 1 || c.PaidInvoices != 1 || c.PendingInvoices != 1 {
		t.Errorf("unexpected counters: %+v", c)
	}
	if !c.TotalRevenue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected revenue 100, got %s", c.TotalRevenue)
	}
	if len(c.Lines) != 1 || c.Lines[0].ActiveCount != 1 {
		t.Errorf("unexpected revenue lines: %+v", c.Lines)
	}
}
