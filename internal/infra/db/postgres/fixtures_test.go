//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/repository"
)

type fixture struct {
	merchant   *model.Merchant
	plan       *model.Plan
	subscriber *model.Subscriber
	sub        *model.Subscription
}

// seedFixture inserts one merchant with payout settings, a monthly plan, one subscriber
// and a past_due subscription.
func seedFixture(t *testing.T, slug string) fixture {
	t.Helper()
	ctx := context.Background()

	m := &model.Merchant{ID: "m-" + slug, Email: slug + "@merchant.test", Name: "Merchant " + slug, CreatedAt: time.Now()}
	if err := NewMerchantRepo(testPool).Save(ctx, repository.NoTX, m); err != nil {
		t.Fatalf("save merchant: %v", err)
	}
	settings := &model.MerchantSettings{MerchantID: m.ID, SettleAddress: "0xabc", SettleCoin: "usdc", SettleNetwork: "ethereum"}
	if err := NewMerchantRepo(testPool).SaveSettings(ctx, repository.NoTX, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	plan, err := model.NewPlan("", m.ID, "Pro", slug, decimal.RequireFromString("100.00"), model.BillingMonthly, "usdc", "ethereum")
	if err != nil {
		t.Fatalf("new plan: %v", err)
	}
	if err := NewPlanRepo(testPool).Save(ctx, repository.NoTX, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}

	s, _ := model.NewSubscriber("", m.ID, "payer@"+slug+".test")
	s, err = NewSubscriberRepo(testPool).Upsert(ctx, repository.NoTX, s)
	if err != nil {
		t.Fatalf("upsert subscriber: %v", err)
	}
	sub, _ := model.NewSubscription("", s.ID, plan.ID)
	sub, err = NewSubscriptionRepo(testPool).Upsert(ctx, repository.NoTX, sub)
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	return fixture{merchant: m, plan: plan, subscriber: s, sub: sub}
}

func seedInvoice(t *testing.T, f fixture, shiftID string) *model.Invoice {
	t.Helper()
	ctx := context.Background()
	repo := NewInvoiceRepo(testPool)

	inv, err := model.NewDraftInvoice(f.sub, f.plan, "btc", "bitcoin", time.Now())
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	if err := repo.Save(ctx, repository.NoTX, inv); err != nil {
		t.Fatalf("save invoice: %v", err)
	}
	if shiftID == "" {
		return inv
	}
	if err := inv.AttachShift(model.ShiftDescriptor{ID: shiftID, DepositAddress: "bc1qdeposit", DepositMin: "0.001", DepositMax: "1"}); err != nil {
		t.Fatalf("attach shift: %v", err)
	}
	if ok, err := repo.AttachShift(ctx, repository.NoTX, inv); err != nil || !ok {
		t.Fatalf("persist shift: ok=%v err=%v", ok, err)
	}
	return inv
}
