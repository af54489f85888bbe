package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"swapscribe/internal/domain/model"
	"swapscribe/internal/domain/ports/adapter"
)

var _ adapter.SettlementGateway = (*FakeGateway)(nil)

// FakeGateway is an in-memory provider for development mode and tests. Shifts start
// in waiting; SetReport scripts what the next status poll returns.
type FakeGateway struct {
	mu      sync.Mutex
	seq     int
	reports map[string]model.ShiftReport
	refunds map[string]string
	denied  map[string]bool
	now     func() time.Time
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		reports: make(map[string]model.ShiftReport),
		refunds: make(map[string]string),
		denied:  make(map[string]bool),
		now:     time.Now,
	}
}

func (f *FakeGateway) SupportedAssets(ctx context.Context) ([]adapter.AssetDescriptor, error) {
	return []adapter.AssetDescriptor{
		{Coin: "btc", Name: "Bitcoin", Networks: []string{"bitcoin"}},
		{Coin: "eth", Name: "Ethereum", Networks: []string{"ethereum", "arbitrum"}},
		{Coin: "usdc", Name: "USD Coin", Networks: []string{"ethereum", "solana"}},
		{Coin: "xrp", Name: "XRP", Networks: []string{"ripple"}, HasMemo: true},
	}, nil
}

// Deny makes CheckPermission refuse origin.
func (f *FakeGateway) Deny(origin string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.denied[origin] = true
}

func (f *FakeGateway) CheckPermission(ctx context.Context, origin string) (adapter.Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return adapter.Permission{Allowed: !f.denied[origin]}, nil
}

func (f *FakeGateway) CreateShift(ctx context.Context, req adapter.ShiftRequest) (model.ShiftDescriptor, error) {
	if req.SettleAddress == "" || req.DepositAsset == "" {
		return model.ShiftDescriptor{}, &adapter.ProviderError{Kind: adapter.ProviderInvalidRequest, StatusCode: 400, Message: "missing deposit coin or settle address"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("fake%06d", f.seq)
	f.reports[id] = model.ShiftReport{Status: model.ShiftWaiting}

	d := model.ShiftDescriptor{
		ID:             id,
		DepositAddress: fmt.Sprintf("%s-deposit-%s", strings.ToLower(req.DepositAsset), id),
		DepositMin:     "0.0001",
		DepositMax:     "10",
		ExpiresAt:      f.now().Add(7 * 24 * time.Hour),
		Status:         model.ShiftWaiting,
	}
	if strings.EqualFold(req.DepositAsset, "xrp") {
		d.DepositMemo = fmt.Sprintf("%d", 100000+f.seq)
	}
	return d, nil
}

// SetReport scripts the status poll result for a shift.
func (f *FakeGateway) SetReport(shiftID string, status model.ShiftStatus, settleAmount string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := model.ShiftReport{Status: status}
	if settleAmount != "" {
		d := decimal.RequireFromString(settleAmount)
		r.SettleAmount = &d
	}
	f.reports[shiftID] = r
}

func (f *FakeGateway) ShiftStatus(ctx context.Context, shiftID string) (model.ShiftReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[shiftID]
	if !ok {
		return model.ShiftReport{}, &adapter.ProviderError{Kind: adapter.ProviderInvalidRequest, StatusCode: 400, Message: "unknown shift"}
	}
	return r, nil
}

func (f *FakeGateway) SetRefundAddress(ctx context.Context, shiftID, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[shiftID]; !ok {
		return &adapter.ProviderError{Kind: adapter.ProviderInvalidRequest, StatusCode: 400, Message: "unknown shift"}
	}
	f.refunds[shiftID] = address
	return nil
}

// RefundAddress returns what SetRefundAddress stored for shiftID.
func (f *FakeGateway) RefundAddress(shiftID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refunds[shiftID]
}
