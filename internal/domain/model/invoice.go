package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"swapscribe/internal/domain"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft          InvoiceStatus = "draft"           // created, no shift yet
	InvoiceStatusPendingPayment InvoiceStatus = "pending_payment" // shift open, waiting for deposit
	InvoiceStatusProcessing     InvoiceStatus = "processing"      // deposit seen, settlement in flight
	InvoiceStatusPaid           InvoiceStatus = "paid"
	InvoiceStatusExpired        InvoiceStatus = "expired"
	InvoiceStatusFailed         InvoiceStatus = "failed"
)

// IsTerminal reports whether no further transition may leave this status.
func (s InvoiceStatus) IsTerminal() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusExpired, InvoiceStatusFailed:
		return true
	}
	return false
}

// Polling lists the statuses the batch sweep revisits.
var Polling = []InvoiceStatus{InvoiceStatusPendingPayment, InvoiceStatusProcessing}

// Invoice is one payment attempt for a subscription. AmountUSD and ShiftID are
// write-once: the amount is fixed at creation, the shift id once the provider accepts.
type Invoice struct {
	ID             string
	SubscriptionID string
	AmountUSD      decimal.Decimal
	DepositCoin    string
	DepositNetwork string
	SettleCoin     string
	SettleNetwork  string
	ShiftID        *string
	DepositAddress *string
	DepositMemo    *string
	DepositMin     *string
	DepositMax     *string
	ExpiresAt      *time.Time
	DueAt          time.Time
	Status         InvoiceStatus
	PaidAt         *time.Time
	SettleAmount   *decimal.Decimal // last amount the provider reported as settled
	Warning        *string          // last non-fatal reconciliation warning
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewInvoiceID returns a time-sortable invoice identifier.
func NewInvoiceID() string { return strings.ToLower(ulid.Make().String()) }

// NewDraftInvoice prices a new invoice at the plan's current price. Deposit asset
// may be empty for renewal drafts; it is chosen when payment starts.
func NewDraftInvoice(sub *Subscription, plan *Plan, depositCoin, depositNetwork string, dueAt time.Time) (*Invoice, error) {
	if sub == nil || plan.IsZero() || !plan.PriceUSD.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	return &Invoice{
		ID:             NewInvoiceID(),
		SubscriptionID: sub.ID,
		AmountUSD:      plan.PriceUSD,
		DepositCoin:    strings.ToLower(depositCoin),
		DepositNetwork: strings.ToLower(depositNetwork),
		SettleCoin:     plan.SettleCoin,
		SettleNetwork:  plan.SettleNetwork,
		DueAt:          dueAt,
		Status:         InvoiceStatusDraft,
		CreatedAt:      dueAt,
		UpdatedAt:      dueAt,
	}, nil
}

func (inv *Invoice) HasShift() bool { return inv.ShiftID != nil && *inv.ShiftID != "" }

// AttachShift records the provider's deposit instructions and opens the invoice for payment.
func (inv *Invoice) AttachShift(s ShiftDescriptor) error {
	if inv.HasShift() {
		return domain.ErrInvalidArgument
	}
	if inv.Status != InvoiceStatusDraft {
		return domain.ErrInvoiceNotDraft
	}
	id := s.ID
	inv.ShiftID = &id
	inv.DepositAddress = strPtr(s.DepositAddress)
	inv.DepositMemo = strPtr(s.DepositMemo)
	inv.DepositMin = strPtr(s.DepositMin)
	inv.DepositMax = strPtr(s.DepositMax)
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		inv.ExpiresAt = &exp
	}
	inv.Status = InvoiceStatusPendingPayment
	return nil
}

// Apply copies a transition outcome onto the invoice.
func (inv *Invoice) Apply(o Outcome) {
	inv.Status = o.To
	if o.PaidAt != nil {
		inv.PaidAt = o.PaidAt
	}
	if o.SettleAmount != nil {
		inv.SettleAmount = o.SettleAmount
	}
	if o.Warning != "" {
		w := o.Warning
		inv.Warning = &w
	}
}

// InvoiceAggregate is an invoice loaded together with the subscription and plan
// that govern its transitions.
type InvoiceAggregate struct {
	Invoice      *Invoice
	Subscription *Subscription
	Plan         *Plan
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
