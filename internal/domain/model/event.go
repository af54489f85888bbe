package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceEventType string

const (
	EventInvoicePaid       InvoiceEventType = "invoice.paid"
	EventInvoiceExpired    InvoiceEventType = "invoice.expired"
	EventInvoiceFailed     InvoiceEventType = "invoice.failed"
	EventInvoiceRenewalDue InvoiceEventType = "invoice.renewal_due"
)

// InvoiceEvent is published after a lifecycle change has been persisted.
type InvoiceEvent struct {
	Type           InvoiceEventType `json:"type"`
	InvoiceID      string           `json:"invoiceId"`
	SubscriptionID string           `json:"subscriptionId"`
	Status         InvoiceStatus    `json:"status"`
	AmountDue      decimal.Decimal  `json:"amountDue"`
	OccurredAt     time.Time        `json:"occurredAt"`
}

// EventFor maps a terminal status change to its event type; ok is false when
// the status is not announced.
func EventFor(status InvoiceStatus) (InvoiceEventType, bool) {
	switch status {
	case InvoiceStatusPaid:
		return EventInvoicePaid, true
	case InvoiceStatusExpired:
		return EventInvoiceExpired, true
	case InvoiceStatusFailed:
		return EventInvoiceFailed, true
	}
	return "", false
}

func NewInvoiceEvent(t InvoiceEventType, inv *Invoice, at time.Time) InvoiceEvent {
	return InvoiceEvent{
		Type:           t,
		InvoiceID:      inv.ID,
		SubscriptionID: inv.SubscriptionID,
		Status:         inv.Status,
		AmountDue:      inv.AmountUSD,
		OccurredAt:     at,
	}
}
