package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnderpaymentWarning is surfaced when a shift settles below the accepted minimum.
const UnderpaymentWarning = "Payment detected but insufficient amount. Please contact support."

// DefaultSlippageTolerance is the shortfall between amount due and settled amount
// still counted as full payment.
var DefaultSlippageTolerance = decimal.NewFromFloat(0.02)

// Policy parameterises the transition function.
type Policy struct {
	SlippageTolerance decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{SlippageTolerance: DefaultSlippageTolerance}
}

// MinimumSettle is the smallest settled amount accepted for amountDue.
func (p Policy) MinimumSettle(amountDue decimal.Decimal) decimal.Decimal {
	return amountDue.Mul(decimal.NewFromInt(1).Sub(p.SlippageTolerance))
}

// shiftClass groups provider statuses by their effect on an invoice.
type shiftClass int

const (
	classUnknown shiftClass = iota
	classAwaitingDeposit
	classInFlight
	classSettled
	classExpired
	classRefundPending
	classRefunded
)

func classify(s ShiftStatus) shiftClass {
	switch s {
	case ShiftWaiting:
		return classAwaitingDeposit
	case ShiftPending, ShiftProcessing, ShiftReview, ShiftSettling:
		return classInFlight
	case ShiftSettled:
		return classSettled
	case ShiftExpired:
		return classExpired
	case ShiftRefund:
		return classRefundPending
	case ShiftRefunding, ShiftRefunded:
		return classRefunded
	default:
		return classUnknown
	}
}

// Outcome is the result of applying one provider report to an invoice.
// It carries no I/O; the caller persists it.
type Outcome struct {
	From                 InvoiceStatus
	To                   InvoiceStatus
	PaidAt               *time.Time
	ActivateSubscription bool
	PeriodEnd            *time.Time
	SettleAmount         *decimal.Decimal
	Warning              string
	// ActionRequired is set to ShiftRefund when the payer must supply a refund address.
	ActionRequired ShiftStatus
}

func (o Outcome) StatusChanged() bool { return o.From != o.To }

// NeedsPersist reports whether the outcome must be written back.
func (o Outcome) NeedsPersist() bool { return o.StatusChanged() || o.Warning != "" }

// Decide computes the next invoice state for a provider report.
// Terminal invoices never move. Unrecognised provider statuses fall back to
// pending_payment so a new provider value cannot strand or finalise an invoice.
func Decide(inv *Invoice, interval BillingInterval, report ShiftReport, policy Policy, now time.Time) Outcome {
	out := Outcome{From: inv.Status, To: inv.Status}
	if inv.Status.IsTerminal() {
		return out
	}

	switch classify(report.Status) {
	case classAwaitingDeposit:
		out.To = InvoiceStatusPendingPayment

	case classInFlight:
		out.To = InvoiceStatusProcessing

	case classSettled:
		settled := decimal.Zero
		if report.SettleAmount != nil {
			settled = *report.SettleAmount
		}
		out.SettleAmount = &settled
		if settled.GreaterThanOrEqual(policy.MinimumSettle(inv.AmountUSD)) {
			paidAt := now
			periodEnd := interval.Next(now)
			out.To = InvoiceStatusPaid
			out.PaidAt = &paidAt
			out.ActivateSubscription = true
			out.PeriodEnd = &periodEnd
		} else {
			out.Warning = UnderpaymentWarning
		}

	case classExpired:
		out.To = InvoiceStatusExpired

	case classRefundPending:
		out.ActionRequired = ShiftRefund

	case classRefunded:
		out.To = InvoiceStatusFailed

	case classUnknown:
		out.To = InvoiceStatusPendingPayment
	}
	return out
}
