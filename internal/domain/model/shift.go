package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftStatus is the settlement provider's status vocabulary. Only the gateway
// adapter produces these values; everything else consumes them through Decide.
type ShiftStatus string

const (
	ShiftWaiting    ShiftStatus = "waiting"
	ShiftPending    ShiftStatus = "pending"
	ShiftProcessing ShiftStatus = "processing"
	ShiftReview     ShiftStatus = "review"
	ShiftSettling   ShiftStatus = "settling"
	ShiftSettled    ShiftStatus = "settled"
	ShiftRefund     ShiftStatus = "refund" // waiting for a refund address
	ShiftRefunding  ShiftStatus = "refunding"
	ShiftRefunded   ShiftStatus = "refunded"
	ShiftExpired    ShiftStatus = "expired"
)

// ShiftReport is a point-in-time status poll of one shift.
type ShiftReport struct {
	Status        ShiftStatus
	SettleAmount  *decimal.Decimal
	DepositAmount *decimal.Decimal
}

// ShiftDescriptor is what the provider returns when it accepts a conversion request.
type ShiftDescriptor struct {
	ID             string
	DepositAddress string
	DepositMemo    string
	DepositMin     string
	DepositMax     string
	ExpiresAt      time.Time
	Status         ShiftStatus
}
