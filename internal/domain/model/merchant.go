package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"swapscribe/internal/domain"
)

// Merchant owns plans and receives settlements. Profile management lives elsewhere;
// this service only reads it.
type Merchant struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// MerchantSettings holds the payout destination used when opening shifts.
type MerchantSettings struct {
	MerchantID    string
	DisplayName   string
	SettleAddress string
	SettleCoin    string
	SettleNetwork string
}

func (s *MerchantSettings) HasPayoutAddress() bool {
	return s != nil && strings.TrimSpace(s.SettleAddress) != ""
}

// Subscriber is a payer identified by email, unique per merchant.
type Subscriber struct {
	ID         string
	MerchantID string
	Email      string
	CreatedAt  time.Time
}

func NewSubscriber(id, merchantID, email string) (*Subscriber, error) {
	if id == "" {
		id = uuid.NewString()
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if merchantID == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscriber{
		ID:         id,
		MerchantID: merchantID,
		Email:      email,
		CreatedAt:  time.Now(),
	}, nil
}
