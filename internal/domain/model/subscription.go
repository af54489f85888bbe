package model

import (
	"time"

	"github.com/google/uuid"

	"swapscribe/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPastDue SubscriptionStatus = "past_due"
	SubscriptionStatusActive  SubscriptionStatus = "active"
)

// Subscription links a subscriber to a plan across billing cycles.
// CurrentPeriodEnd stays nil until the first invoice is paid.
type Subscription struct {
	ID               string
	SubscriberID     string
	PlanID           string
	Status           SubscriptionStatus
	CurrentPeriodEnd *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSubscription starts in past_due: access is granted only once a payment clears.
func NewSubscription(id, subscriberID, planID string) (*Subscription, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if subscriberID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Subscription{
		ID:           id,
		SubscriberID: subscriberID,
		PlanID:       planID,
		Status:       SubscriptionStatusPastDue,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// DueForRenewal reports whether an active subscription's period has elapsed at now.
func (s *Subscription) DueForRenewal(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(now)
}

func (s *Subscription) Activate(periodEnd time.Time) {
	s.Status = SubscriptionStatusActive
	s.CurrentPeriodEnd = &periodEnd
}
