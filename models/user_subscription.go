package models

import (
	"time"
)

type SubscriptionStatus string

const (
	SubscriptionActive          SubscriptionStatus = "active"
	SubscriptionCancelling      SubscriptionStatus = "cancelling"
	SubscriptionExpired         SubscriptionStatus = "expired"
	SubscriptionCancelled       SubscriptionStatus = "cancelled"
	SubscriptionPaymentFailed   SubscriptionStatus = "payment_failed"
	SubscriptionPaymentRetrying SubscriptionStatus = "payment_retrying"
)

// UserSubscription tracks a user's current plan coverage. One row per user;
// only the webhook reconciliation handlers and the cancel/reactivate
// endpoints mutate it.
type UserSubscription struct {
	ID        string             `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID    string             `json:"userId" gorm:"type:uuid;uniqueIndex;not null"`
	PlanID    string             `json:"planId" gorm:"type:uuid;not null"`
	StartsAt  time.Time          `json:"startsAt"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Status    SubscriptionStatus `json:"status" gorm:"type:varchar(30);default:'active'"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// HasCoverage reports whether the subscription still grants access. Both
// active and cancelling keep access until the period end.
func (s *UserSubscription) HasCoverage() bool {
	return s.Status == SubscriptionActive || s.Status == SubscriptionCancelling
}

// IsExpired reports whether the coverage window has lapsed at the given time.
func (s *UserSubscription) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// CanReactivate reports whether auto-renewal may be turned back on.
// Reactivation is only allowed from the cancelling state; terminal states
// require a fresh checkout.
func (s *UserSubscription) CanReactivate() bool {
	return s.Status == SubscriptionCancelling
}
