package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSubscriptionStatus = errors.New("subscription status is not valid")

// SubscriptionStatus represents the status of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

var validSubscriptionStatuses = map[SubscriptionStatus]struct{}{
	SubscriptionStatusActive:    {},
	SubscriptionStatusPending:   {},
	SubscriptionStatusCancelled: {},
	SubscriptionStatusExpired:   {},
}

// Validate validates the given subscription status.
// Returns an error if the status is invalid.
func (s SubscriptionStatus) Validate() error {
	if _, ok := validSubscriptionStatuses[s]; !ok {
		return ErrInvalidSubscriptionStatus
	}

	return nil
}

// Subscription installs a catalog application for an organization,
// unique per (organization, application) pair.
type Subscription struct {
	AutoTimeModel

	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_org_app"`
	ApplicationID  uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_org_app"`
	Status         SubscriptionStatus `gorm:"type:varchar(50);not null"`
	StartsAt       time.Time          `gorm:"not null"`
	EndsAt         *time.Time
}

// TableName returns the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) SetID(id uuid.UUID) {
	s.ID = id
}

// Lapsed reports whether the subscription window has closed at the given time.
func (s *Subscription) Lapsed(now time.Time) bool {
	return s.EndsAt != nil && s.EndsAt.Before(now)
}
