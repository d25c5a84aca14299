package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment tracks one processor payment intent for a plan upgrade.
type Payment struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	IntentID    string        `gorm:"size:255;not null;uniqueIndex" json:"intent_id"`
	Plan        PlanTier      `gorm:"size:20;not null" json:"plan"`
	AmountCents int64         `gorm:"not null" json:"amount_cents"`
	Currency    string        `gorm:"size:10;not null" json:"currency"`
	Status      PaymentStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	User        User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
