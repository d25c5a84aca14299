package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// PlanTier is the paid tier of an account, not a workout Plan.
type PlanTier string

const (
	TierFree     PlanTier = "free"
	TierMonthly  PlanTier = "monthly"
	TierYearly   PlanTier = "yearly"
	TierLifetime PlanTier = "lifetime"
)

func (t PlanTier) Valid() bool {
	switch t {
	case TierFree, TierMonthly, TierYearly, TierLifetime:
		return true
	}
	return false
}

// Paid reports whether the tier can be bought.
func (t PlanTier) Paid() bool {
	return t.Valid() && t != TierFree
}

// User is the single account model for members and admins.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:20;not null;default:'user'" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`

	Phone                string                      `gorm:"size:50" json:"phone,omitempty"`
	FullName             string                      `gorm:"size:255" json:"full_name,omitempty"`
	Bio                  string                      `gorm:"type:text" json:"bio,omitempty"`
	Location             string                      `gorm:"size:255" json:"location,omitempty"`
	BirthDate            *time.Time                  `json:"birth_date,omitempty"`
	HeightCm             *float64                    `json:"height_cm,omitempty"`
	WeightKg             *float64                    `json:"weight_kg,omitempty"`
	FitnessLevel         string                      `gorm:"size:50" json:"fitness_level,omitempty"`
	Goals                datatypes.JSONSlice[string] `json:"goals,omitempty"`
	NotificationsEnabled bool                        `gorm:"not null" json:"notifications_enabled"`
	Privacy              string                      `gorm:"size:20;not null;default:'public'" json:"privacy"`

	Plan         PlanTier   `gorm:"size:20;not null;default:'free'" json:"plan"`
	PremiumSince *time.Time `json:"premium_since,omitempty"`

	IsEmailVerified          bool       `gorm:"not null" json:"is_email_verified"`
	EmailVerificationToken   *string    `gorm:"size:64;index" json:"-"`
	EmailVerificationExpires *time.Time `json:"-"`
	ResetPasswordToken       *string    `gorm:"size:64;index" json:"-"`
	ResetPasswordExpires     *time.Time `json:"-"`

	GoogleID *string `gorm:"size:255;uniqueIndex" json:"-"`
	AppleID  *string `gorm:"size:255;uniqueIndex" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VerificationPending reports whether the account still waits on its inbox check.
func (u *User) VerificationPending() bool {
	return !u.IsEmailVerified
}
