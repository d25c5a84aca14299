package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
)

// UpdateProfileRequest is a partial update; nil fields are left alone.
type UpdateProfileRequest struct {
	FullName             *string   `json:"full_name"`
	Phone                *string   `json:"phone"`
	Bio                  *string   `json:"bio"`
	Location             *string   `json:"location"`
	BirthDate            *string   `json:"birth_date"`
	HeightCm             *float64  `json:"height_cm"`
	WeightKg             *float64  `json:"weight_kg"`
	FitnessLevel         *string   `json:"fitness_level"`
	Goals                *[]string `json:"goals"`
	NotificationsEnabled *bool     `json:"notifications_enabled"`
	Privacy              *string   `json:"privacy"`
}

type ProfileResponse struct {
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

type PlanStatusResponse struct {
	Plan            models.PlanTier `json:"plan"`
	PremiumSince    *time.Time      `json:"premium_since"`
	IsEmailVerified bool            `json:"is_email_verified"`
}

type UpgradeRequest struct {
	Plan models.PlanTier `json:"plan"`
}

type UpgradeResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type StatsResponse struct {
	TotalWorkouts  int `json:"total_workouts"`
	TotalMinutes   int `json:"total_minutes"`
	CurrentStreak  int `json:"current_streak"`
	LongestStreak  int `json:"longest_streak"`
	CaloriesBurned int `json:"calories_burned"`
}
