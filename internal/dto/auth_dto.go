package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// FederatedLoginRequest carries a provider identity token (Google ID token or
// Apple identity token). FullName and Email are hints Apple only sends once.
type FederatedLoginRequest struct {
	IdentityToken string `json:"identity_token"`
	FullName      string `json:"full_name,omitempty"`
	Email         string `json:"email,omitempty"`
}

type AuthResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type SignupResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type UserResponse struct {
	ID              uuid.UUID       `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	Role            models.Role     `json:"role"`
	IsActive        bool            `json:"is_active"`
	IsEmailVerified bool            `json:"is_email_verified"`
	Plan            models.PlanTier `json:"plan"`
	PremiumSince    *time.Time      `json:"premium_since,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		Plan:            u.Plan,
		PremiumSince:    u.PremiumSince,
		CreatedAt:       u.CreatedAt,
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// VerificationRequiredResponse is returned on login before the inbox check is done.
type VerificationRequiredResponse struct {
	Error             bool   `json:"error"`
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needs_verification"`
	Email             string `json:"email"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
