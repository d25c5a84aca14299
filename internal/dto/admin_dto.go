package dto

import "github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"

type DashboardResponse struct {
	Admins        int64 `json:"admins"`
	Users         int64 `json:"users"`
	Plans         int64 `json:"plans"`
	VerifiedUsers int64 `json:"verified_users"`
	PremiumUsers  int64 `json:"premium_users"`
}

type AdminCreateUserRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type AdminUpdateUserRequest struct {
	Username *string          `json:"username"`
	Email    *string          `json:"email"`
	Role     *models.Role     `json:"role"`
	IsActive *bool            `json:"is_active"`
	Plan     *models.PlanTier `json:"plan"`
	Password *string          `json:"password"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
