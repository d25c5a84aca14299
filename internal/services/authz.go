package services

import "github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"

// Authorize is the single role check. Admin-only operations require
// RoleAdmin; any operation requires an active account.
func Authorize(user *models.User, required models.Role) error {
	if user == nil {
		return ErrUserNotFound
	}
	if required == models.RoleAdmin && user.Role != models.RoleAdmin {
		return ErrNotAdmin
	}
	if !user.IsActive {
		return ErrAccountDeactivated
	}
	return nil
}
