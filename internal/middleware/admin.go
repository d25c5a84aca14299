package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

// AdminRequired verifies the bearer token itself, then reloads the account so
// a role change or deactivation takes effect before the token expires.
func AdminRequired(users *store.UserStore, issuer *auth.SessionIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			return unauthorized(c, msgTokenRequired)
		}

		claims, err := issuer.Parse(raw)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return unauthorized(c, msgSessionExpired)
			}
			return unauthorized(c, msgInvalidToken)
		}

		// a deleted account reaches Authorize as nil and is refused with 403
		user, err := users.FindByID(c.UserContext(), claims.UserID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("admin gate user lookup failed", "user_id", claims.UserID.String(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}

		if err := services.Authorize(user, models.RoleAdmin); err != nil {
			message := "Admin privileges required"
			if errors.Is(err, services.ErrAccountDeactivated) {
				message = "Admin account deactivated"
			}
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: message,
			})
		}

		c.Locals("user", &jwt.Token{Claims: claims, Valid: true})
		return c.Next()
	}
}
