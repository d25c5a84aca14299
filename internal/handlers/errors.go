package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/payments"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrUsernameRequired, fiber.StatusBadRequest},
	{services.ErrEmailRequired, fiber.StatusBadRequest},
	{services.ErrInvalidEmail, fiber.StatusBadRequest},
	{services.ErrMissingCredentials, fiber.StatusBadRequest},
	{services.ErrPasswordsRequired, fiber.StatusBadRequest},
	{services.ErrAlreadyVerified, fiber.StatusBadRequest},
	{services.ErrInvalidActionToken, fiber.StatusBadRequest},
	{services.ErrInvalidPlanTier, fiber.StatusBadRequest},
	{services.ErrInvalidRole, fiber.StatusBadRequest},
	{services.ErrInvalidPlan, fiber.StatusBadRequest},
	{services.ErrInvalidProfile, fiber.StatusBadRequest},
	{services.ErrCannotDeleteSelf, fiber.StatusBadRequest},
	{services.ErrPaymentNotComplete, fiber.StatusBadRequest},
	{auth.ErrPasswordTooShort, fiber.StatusBadRequest},
	{auth.ErrPasswordTooLong, fiber.StatusBadRequest},

	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{identity.ErrInvalidToken, fiber.StatusUnauthorized},

	{services.ErrEmailNotVerified, fiber.StatusForbidden},
	{services.ErrAccountDeactivated, fiber.StatusForbidden},
	{services.ErrNotAdmin, fiber.StatusForbidden},

	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrPlanNotFound, fiber.StatusNotFound},
	{services.ErrPaymentNotFound, fiber.StatusNotFound},

	{services.ErrEmailTaken, fiber.StatusConflict},
	{services.ErrUsernameTaken, fiber.StatusConflict},
	{services.ErrLinkRefused, fiber.StatusConflict},

	{services.ErrMailFailed, fiber.StatusServiceUnavailable},
	{payments.ErrNotConfigured, fiber.StatusServiceUnavailable},
	{identity.ErrNotConfigured, fiber.StatusServiceUnavailable},
}

// statusFor maps a service error to its HTTP status; unknown errors are 500.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error body. 5xx details are logged, never returned.
func respondError(c *fiber.Ctx, err error, action string) error {
	status := statusFor(err)
	message := err.Error()

	switch {
	case errors.Is(err, identity.ErrInvalidToken):
		message = "Invalid identity token"
	case errors.Is(err, services.ErrMailFailed):
		message = "Failed to send email, please try again later"
	case status >= fiber.StatusInternalServerError && status != fiber.StatusServiceUnavailable:
		slog.Error("request failed", "action", action, "path", c.Path(), "error", err)
		message = "Internal server error"
	}

	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}
