package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

const forgotPasswordMessage = "If that email exists, a reset link has been sent"

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.authService.Signup(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "signup")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SignupResponse{
		Message: "User created! Please check your email to verify your account.",
		User:    dto.NewUserResponse(user),
	})
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	if _, err := h.authService.VerifyEmail(c.UserContext(), c.Params("token")); err != nil {
		if errors.Is(err, services.ErrInvalidActionToken) {
			return badRequest(c, "Invalid or expired verification token")
		}
		return respondError(c, err, "verify_email")
	}
	return c.JSON(dto.MessageResponse{Message: "Email verified successfully! You can now log in."})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.ResendVerification(c.UserContext(), req.Email); err != nil {
		return respondError(c, err, "resend_verification")
	}
	return c.JSON(dto.MessageResponse{Message: "Verification email resent. Please check your inbox."})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		if errors.Is(err, services.ErrEmailNotVerified) {
			return c.Status(fiber.StatusForbidden).JSON(dto.VerificationRequiredResponse{
				Error:             true,
				Message:           "Please verify your email before logging in",
				NeedsVerification: true,
				Email:             store.NormalizeEmail(req.Email),
			})
		}
		return respondError(c, err, "login")
	}
	return c.JSON(resp)
}

func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.AdminLogin(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "admin_login")
	}
	return c.JSON(resp)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.ForgotPassword(c.UserContext(), req.Email); err != nil {
		if errors.Is(err, services.ErrEmailRequired) {
			return respondError(c, err, "forgot_password")
		}
		// keep the response identical whether or not the account exists
		slog.Error("forgot password failed", "action", "forgot_password", "error", err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: forgotPasswordMessage})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidActionToken) {
			return badRequest(c, "Invalid or expired reset token")
		}
		return respondError(c, err, "reset_password")
	}
	return c.JSON(dto.MessageResponse{Message: "Password has been reset. You can now log in."})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.authService.ChangePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Current password is incorrect",
			})
		}
		return respondError(c, err, "change_password")
	}
	return c.JSON(dto.MessageResponse{Message: "Password changed successfully"})
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	return h.federatedLogin(c, store.ProviderGoogle)
}

func (h *AuthHandler) AppleLogin(c *fiber.Ctx) error {
	return h.federatedLogin(c, store.ProviderApple)
}

func (h *AuthHandler) federatedLogin(c *fiber.Ctx, provider store.Provider) error {
	var req dto.FederatedLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.IdentityToken == "" {
		return badRequest(c, "Identity token is required")
	}

	resp, err := h.authService.FederatedLogin(c.UserContext(), provider, &req)
	if err != nil {
		return respondError(c, err, string(provider)+"_login")
	}
	return c.JSON(resp)
}
