package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	var req dto.CreatePaymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.paymentService.CreateIntent(c.UserContext(), userID, req.PlanID)
	if err != nil {
		return respondError(c, err, "create_payment_intent")
	}
	return c.JSON(resp)
}

func (h *PaymentHandler) Confirm(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.paymentService.Confirm(c.UserContext(), userID, req.PaymentIntentID)
	if err != nil {
		return respondError(c, err, "confirm_payment")
	}
	return c.JSON(dto.ConfirmPaymentResponse{
		Message: "Payment confirmed, plan upgraded",
		User:    dto.NewUserResponse(user),
	})
}
