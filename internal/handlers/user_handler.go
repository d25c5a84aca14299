package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	user, err := h.userService.Profile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "get_profile")
	}
	return c.JSON(dto.ProfileResponse{User: user})
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err, "update_profile")
	}
	return c.JSON(dto.ProfileResponse{Message: "Profile updated successfully", User: user})
}

func (h *UserHandler) GetPlan(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	resp, err := h.userService.PlanStatus(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "get_plan")
	}
	return c.JSON(resp)
}

func (h *UserHandler) Upgrade(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	var req dto.UpgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.userService.Upgrade(c.UserContext(), userID, req.Plan)
	if err != nil {
		return respondError(c, err, "upgrade")
	}
	return c.JSON(dto.UpgradeResponse{
		Message: "Successfully upgraded to " + string(req.Plan) + " plan",
		User:    dto.NewUserResponse(user),
	})
}

func (h *UserHandler) Stats(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	stats, err := h.userService.Stats(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err, "stats")
	}
	return c.JSON(stats)
}

func unauthorizedResponse(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
