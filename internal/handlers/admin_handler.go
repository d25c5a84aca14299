package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	resp, err := h.adminService.Dashboard(c.UserContext())
	if err != nil {
		return respondError(c, err, "admin_dashboard")
	}
	return c.JSON(resp)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	resp, err := h.adminService.ListUsers(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return respondError(c, err, "admin_list_users")
	}
	return c.JSON(resp)
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	user, err := h.adminService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "admin_get_user")
	}
	return c.JSON(dto.ProfileResponse{User: user})
}

func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.AdminCreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.adminService.CreateUser(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err, "admin_create_user")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SignupResponse{
		Message: "User created",
		User:    dto.NewUserResponse(user),
	})
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	var req dto.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.adminService.UpdateUser(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err, "admin_update_user")
	}
	return c.JSON(dto.ProfileResponse{Message: "User updated", User: user})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	actorID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	if err := h.adminService.DeleteUser(c.UserContext(), actorID, id); err != nil {
		return respondError(c, err, "admin_delete_user")
	}
	return c.JSON(dto.MessageResponse{Message: "User deleted"})
}
