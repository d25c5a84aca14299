package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/services"
)

type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

func (h *PlanHandler) List(c *fiber.Ctx) error {
	plans, err := h.planService.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "list_plans")
	}
	return c.JSON(dto.PlanListResponse{Plans: plans, Count: len(plans)})
}

func (h *PlanHandler) ListByBodyType(c *fiber.Ctx) error {
	plans, err := h.planService.ListByBodyType(c.UserContext(), models.BodyType(c.Params("bodyType")))
	if err != nil {
		return respondError(c, err, "list_plans_by_body_type")
	}
	return c.JSON(dto.PlanListResponse{Plans: plans, Count: len(plans)})
}

func (h *PlanHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid plan ID")
	}

	plan, err := h.planService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err, "get_plan")
	}
	return c.JSON(plan)
}

func (h *PlanHandler) Create(c *fiber.Ctx) error {
	adminID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorizedResponse(c)
	}

	var req dto.CreatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.planService.Create(c.UserContext(), adminID, &req)
	if err != nil {
		return respondError(c, err, "create_plan")
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (h *PlanHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid plan ID")
	}

	var req dto.UpdatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	plan, err := h.planService.Update(c.UserContext(), id, &req)
	if err != nil {
		return respondError(c, err, "update_plan")
	}
	return c.JSON(plan)
}

func (h *PlanHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid plan ID")
	}

	if err := h.planService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err, "delete_plan")
	}
	return c.JSON(dto.MessageResponse{Message: "Plan deleted successfully"})
}
