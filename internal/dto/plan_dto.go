package dto

import "github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"

type CreatePlanRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	BodyType    models.BodyType `json:"body_type"`
	Focus       string          `json:"focus"`
	Days        []string        `json:"days"`
	Tips        string          `json:"tips"`
	Icon        models.PlanIcon `json:"icon"`
}

type UpdatePlanRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	BodyType    *models.BodyType `json:"body_type"`
	Focus       *string          `json:"focus"`
	Days        *[]string        `json:"days"`
	Tips        *string          `json:"tips"`
	Icon        *models.PlanIcon `json:"icon"`
}

type PlanListResponse struct {
	Plans []models.Plan `json:"plans"`
	Count int           `json:"count"`
}

type NewsItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Source      string `json:"source"`
	Date        string `json:"date"`
}
