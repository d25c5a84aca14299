package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
)

type PlanService struct {
	db *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

func (s *PlanService) List(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := s.db.WithContext(ctx).Order("body_type ASC").Order("created_at DESC").Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *PlanService) ListByBodyType(ctx context.Context, bodyType models.BodyType) ([]models.Plan, error) {
	if !bodyType.Valid() {
		return nil, ErrInvalidPlan
	}
	var plans []models.Plan
	err := s.db.WithContext(ctx).Where("body_type = ?", bodyType).Order("created_at DESC").Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *PlanService) Get(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	if err := s.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &plan, nil
}

func (s *PlanService) Create(ctx context.Context, adminID uuid.UUID, req *dto.CreatePlanRequest) (*models.Plan, error) {
	icon := req.Icon
	if icon == "" {
		icon = models.IconFitness
	}

	plan := models.Plan{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		BodyType:    req.BodyType,
		Focus:       strings.TrimSpace(req.Focus),
		Days:        datatypes.JSONSlice[string](req.Days),
		Tips:        strings.TrimSpace(req.Tips),
		Icon:        icon,
		CreatedBy:   &adminID,
	}
	if err := validatePlan(&plan); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return &plan, nil
}

func (s *PlanService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdatePlanRequest) (*models.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		plan.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		plan.Description = strings.TrimSpace(*req.Description)
	}
	if req.BodyType != nil {
		plan.BodyType = *req.BodyType
	}
	if req.Focus != nil {
		plan.Focus = strings.TrimSpace(*req.Focus)
	}
	if req.Days != nil {
		plan.Days = datatypes.JSONSlice[string](*req.Days)
	}
	if req.Tips != nil {
		plan.Tips = strings.TrimSpace(*req.Tips)
	}
	if req.Icon != nil {
		plan.Icon = *req.Icon
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Save(plan).Error; err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return plan, nil
}

func (s *PlanService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Plan{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete plan: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (s *PlanService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Plan{}).Count(&n).Error
	return n, err
}

func validatePlan(p *models.Plan) error {
	switch {
	case p.Title == "", p.Description == "", p.Focus == "", p.Tips == "":
		return fmt.Errorf("%w: title, description, focus and tips are required", ErrInvalidPlan)
	case !p.BodyType.Valid():
		return fmt.Errorf("%w: body_type must be Ectomorph, Mesomorph or Endomorph", ErrInvalidPlan)
	case !p.Icon.Valid():
		return fmt.Errorf("%w: unknown icon %q", ErrInvalidPlan, p.Icon)
	case len(p.Days) == 0:
		return fmt.Errorf("%w: at least one day is required", ErrInvalidPlan)
	}
	return nil
}
