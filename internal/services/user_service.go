package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

var privacyLevels = map[string]bool{"public": true, "private": true, "friends": true}

type UserService struct {
	users  *store.UserStore
	events events.Publisher
	now    func() time.Time
}

func NewUserService(users *store.UserStore, publisher events.Publisher) *UserService {
	return &UserService{
		users:  users,
		events: publisher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	updates := make(map[string]interface{})

	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			updates["birth_date"] = nil
		} else {
			d, err := parseDate(*req.BirthDate)
			if err != nil || d.After(s.now()) {
				return nil, ErrInvalidProfile
			}
			updates["birth_date"] = d
		}
	}
	if req.HeightCm != nil {
		if *req.HeightCm <= 0 {
			return nil, ErrInvalidProfile
		}
		updates["height_cm"] = *req.HeightCm
	}
	if req.WeightKg != nil {
		if *req.WeightKg <= 0 {
			return nil, ErrInvalidProfile
		}
		updates["weight_kg"] = *req.WeightKg
	}
	if req.FitnessLevel != nil {
		updates["fitness_level"] = strings.TrimSpace(*req.FitnessLevel)
	}
	if req.Goals != nil {
		updates["goals"] = datatypes.JSONSlice[string](*req.Goals)
	}
	if req.NotificationsEnabled != nil {
		updates["notifications_enabled"] = *req.NotificationsEnabled
	}
	if req.Privacy != nil {
		if !privacyLevels[*req.Privacy] {
			return nil, ErrInvalidProfile
		}
		updates["privacy"] = *req.Privacy
	}

	user, err := s.users.Update(ctx, id, updates)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) PlanStatus(ctx context.Context, id uuid.UUID) (*dto.PlanStatusResponse, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.PlanStatusResponse{
		Plan:            user.Plan,
		PremiumSince:    user.PremiumSince,
		IsEmailVerified: user.IsEmailVerified,
	}, nil
}

func (s *UserService) Upgrade(ctx context.Context, id uuid.UUID, tier models.PlanTier) (*models.User, error) {
	if !tier.Paid() {
		return nil, ErrInvalidPlanTier
	}
	return applyTier(ctx, s.users, s.events, id, tier, s.now())
}

// Stats has no workout tracking behind it yet and reports zeros.
func (s *UserService) Stats(ctx context.Context, id uuid.UUID) (*dto.StatsResponse, error) {
	if _, err := s.Profile(ctx, id); err != nil {
		return nil, err
	}
	return &dto.StatsResponse{}, nil
}

func applyTier(ctx context.Context, users *store.UserStore, publisher events.Publisher, id uuid.UUID, tier models.PlanTier, now time.Time) (*models.User, error) {
	user, err := setTier(ctx, users, id, tier, now)
	if err != nil {
		return nil, err
	}
	emitUpgrade(ctx, publisher, id, tier, now)
	return user, nil
}

func setTier(ctx context.Context, users *store.UserStore, id uuid.UUID, tier models.PlanTier, now time.Time) (*models.User, error) {
	user, err := users.Update(ctx, id, map[string]interface{}{
		"plan":          tier,
		"premium_since": now,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func emitUpgrade(ctx context.Context, publisher events.Publisher, id uuid.UUID, tier models.PlanTier, now time.Time) {
	events.Emit(ctx, publisher, events.Event{
		Type:   events.PlanUpgraded,
		UserID: id,
		At:     now,
		Data:   map[string]string{"plan": string(tier)},
	})
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
