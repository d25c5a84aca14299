package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/auth"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AdminService struct {
	users  *store.UserStore
	plans  *PlanService
	hasher *auth.PasswordHasher
}

func NewAdminService(users *store.UserStore, plans *PlanService, hasher *auth.PasswordHasher) *AdminService {
	return &AdminService{users: users, plans: plans, hasher: hasher}
}

func (s *AdminService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	var (
		resp dto.DashboardResponse
		err  error
	)
	if resp.Admins, err = s.users.Count(ctx, "role = ?", models.RoleAdmin); err != nil {
		return nil, err
	}
	if resp.Users, err = s.users.Count(ctx, "role <> ?", models.RoleAdmin); err != nil {
		return nil, err
	}
	if resp.VerifiedUsers, err = s.users.Count(ctx, "is_email_verified = ?", true); err != nil {
		return nil, err
	}
	if resp.PremiumUsers, err = s.users.Count(ctx, "plan <> ?", models.TierFree); err != nil {
		return nil, err
	}
	if resp.Plans, err = s.plans.Count(ctx); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *AdminService) ListUsers(ctx context.Context, page, limit int) (*dto.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	users, total, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	return &dto.UserListResponse{Users: out, Total: total, Page: page, Limit: limit}, nil
}

func (s *AdminService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// CreateUser adds an account on behalf of an admin. It is created verified.
func (s *AdminService) CreateUser(ctx context.Context, req *dto.AdminCreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := store.NormalizeEmail(req.Email)
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	switch {
	case username == "":
		return nil, ErrUsernameRequired
	case !ValidEmail(email):
		return nil, ErrInvalidEmail
	case !role.Valid():
		return nil, ErrInvalidRole
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:             username,
		Email:                email,
		PasswordHash:         hash,
		Role:                 role,
		IsActive:             true,
		NotificationsEnabled: true,
		Privacy:              "public",
		Plan:                 models.TierFree,
		IsEmailVerified:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, s.duplicateField(ctx, email)
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, id uuid.UUID, req *dto.AdminUpdateUserRequest) (*models.User, error) {
	updates := make(map[string]interface{})
	var email string

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, ErrUsernameRequired
		}
		updates["username"] = username
	}
	if req.Email != nil {
		email = store.NormalizeEmail(*req.Email)
		if !ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		updates["email"] = email
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, ErrInvalidRole
		}
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Plan != nil {
		if !req.Plan.Valid() {
			return nil, ErrInvalidPlanTier
		}
		updates["plan"] = *req.Plan
		if *req.Plan == models.TierFree {
			updates["premium_since"] = nil
		}
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}

	user, err := s.users.Update(ctx, id, updates)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, store.ErrDuplicate):
		return nil, s.duplicateField(ctx, email)
	}
	return user, err
}

func (s *AdminService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return ErrCannotDeleteSelf
	}
	err := s.users.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *AdminService) duplicateField(ctx context.Context, email string) error {
	if email != "" {
		if taken, _ := s.users.EmailExists(ctx, email); taken {
			return ErrEmailTaken
		}
	}
	return ErrUsernameTaken
}
