package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// Provider identifies a federated identity column.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

func (p Provider) column() (string, error) {
	switch p {
	case ProviderGoogle:
		return "google_id", nil
	case ProviderApple:
		return "apple_id", nil
	}
	return "", fmt.Errorf("unknown provider %q", p)
}

// PublicColumns is the default projection: everything but the password hash.
func PublicColumns(db *gorm.DB) *gorm.DB {
	return db.Omit("password_hash")
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = NormalizeEmail(user.Email)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.first(ctx, PublicColumns, "id = ?", id)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, PublicColumns, "email = ?", NormalizeEmail(email))
}

// FindCredentialsByEmail is the only lookup by email that loads the password hash.
func (s *UserStore) FindCredentialsByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, withPassword, "email = ?", NormalizeEmail(email))
}

func (s *UserStore) FindCredentialsByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.first(ctx, withPassword, "id = ?", id)
}

func (s *UserStore) FindByProvider(ctx context.Context, provider Provider, subject string) (*models.User, error) {
	col, err := provider.column()
	if err != nil {
		return nil, err
	}
	return s.first(ctx, PublicColumns, col+" = ?", subject)
}

// LinkProvider attaches a federated subject to an existing account.
func (s *UserStore) LinkProvider(ctx context.Context, id uuid.UUID, provider Provider, subject string) error {
	col, err := provider.column()
	if err != nil {
		return err
	}
	return s.update(ctx, id, map[string]interface{}{col: subject})
}

func (s *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email = ?", NormalizeEmail(email))
}

func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "username = ?", username)
}

func (s *UserStore) AdminExists(ctx context.Context) (bool, error) {
	return s.exists(ctx, "role = ?", models.RoleAdmin)
}

func (s *UserStore) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	return s.update(ctx, id, map[string]interface{}{
		"email_verification_token":   token,
		"email_verification_expires": expires,
	})
}

// ConsumeVerificationToken flips an unverified account to verified. A token
// matches at most once; a second call returns ErrTokenInvalid.
func (s *UserStore) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}
	user, err := s.first(ctx, PublicColumns,
		"email_verification_token = ? AND email_verification_expires > ? AND is_email_verified = ?", token, now, false)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND email_verification_token = ?", user.ID, token).
		Updates(map[string]interface{}{
			"is_email_verified":          true,
			"email_verification_token":   nil,
			"email_verification_expires": nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to verify user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenInvalid
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpires = nil
	return user, nil
}

func (s *UserStore) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expires time.Time) error {
	return s.update(ctx, id, map[string]interface{}{
		"reset_password_token":   tokenHash,
		"reset_password_expires": expires,
	})
}

// ConsumeResetToken swaps in passwordHash for the account holding tokenHash
// and clears the reset fields so the token cannot be replayed.
func (s *UserStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*models.User, error) {
	user, err := s.first(ctx, PublicColumns,
		"reset_password_token = ? AND reset_password_expires > ?", tokenHash, now)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND reset_password_token = ?", user.ID, tokenHash).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"reset_password_token":   nil,
			"reset_password_expires": nil,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reset password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenInvalid
	}

	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil
	return user, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return s.update(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

// Update applies column updates and returns the fresh public record.
func (s *UserStore) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*models.User, error) {
	if len(updates) > 0 {
		if err := s.update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.FindByID(ctx, id)
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).Scopes(PublicColumns).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *UserStore) Count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&models.User{})
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ClearExpiredActionTokens drops verification and reset tokens that can no longer match.
func (s *UserStore) ClearExpiredActionTokens(ctx context.Context, now time.Time) (int64, error) {
	var cleared int64

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email_verification_expires IS NOT NULL AND email_verification_expires <= ?", now).
		Updates(map[string]interface{}{"email_verification_token": nil, "email_verification_expires": nil})
	if res.Error != nil {
		return 0, res.Error
	}
	cleared += res.RowsAffected

	res = s.db.WithContext(ctx).Model(&models.User{}).
		Where("reset_password_expires IS NOT NULL AND reset_password_expires <= ?", now).
		Updates(map[string]interface{}{"reset_password_token": nil, "reset_password_expires": nil})
	if res.Error != nil {
		return cleared, res.Error
	}
	return cleared + res.RowsAffected, nil
}

func withPassword(db *gorm.DB) *gorm.DB {
	return db
}

func (s *UserStore) first(ctx context.Context, scope func(*gorm.DB) *gorm.DB, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Scopes(scope).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	n, err := s.Count(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *UserStore) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if database.IsDuplicateKey(res.Error) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
