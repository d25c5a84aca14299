package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/testutil"
)

func newUser(username, email string) *models.User {
	return &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$placeholder",
		Role:         models.RoleUser,
		IsActive:     true,
		Privacy:      "public",
		Plan:         models.TierFree,
	}
}

func TestUserStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewUserStore(db)
	ctx := context.Background()

	u := newUser("alice", "  Alice@Example.COM ")
	require.NoError(t, s.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)

	t.Run("duplicate email", func(t *testing.T) {
		err := s.Create(ctx, newUser("alice2", "alice@example.com"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := s.Create(ctx, newUser("alice", "other@example.com"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("exists checks", func(t *testing.T) {
		ok, err := s.EmailExists(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.UsernameExists(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestUserStore_PublicColumnsHidePasswordHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewUserStore(db)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, db, models.RoleUser, true)

	public, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, public.PasswordHash)
	assert.Equal(t, u.Email, public.Email)

	byEmail, err := s.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Empty(t, byEmail.PasswordHash)

	creds, err := s.FindCredentialsByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, creds.PasswordHash)

	_, err = s.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserStore_ConsumeVerificationToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewUserStore(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	u := testutil.CreateTestUser(t, db, models.RoleUser, false)
	require.NoError(t, s.SetVerificationToken(ctx, u.ID, "tok-1", now.Add(24*time.Hour)))

	t.Run("wrong token", func(t *testing.T) {
		_, err := s.ConsumeVerificationToken(ctx, "nope", now)
		assert.ErrorIs(t, err, store.ErrTokenInvalid)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := s.ConsumeVerificationToken(ctx, "", now)
		assert.ErrorIs(t, err, store.ErrTokenInvalid)
	})

	t.Run("expired token", func(t *testing.T) {
		_, err := s.ConsumeVerificationToken(ctx, "tok-1", now.Add(25*time.Hour))
		assert.ErrorIs(t, err, store.ErrTokenInvalid)
	})

	t.Run("consumed once", func(t *testing.T) {
		verified, err := s.ConsumeVerificationToken(ctx, "tok-1", now)
		require.NoError(t, err)
		assert.True(t, verified.IsEmailVerified)
		assert.Nil(t, verified.EmailVerificationToken)

		_, err = s.ConsumeVerificationToken(ctx, "tok-1", now)
		assert.ErrorIs(t, err, store.ErrTokenInvalid)

		fresh, err := s.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, fresh.IsEmailVerified)
	})
}

func TestUserStore_ConsumeResetToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewUserStore(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	u := testutil.CreateTestUser(t, db, models.RoleUser, true)
	require.NoError(t, s.SetResetToken(ctx, u.ID, "hash-1", now.Add(time.Hour)))

	_, err := s.ConsumeResetToken(ctx, "hash-1", now.Add(2*time.Hour), "new-hash")
	assert.ErrorIs(t, err, store.ErrTokenInvalid, "expired")

	_, err = s.ConsumeResetToken(ctx, "hash-1", now, "new-hash")
	require.NoError(t, err)

	creds, err := s.FindCredentialsByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", creds.PasswordHash)
	assert.Nil(t, creds.ResetPasswordToken)

	_, err = s.ConsumeResetToken(ctx, "hash-1", now, "other-hash")
	assert.ErrorIs(t, err, store.ErrTokenInvalid, "replayed")
}

func TestUserStore_ClearExpiredActionTokens(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewUserStore(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stale := testutil.CreateTestUser(t, db, models.RoleUser, false)
	live := testutil.CreateTestUser(t, db, models.RoleUser, false)
	require.NoError(t, s.SetVerificationToken(ctx, stale.ID, "old", now.Add(-time.Minute)))
	require.NoError(t, s.SetVerificationToken(ctx, live.ID, "new", now.Add(time.Hour)))
	require.NoError(t, s.SetResetToken(ctx, live.ID, "old-reset", now.Add(-time.Minute)))

	n, err := s.ClearExpiredActionTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.ConsumeVerificationToken(ctx, "new", now)
	assert.NoError(t, err)
}

func TestUserStore_Providers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewUserStore(db)
	ctx := context.Background()
	u := testutil.CreateTestUser(t, db, models.RoleUser, true)

	_, err := s.FindByProvider(ctx, store.ProviderGoogle, "g-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.LinkProvider(ctx, u.ID, store.ProviderGoogle, "g-1"))
	found, err := s.FindByProvider(ctx, store.ProviderGoogle, "g-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.FindByProvider(ctx, store.Provider("facebook"), "x")
	assert.Error(t, err)
}

func TestUserStore_ListCountDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := store.NewUserStore(db)
	ctx := context.Background()

	admin := testutil.CreateTestUser(t, db, models.RoleAdmin, true)
	for i := 0; i < 3; i++ {
		testutil.CreateTestUser(t, db, models.RoleUser, true)
	}

	users, total, err := s.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}

	admins, err := s.Count(ctx, "role = ?", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)

	ok, err := s.AdminExists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, admin.ID))
	assert.ErrorIs(t, s.Delete(ctx, admin.ID), store.ErrNotFound)

	_, err = s.Update(ctx, uuid.New(), map[string]interface{}{"bio": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
