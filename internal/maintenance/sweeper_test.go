package maintenance

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

func TestSweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := store.NewUserStore(db)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	logs := []models.SystemLog{
		{ID: uuid.New(), Timestamp: now.Add(-40 * 24 * time.Hour), Level: "ERROR", Message: "old"},
		{ID: uuid.New(), Timestamp: now.Add(-time.Hour), Level: "ERROR", Message: "recent"},
	}
	require.NoError(t, db.Create(&logs).Error)

	u := testutil.CreateTestUser(t, db, models.RoleUser, false)
	require.NoError(t, users.SetVerificationToken(ctx, u.ID, "stale", now.Add(-time.Minute)))

	s := NewSweeper(db, users, 30*24*time.Hour)
	s.now = func() time.Time { return now }
	s.Sweep(ctx)

	var remaining []models.SystemLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "recent", remaining[0].Message)

	creds, err := users.FindCredentialsByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, creds.EmailVerificationToken)
	assert.Nil(t, creds.EmailVerificationExpires)
}
