// Package maintenance runs periodic cleanup of expired data.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

// Sweeper deletes old system logs and clears expired verification and reset
// tokens from user rows.
type Sweeper struct {
	db           *gorm.DB
	users        *store.UserStore
	logRetention time.Duration
	now          func() time.Time
}

func NewSweeper(db *gorm.DB, users *store.UserStore, logRetention time.Duration) *Sweeper {
	return &Sweeper{
		db:           db,
		users:        users,
		logRetention: logRetention,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Start sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.Sweep(ctx)
		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now()

	cutoff := now.Add(-s.logRetention)
	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "action", "sweep", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}

	cleared, err := s.users.ClearExpiredActionTokens(ctx, now)
	if err != nil {
		slog.Error("action token cleanup failed", "action", "sweep", "error", err)
	} else if cleared > 0 {
		slog.Info("expired action tokens cleared", "count", cleared)
	}
}
