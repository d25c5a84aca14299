package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/payments"
	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/store"
)

type PaymentService struct {
	db        *gorm.DB
	users     *store.UserStore
	processor payments.Processor
	events    events.Publisher
	now       func() time.Time
}

// NewPaymentService takes a nil processor when no processor key is configured.
func NewPaymentService(db *gorm.DB, users *store.UserStore, processor payments.Processor, publisher events.Publisher) *PaymentService {
	return &PaymentService{
		db:        db,
		users:     users,
		processor: processor,
		events:    publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *PaymentService) CreateIntent(ctx context.Context, userID uuid.UUID, tier models.PlanTier) (*dto.PaymentIntentResponse, error) {
	if s.processor == nil {
		return nil, payments.ErrNotConfigured
	}
	amount, ok := payments.Price(tier)
	if !ok {
		return nil, ErrInvalidPlanTier
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	intent, err := s.processor.CreateIntent(ctx, amount, payments.Currency, map[string]string{
		"user_id": userID.String(),
		"plan":    string(tier),
	})
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues("create", "error").Inc()
		return nil, err
	}

	payment := models.Payment{
		ID:          uuid.New(),
		UserID:      userID,
		IntentID:    intent.ID,
		Plan:        tier,
		AmountCents: amount,
		Currency:    payments.Currency,
		Status:      models.PaymentPending,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	metrics.PaymentsTotal.WithLabelValues("create", "success").Inc()

	return &dto.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Plan:            tier,
		Amount:          amount,
		Currency:        payments.Currency,
	}, nil
}

// Confirm upgrades the caller's plan once the processor reports the intent as
// succeeded. The plan comes from the stored payment row, and only rows owned
// by the caller are considered. Confirming twice is a no-op.
func (s *PaymentService) Confirm(ctx context.Context, userID uuid.UUID, intentID string) (*models.User, error) {
	if s.processor == nil {
		return nil, payments.ErrNotConfigured
	}
	if intentID == "" {
		return nil, ErrPaymentNotFound
	}

	var payment models.Payment
	err := s.db.WithContext(ctx).Where("intent_id = ? AND user_id = ?", intentID, userID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.Status == models.PaymentSucceeded {
		return s.currentUser(ctx, userID)
	}

	intent, err := s.processor.GetIntent(ctx, intentID)
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues("confirm", "error").Inc()
		return nil, err
	}
	if intent.Status != payments.IntentSucceeded || intent.Amount != payment.AmountCents {
		if intent.Status == payments.IntentCanceled {
			if _, err := setStatus(ctx, s.db, payment.ID, models.PaymentPending, models.PaymentFailed); err != nil {
				slog.Error("failed to mark payment failed", "user_id", userID.String(), "action", "confirm_payment", "error", err)
			}
		}
		metrics.PaymentsTotal.WithLabelValues("confirm", "incomplete").Inc()
		return nil, ErrPaymentNotComplete
	}

	// The status claim and the upgrade commit together, so a failed upgrade
	// leaves the payment pending and the confirm can be retried.
	now := s.now()
	var user *models.User
	claimed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := setStatus(ctx, tx, payment.ID, models.PaymentPending, models.PaymentSucceeded)
		if err != nil || !ok {
			return err
		}
		claimed = true
		user, err = setTier(ctx, store.NewUserStore(tx), userID, payment.Plan, now)
		return err
	})
	if err != nil {
		metrics.PaymentsTotal.WithLabelValues("confirm", "error").Inc()
		return nil, err
	}
	if !claimed {
		// a concurrent confirm already applied the upgrade
		return s.currentUser(ctx, userID)
	}

	emitUpgrade(ctx, s.events, userID, payment.Plan, now)
	metrics.PaymentsTotal.WithLabelValues("confirm", "success").Inc()
	events.Emit(ctx, s.events, events.Event{
		Type:   events.PaymentConfirmed,
		UserID: userID,
		At:     now,
		Data:   map[string]string{"intent_id": intentID, "plan": string(payment.Plan)},
	})
	return user, nil
}

// setStatus moves a payment from one status to another and reports whether
// this call made the transition.
func setStatus(ctx context.Context, db *gorm.DB, id uuid.UUID, from, to models.PaymentStatus) (bool, error) {
	res := db.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update payment status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *PaymentService) currentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
