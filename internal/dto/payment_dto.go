package dto

import "github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"

type CreatePaymentIntentRequest struct {
	PlanID models.PlanTier `json:"plan_id"`
}

type PaymentIntentResponse struct {
	ClientSecret    string          `json:"client_secret"`
	PaymentIntentID string          `json:"payment_intent_id"`
	Plan            models.PlanTier `json:"plan"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

type ConfirmPaymentResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}
