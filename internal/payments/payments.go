// Package payments wraps the card processor used for plan upgrades.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/ahmetcoskunkizilkaya/gymbro-backend/internal/models"
)

var ErrNotConfigured = errors.New("payment processor is not configured")

const Currency = "usd"

// Prices in USD cents per paid tier.
var prices = map[models.PlanTier]int64{
	models.TierMonthly:  499,
	models.TierYearly:   3999,
	models.TierLifetime: 8999,
}

// Price returns the amount for a paid tier.
func Price(tier models.PlanTier) (int64, bool) {
	amount, ok := prices[tier]
	return amount, ok
}

type IntentStatus string

const (
	IntentSucceeded IntentStatus = "succeeded"
	IntentCanceled  IntentStatus = "canceled"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       int64
	Metadata     map[string]string
}

type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

type StripeProcessor struct {
	sc *client.API
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	return &StripeProcessor{sc: client.New(secretKey, nil)}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.sc.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
		Amount:       pi.Amount,
		Metadata:     pi.Metadata,
	}
}
