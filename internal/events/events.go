// Package events publishes account lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type Type string

const (
	UserRegistered    Type = "user.registered"
	UserVerified      Type = "user.verified"
	PasswordReset     Type = "user.password_reset"
	PasswordChanged   Type = "user.password_changed"
	PlanUpgraded      Type = "plan.upgraded"
	PaymentConfirmed  Type = "payment.confirmed"
	FederatedSignedIn Type = "user.federated_login"
)

type Event struct {
	Type   Type              `json:"type"`
	UserID uuid.UUID         `json:"user_id"`
	At     time.Time         `json:"at"`
	Data   map[string]string `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// KafkaPublisher writes events keyed by user id so a user's events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
		Time: e.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

func NewPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		slog.Info("events: KAFKA_BROKERS not set, account events disabled")
		return NopPublisher{}
	}
	slog.Info("events: publishing to kafka", "brokers", brokers, "topic", topic)
	return NewKafkaPublisher(brokers, topic)
}

// Emit publishes e and logs failures. Events are best effort and never fail a request.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.Warn("event publish failed", "type", e.Type, "user_id", e.UserID.String(), "error", err)
	}
}
