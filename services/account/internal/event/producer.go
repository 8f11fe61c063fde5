package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/adatechschool/MBB/pkg/kafka"
	"github.com/adatechschool/MBB/services/account/internal/domain"
)

// Kafka topic constants for account lifecycle events.
const (
	TopicAccountUpdated = "microblog.account.updated"
	TopicAccountDeleted = "microblog.account.deleted"
)

// Aggregate type constant.
const AggregateTypeAccount = "account"

// Source identifier for events originating from the account service.
const SourceAccountService = "account-service"

// AccountUpdatedData is the payload for an account.updated event.
type AccountUpdatedData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AccountDeletedData is the payload for an account.deleted event.
type AccountDeletedData struct {
	UserID string `json:"user_id"`
}

// Producer publishes account lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the account service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishAccountUpdated publishes an account.updated event.
func (p *Producer) PublishAccountUpdated(ctx context.Context, a *domain.Account) error {
	data := AccountUpdatedData{
		UserID:   a.UserID,
		Username: a.Username,
		Email:    a.Email,
	}

	event, err := pkgkafka.NewEvent(TopicAccountUpdated, a.UserID, AggregateTypeAccount, SourceAccountService, data)
	if err != nil {
		return fmt.Errorf("create account.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountUpdated, event); err != nil {
		return fmt.Errorf("publish account.updated event: %w", err)
	}

	return nil
}

// PublishAccountDeleted publishes an account.deleted event.
func (p *Producer) PublishAccountDeleted(ctx context.Context, userID string) error {
	event, err := pkgkafka.NewEvent(TopicAccountDeleted, userID, AggregateTypeAccount, SourceAccountService, AccountDeletedData{UserID: userID})
	if err != nil {
		return fmt.Errorf("create account.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicAccountDeleted, event); err != nil {
		return fmt.Errorf("publish account.deleted event: %w", err)
	}

	return nil
}
