package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/adatechschool/MBB/pkg/kafka"
	"github.com/adatechschool/MBB/services/auth/internal/domain"
)

// Kafka topic constants for user lifecycle events.
const (
	TopicUserRegistered = "microblog.user.registered"
	TopicUserLoggedIn   = "microblog.user.logged_in"
	TopicUserLoggedOut  = "microblog.user.logged_out"
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from the auth service.
const SourceAuthService = "auth-service"

// UserRegisteredData is the payload for a user.registered event. The account
// service projects this into its accounts table.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserLoggedInData is the payload for a user.logged_in event.
type UserLoggedInData struct {
	UserID string `json:"user_id"`
}

// UserLoggedOutData is the payload for a user.logged_out event.
type UserLoggedOutData struct {
	UserID string `json:"user_id"`
}

// Producer publishes user lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the auth service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceAuthService, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// PublishUserLoggedIn publishes a user.logged_in event.
func (p *Producer) PublishUserLoggedIn(ctx context.Context, userID string) error {
	event, err := pkgkafka.NewEvent(TopicUserLoggedIn, userID, AggregateTypeUser, SourceAuthService, UserLoggedInData{UserID: userID})
	if err != nil {
		return fmt.Errorf("create user.logged_in event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedIn, event); err != nil {
		return fmt.Errorf("publish user.logged_in event: %w", err)
	}

	return nil
}

// PublishUserLoggedOut publishes a user.logged_out event.
func (p *Producer) PublishUserLoggedOut(ctx context.Context, userID string) error {
	event, err := pkgkafka.NewEvent(TopicUserLoggedOut, userID, AggregateTypeUser, SourceAuthService, UserLoggedOutData{UserID: userID})
	if err != nil {
		return fmt.Errorf("create user.logged_out event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserLoggedOut, event); err != nil {
		return fmt.Errorf("publish user.logged_out event: %w", err)
	}

	return nil
}
