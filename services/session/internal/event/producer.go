package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/adatechschool/MBB/pkg/kafka"
	"github.com/adatechschool/MBB/services/session/internal/domain"
)

// Kafka topic constants for session lifecycle events.
const (
	TopicSessionCreated   = "microblog.session.created"
	TopicSessionRefreshed = "microblog.session.refreshed"
)

// Aggregate type constant.
const AggregateTypeSession = "session"

// Source identifier for events originating from the session service.
const SourceSessionService = "session-service"

// SessionCreatedData is the payload for a session.created event.
type SessionCreatedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// SessionRefreshedData is the payload for a session.refreshed event.
type SessionRefreshedData struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// Producer publishes session lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the session service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishSessionCreated publishes a session.created event.
func (p *Producer) PublishSessionCreated(ctx context.Context, s *domain.Session) error {
	data := SessionCreatedData{SessionID: s.ID, UserID: s.UserID}

	event, err := pkgkafka.NewEvent(TopicSessionCreated, s.ID, AggregateTypeSession, SourceSessionService, data)
	if err != nil {
		return fmt.Errorf("create session.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionCreated, event); err != nil {
		return fmt.Errorf("publish session.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published session.created event",
		slog.String("session_id", s.ID),
		slog.String("user_id", s.UserID),
	)

	return nil
}

// PublishSessionRefreshed publishes a session.refreshed event.
func (p *Producer) PublishSessionRefreshed(ctx context.Context, s *domain.Session) error {
	data := SessionRefreshedData{SessionID: s.ID, UserID: s.UserID}

	event, err := pkgkafka.NewEvent(TopicSessionRefreshed, s.ID, AggregateTypeSession, SourceSessionService, data)
	if err != nil {
		return fmt.Errorf("create session.refreshed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSessionRefreshed, event); err != nil {
		return fmt.Errorf("publish session.refreshed event: %w", err)
	}

	return nil
}
