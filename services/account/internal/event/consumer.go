package event

import (
	"context"
	"log/slog"

	pkgkafka "github.com/adatechschool/MBB/pkg/kafka"
	"github.com/adatechschool/MBB/services/account/internal/domain"
	"github.com/adatechschool/MBB/services/account/internal/service"
)

// Topics consumed from other services.
const (
	TopicUserRegistered = "microblog.user.registered"
)

// Consumer group ID for the account service.
const ConsumerGroupID = "account-service"

// UserRegisteredData is the payload of a user.registered event from the auth
// service.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AccountProvisioner is the subset of the account service used by the
// projector. Satisfied by service.AccountService.
type AccountProvisioner interface {
	Provision(ctx context.Context, input service.ProvisionInput) (*domain.Account, bool, error)
}

// ConsumerHandler routes incoming Kafka events to the appropriate handler.
type ConsumerHandler struct {
	accounts AccountProvisioner
	logger   *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler.
func NewConsumerHandler(accounts AccountProvisioner, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicUserRegistered:
		return h.handleUserRegistered(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleUserRegistered projects a user.registered event into the accounts
// table. Provisioning is a no-op when the account already exists, so replays
// and races with the auth service's direct provisioning call are harmless.
func (h *ConsumerHandler) handleUserRegistered(ctx context.Context, event *pkgkafka.Event) error {
	var data UserRegisteredData
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.ErrorContext(ctx, "malformed user.registered payload",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return err
	}

	_, created, err := h.accounts.Provision(ctx, service.ProvisionInput{
		UserID:   data.ID,
		Username: data.Username,
		Email:    data.Email,
	})
	if err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "processed user.registered event",
		slog.String("event_id", event.EventID),
		slog.String("user_id", data.ID),
		slog.Bool("created", created),
	)

	return nil
}

// NewConsumer creates the Kafka consumer for the account service's projector.
// The handler is wrapped for idempotency so redelivered events do not reach
// the service twice, and failed events land on the dead-letter queue.
func NewConsumer(
	brokers []string,
	handler *ConsumerHandler,
	idempotency pkgkafka.IdempotencyStore,
	dlq *pkgkafka.DLQProducer,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	cfg := pkgkafka.ConsumerConfig{
		Brokers:  brokers,
		GroupID:  ConsumerGroupID,
		Topic:    TopicUserRegistered,
		MinBytes: 1,
		MaxBytes: 10e6,
	}

	wrapped := pkgkafka.IdempotentHandler(idempotency, handler.Handle, logger)

	return pkgkafka.NewConsumer(cfg, wrapped, logger).WithDLQ(dlq)
}
