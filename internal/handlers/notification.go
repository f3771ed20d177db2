package handlers

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	"github.com/harborline/eventflow/internal/repository"
)

// Sender delivers one notification to its channel.
type Sender interface {
	Send(ctx context.Context, recipient, channel, subject, body string) error
}

// LogSender is the default Sender; it only logs the delivery. Real channel
// integrations plug in behind the same interface.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("log-sender")}
}

func (s *LogSender) Send(_ context.Context, recipient, channel, subject, _ string) error {
	s.logger.Info("notification delivered",
		zap.String("recipient", recipient),
		zap.String("channel", channel),
		zap.String("subject", subject),
	)
	return nil
}

// NotificationHandler delivers requested notifications. Deliveries are cheap
// per item but high volume, so it prefers large batches.
type NotificationHandler struct {
	repo      repository.Repository
	sender    Sender
	batchSize int
	logger    *zap.Logger
}

// NewNotificationHandler creates the notification strategy.
func NewNotificationHandler(repo repository.Repository, sender Sender, batchSize int, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		repo:      repo,
		sender:    sender,
		batchSize: batchSize,
		logger:    logger.Named("notification-handler"),
	}
}

func (h *NotificationHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventTypeNotificationRequested
}

func (h *NotificationHandler) SupportsBatching() bool { return true }

func (h *NotificationHandler) BatchSize() int { return h.batchSize }

func (h *NotificationHandler) Process(ctx context.Context, event domain.DomainEvent) error {
	var payload domain.NotificationRequestedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	if err := h.sender.Send(ctx, payload.Recipient, payload.Channel, payload.Subject, payload.Body); err != nil {
		return err
	}

	notification := &repository.Notification{
		ID:        uuid.New().String(),
		Recipient: payload.Recipient,
		Channel:   payload.Channel,
		Subject:   payload.Subject,
		Status:    "sent",
		CreatedAt: event.Timestamp,
	}
	return h.repo.CreateNotification(ctx, notification)
}
