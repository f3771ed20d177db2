// Package observers contains the subscribers attached to the notifier:
// audit trail, metrics, and the integration publisher.
package observers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	"github.com/harborline/eventflow/internal/repository"
)

// AuditObserver records every processed event in the audit trail. It is
// interested in all event types.
type AuditObserver struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewAuditObserver creates the audit observer.
func NewAuditObserver(repo repository.Repository, logger *zap.Logger) *AuditObserver {
	return &AuditObserver{
		repo:   repo,
		logger: logger.Named("audit-observer"),
	}
}

func (o *AuditObserver) Name() string { return "audit" }

func (o *AuditObserver) EventTypes() []domain.EventType { return domain.AllEventTypes() }

func (o *AuditObserver) Update(ctx context.Context, event domain.DomainEvent) error {
	entry := &repository.AuditEntry{
		EventID:    event.ID,
		EventType:  string(event.Type),
		OccurredAt: event.Timestamp,
		RecordedAt: time.Now().UTC(),
	}
	if err := o.repo.CreateAuditEntry(ctx, entry); err != nil {
		return err
	}

	o.logger.Debug("audit entry recorded",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
	)
	return nil
}
