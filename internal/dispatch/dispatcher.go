package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	apperrors "github.com/harborline/eventflow/pkg/errors"
)

// Dispatcher is the single entry point of the pipeline. It resolves the
// handler for an event, routes it to the batch accumulator or processes it
// immediately, and triggers observer fan-out.
type Dispatcher struct {
	registry *Registry
	batcher  *Batcher
	notifier *Notifier
	logger   *zap.Logger
	metrics  *dispatcherMetrics
}

// NewDispatcher creates the pipeline entry point.
func NewDispatcher(registry *Registry, batcher *Batcher, notifier *Notifier, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		batcher:  batcher,
		notifier: notifier,
		logger:   logger.Named("dispatcher"),
		metrics:  newDispatcherMetrics(),
	}
}

// Submit routes one event through the pipeline.
//
// Events whose handler wants batch treatment are queued and Submit returns
// immediately; their observers are notified once the batch flush completes.
// Events on the immediate path are processed inline, observers are notified
// regardless of the outcome, and a processing failure propagates to the
// caller. An event type with no registered handler fails with a NO_HANDLER
// error and fires no notifications.
func (d *Dispatcher) Submit(ctx context.Context, event domain.DomainEvent) error {
	handler, ok := d.registry.ProcessorFor(event.Type)
	if !ok {
		d.logger.Warn("no handler for event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
		)
		d.metrics.recordSubmission(ctx, event.Type, "rejected")
		return apperrors.NoHandler(string(event.Type))
	}

	if handler.SupportsBatching() {
		if d.batcher.Append(ctx, event) {
			d.logger.Debug("event queued for batching",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
			)
			d.metrics.recordSubmission(ctx, event.Type, "batched")
			return nil
		}
		// The accumulator declined; fall through to immediate processing.
	}

	err := handler.Process(ctx, event)
	if err != nil {
		d.logger.Error("event processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
		err = apperrors.Processing("processing event "+event.ID, err)
	}
	d.metrics.recordSubmission(ctx, event.Type, "immediate")

	// Fan-out runs regardless of the processing outcome.
	d.notifier.Notify(ctx, event)
	return err
}
