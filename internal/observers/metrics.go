package observers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/harborline/eventflow/internal/domain"
)

// MetricsObserver counts processed-event notifications per event type.
type MetricsObserver struct {
	notifications metric.Int64Counter
}

// NewMetricsObserver creates the metrics observer. Instruments come from the
// global meter provider.
func NewMetricsObserver() *MetricsObserver {
	meter := otel.Meter("github.com/harborline/eventflow/internal/observers")
	notifications, _ := meter.Int64Counter("eventflow.notifications",
		metric.WithDescription("Observer notifications by event type"))
	return &MetricsObserver{notifications: notifications}
}

func (o *MetricsObserver) Name() string { return "metrics" }

func (o *MetricsObserver) EventTypes() []domain.EventType { return domain.AllEventTypes() }

func (o *MetricsObserver) Update(ctx context.Context, event domain.DomainEvent) error {
	o.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", string(event.Type)),
	))
	return nil
}
