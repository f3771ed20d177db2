package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/harborline/eventflow/internal/domain"
)

const meterName = "github.com/harborline/eventflow/internal/dispatch"

// executorMetrics records batch job outcomes. Instruments come from the global
// meter provider, which is a noop unless the composition root installs one.
type executorMetrics struct {
	jobs     metric.Int64Counter
	duration metric.Float64Histogram
}

func newExecutorMetrics() *executorMetrics {
	meter := otel.Meter(meterName)
	jobs, _ := meter.Int64Counter("eventflow.batch.jobs",
		metric.WithDescription("Finished batch jobs by event type and status"))
	duration, _ := meter.Float64Histogram("eventflow.batch.duration",
		metric.WithDescription("Batch job processing duration"),
		metric.WithUnit("s"))
	return &executorMetrics{jobs: jobs, duration: duration}
}

func (m *executorMetrics) recordJob(ctx context.Context, eventType domain.EventType, status JobStatus, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("event_type", string(eventType)),
		attribute.String("status", string(status)),
	)
	m.jobs.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// dispatcherMetrics counts submissions by event type and routing path.
type dispatcherMetrics struct {
	submissions metric.Int64Counter
}

func newDispatcherMetrics() *dispatcherMetrics {
	meter := otel.Meter(meterName)
	submissions, _ := meter.Int64Counter("eventflow.submissions",
		metric.WithDescription("Submitted events by event type and routing path"))
	return &dispatcherMetrics{submissions: submissions}
}

func (m *dispatcherMetrics) recordSubmission(ctx context.Context, eventType domain.EventType, path string) {
	m.submissions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", string(eventType)),
		attribute.String("path", path),
	))
}
