package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
)

// pendingBatch accumulates same-type events until a flush. createdAt is set by
// the first event and never reset, so the age-based flush bounds the latency
// of the oldest event regardless of arrival rate.
type pendingBatch struct {
	events    []domain.DomainEvent
	createdAt time.Time
	maxSize   int
}

// Stats is the read-only view of the batching subsystem polled by monitoring.
type Stats struct {
	PendingBatches     int                      `json:"pending_batches"`
	ActiveJobs         int                      `json:"active_jobs"`
	TotalPendingEvents int                      `json:"total_pending_events"`
	CountsByType       map[domain.EventType]int `json:"counts_by_type"`
}

// Batcher accumulates events per type and flushes a type's batch when it
// reaches the handler's preferred size or outlives the configured timeout.
// Flush removes the pending entry before submitting it for execution, so a
// size-triggered and a sweep-triggered flush racing on the same type can only
// execute once.
type Batcher struct {
	registry      *Registry
	executor      *Executor
	defaultSize   int
	timeout       time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger

	mu      sync.Mutex
	pending map[domain.EventType]*pendingBatch
}

// NewBatcher creates a batch accumulator. defaultSize is used when a handler
// does not specialize its batch size; timeout is the maximum pending-batch
// age before the sweep flushes it; sweepInterval is the sweep cadence.
func NewBatcher(registry *Registry, executor *Executor, defaultSize int, timeout, sweepInterval time.Duration, logger *zap.Logger) *Batcher {
	if defaultSize < 1 {
		defaultSize = DefaultBatchSize
	}
	return &Batcher{
		registry:      registry,
		executor:      executor,
		defaultSize:   defaultSize,
		timeout:       timeout,
		sweepInterval: sweepInterval,
		logger:        logger.Named("batcher"),
		pending:       make(map[domain.EventType]*pendingBatch),
	}
}

// Append queues the event into its type's pending batch and reports whether it
// was queued. It returns false when the event's handler does not want batch
// treatment (or has no registration); falling back to immediate processing is
// the dispatcher's responsibility. When the append reaches the batch size
// threshold the batch is flushed before Append returns.
func (b *Batcher) Append(ctx context.Context, event domain.DomainEvent) bool {
	handler, ok := b.registry.ProcessorFor(event.Type)
	if !ok || !handler.SupportsBatching() {
		return false
	}

	maxSize := handler.BatchSize()
	if maxSize < 1 {
		maxSize = b.defaultSize
	}

	b.mu.Lock()
	pb, exists := b.pending[event.Type]
	if !exists {
		pb = &pendingBatch{createdAt: time.Now().UTC(), maxSize: maxSize}
		b.pending[event.Type] = pb
	}
	pb.events = append(pb.events, event)

	var snapshot []domain.DomainEvent
	if len(pb.events) >= pb.maxSize {
		snapshot = pb.events
		delete(b.pending, event.Type)
	}
	b.mu.Unlock()

	if snapshot != nil {
		b.logger.Debug("batch size threshold reached",
			zap.String("event_type", string(event.Type)),
			zap.Int("batch_size", len(snapshot)),
		)
		b.executor.ExecuteAsync(ctx, event.Type, snapshot)
	}
	return true
}

// Start runs the periodic age sweep until ctx is cancelled. The sweep is
// decoupled from Append: a batch older than the timeout is flushed even when
// no further events arrive.
func (b *Batcher) Start(ctx context.Context) {
	ticker := time.NewTicker(b.sweepInterval)
	defer ticker.Stop()

	b.logger.Info("batch sweep started",
		zap.Duration("interval", b.sweepInterval),
		zap.Duration("timeout", b.timeout),
	)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("batch sweep stopped")
			return
		case <-ticker.C:
			b.sweep(ctx)
		}
	}
}

// sweep flushes every pending batch whose age has reached the timeout.
func (b *Batcher) sweep(ctx context.Context) {
	now := time.Now().UTC()

	b.mu.Lock()
	expired := make(map[domain.EventType][]domain.DomainEvent)
	for t, pb := range b.pending {
		if len(pb.events) > 0 && now.Sub(pb.createdAt) >= b.timeout {
			expired[t] = pb.events
			delete(b.pending, t)
		}
	}
	b.mu.Unlock()

	for t, events := range expired {
		b.logger.Debug("batch timeout reached",
			zap.String("event_type", string(t)),
			zap.Int("batch_size", len(events)),
		)
		b.executor.ExecuteAsync(ctx, t, events)
	}
}

// ForceFlush flushes the given types, or every pending type when none are
// given, and returns the started jobs. Flushing a type with no pending events
// is a no-op. Meant for operational draining, not steady-state flow.
func (b *Batcher) ForceFlush(ctx context.Context, types ...domain.EventType) []BatchJob {
	if len(types) == 0 {
		b.mu.Lock()
		for t := range b.pending {
			types = append(types, t)
		}
		b.mu.Unlock()
	}

	var jobs []BatchJob
	for _, t := range types {
		b.mu.Lock()
		pb, ok := b.pending[t]
		if ok {
			delete(b.pending, t)
		}
		b.mu.Unlock()

		if !ok || len(pb.events) == 0 {
			continue
		}
		b.logger.Info("force flushing batch",
			zap.String("event_type", string(t)),
			zap.Int("batch_size", len(pb.events)),
		)
		jobs = append(jobs, b.executor.ExecuteAsync(ctx, t, pb.events))
	}
	return jobs
}

// Stats returns a point-in-time view of pending batches and held jobs.
func (b *Batcher) Stats() Stats {
	b.mu.Lock()
	counts := make(map[domain.EventType]int, len(b.pending))
	total := 0
	for t, pb := range b.pending {
		counts[t] = len(pb.events)
		total += len(pb.events)
	}
	pendingBatches := len(b.pending)
	b.mu.Unlock()

	return Stats{
		PendingBatches:     pendingBatches,
		ActiveJobs:         b.executor.JobCount(),
		TotalPendingEvents: total,
		CountsByType:       counts,
	}
}
