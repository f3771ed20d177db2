package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	apperrors "github.com/harborline/eventflow/pkg/errors"
	"github.com/harborline/eventflow/pkg/retry"
)

// JobStatus is the lifecycle state of a batch job. Completed and Failed are
// terminal.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// BatchJob is an immutable-after-creation snapshot of a flushed pending batch.
// Finished jobs stay visible to monitoring for a retention window, then are
// evicted.
type BatchJob struct {
	ID          string               `json:"id"`
	Type        domain.EventType     `json:"type"`
	Events      []domain.DomainEvent `json:"events"`
	BatchSize   int                  `json:"batch_size"`
	Status      JobStatus            `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// Executor runs flushed batches: one goroutine per event, each wrapped in the
// shared retry primitive. All tasks run to completion even when one fails;
// the job fails with the first observed error.
type Executor struct {
	registry  *Registry
	notifier  *Notifier
	policy    retry.Policy
	retention time.Duration
	logger    *zap.Logger
	metrics   *executorMetrics

	mu   sync.RWMutex
	jobs map[string]*BatchJob

	wg sync.WaitGroup
}

// NewExecutor creates a batch executor. policy parameterizes the per-event
// retry; retention is how long finished jobs remain observable.
func NewExecutor(registry *Registry, notifier *Notifier, policy retry.Policy, retention time.Duration, logger *zap.Logger) *Executor {
	return &Executor{
		registry:  registry,
		notifier:  notifier,
		policy:    policy,
		retention: retention,
		logger:    logger.Named("executor"),
		metrics:   newExecutorMetrics(),
		jobs:      make(map[string]*BatchJob),
	}
}

// Execute processes a batch synchronously and returns the terminal job snapshot.
func (e *Executor) Execute(ctx context.Context, eventType domain.EventType, events []domain.DomainEvent) BatchJob {
	job := e.begin(eventType, events)
	e.run(ctx, job)
	return e.snapshot(job)
}

// ExecuteAsync registers the job synchronously, so it is immediately visible
// in the active-jobs map, and processes it in the background. The returned
// snapshot reflects the PROCESSING state.
func (e *Executor) ExecuteAsync(ctx context.Context, eventType domain.EventType, events []domain.DomainEvent) BatchJob {
	// The submitting context (an HTTP request, a consumer-group session) is
	// often cancelled right after the flush triggers. The job must outlive it:
	// the retry budget is the only cancellation control for in-flight work, and
	// shutdown waits via Drain instead.
	ctx = context.WithoutCancel(ctx)

	job := e.begin(eventType, events)
	snap := e.snapshot(job)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(ctx, job)
	}()
	return snap
}

// Drain blocks until all in-flight batch jobs have reached a terminal status.
func (e *Executor) Drain() {
	e.wg.Wait()
}

// Jobs returns snapshots of all jobs currently held, including finished jobs
// still inside the retention window.
func (e *Executor) Jobs() []BatchJob {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]BatchJob, 0, len(e.jobs))
	for _, job := range e.jobs {
		out = append(out, cloneJob(job))
	}
	return out
}

// Job returns a snapshot of a single job by ID.
func (e *Executor) Job(id string) (BatchJob, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	job, ok := e.jobs[id]
	if !ok {
		return BatchJob{}, false
	}
	return cloneJob(job), true
}

// JobCount returns the number of jobs currently held.
func (e *Executor) JobCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.jobs)
}

func (e *Executor) begin(eventType domain.EventType, events []domain.DomainEvent) *BatchJob {
	now := time.Now().UTC()
	job := &BatchJob{
		ID:        uuid.New().String(),
		Type:      eventType,
		Events:    append([]domain.DomainEvent(nil), events...),
		BatchSize: len(events),
		Status:    JobStatusProcessing,
		CreatedAt: now,
		StartedAt: now,
	}

	e.mu.Lock()
	e.jobs[job.ID] = job
	e.mu.Unlock()

	e.logger.Info("batch job started",
		zap.String("job_id", job.ID),
		zap.String("event_type", string(eventType)),
		zap.Int("batch_size", job.BatchSize),
	)
	return job
}

func (e *Executor) run(ctx context.Context, job *BatchJob) {
	handler, ok := e.registry.ProcessorFor(job.Type)
	if !ok {
		e.finalize(ctx, job, apperrors.NoHandler(string(job.Type)))
		return
	}

	type eventResult struct {
		eventID string
		err     error
	}

	results := make(chan eventResult, len(job.Events))
	var wg sync.WaitGroup

	// Tasks start in append order; completion order is unordered.
	for _, event := range job.Events {
		wg.Add(1)
		go func(ev domain.DomainEvent) {
			defer wg.Done()
			err := e.policy.Do(ctx, func() error {
				return handler.Process(ctx, ev)
			})
			results <- eventResult{eventID: ev.ID, err: err}
		}(event)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect every outcome; no short-circuit on first failure, so side
	// effects of in-flight tasks are never orphaned by a cancellation.
	var firstErr error
	failed := 0
	for res := range results {
		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = res.err
			}
			e.logger.Warn("batch event failed after retries",
				zap.String("job_id", job.ID),
				zap.String("event_id", res.eventID),
				zap.Error(res.err),
			)
		}
	}

	if firstErr != nil {
		firstErr = apperrors.BatchExecution(
			"batch "+job.ID+" failed "+job.Type.String(), firstErr)
	}
	e.finalize(ctx, job, firstErr)
}

func (e *Executor) finalize(ctx context.Context, job *BatchJob, jobErr error) {
	e.mu.Lock()
	job.CompletedAt = time.Now().UTC()
	if jobErr != nil {
		job.Status = JobStatusFailed
		job.Error = jobErr.Error()
	} else {
		job.Status = JobStatusCompleted
	}
	status := job.Status
	duration := job.CompletedAt.Sub(job.StartedAt)
	e.mu.Unlock()

	e.metrics.recordJob(ctx, job.Type, status, duration)
	e.logger.Info("batch job finished",
		zap.String("job_id", job.ID),
		zap.String("event_type", string(job.Type)),
		zap.String("status", string(status)),
		zap.Duration("duration", duration),
		zap.Int("batch_size", job.BatchSize),
	)

	// Observers are notified per event once the job is terminal, regardless
	// of the job outcome.
	for _, event := range job.Events {
		e.notifier.Notify(ctx, event)
	}

	time.AfterFunc(e.retention, func() { e.evict(job.ID) })
}

func (e *Executor) evict(id string) {
	e.mu.Lock()
	delete(e.jobs, id)
	e.mu.Unlock()
}

func (e *Executor) snapshot(job *BatchJob) BatchJob {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneJob(job)
}

func cloneJob(job *BatchJob) BatchJob {
	out := *job
	out.Events = append([]domain.DomainEvent(nil), job.Events...)
	return out
}
