package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/eventflow/internal/dispatch"
	"github.com/harborline/eventflow/internal/domain"
	apperrors "github.com/harborline/eventflow/pkg/errors"
	"github.com/harborline/eventflow/pkg/retry"
)

func newTestExecutor(registry *dispatch.Registry, notifier *dispatch.Notifier, retention time.Duration) *dispatch.Executor {
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return dispatch.NewExecutor(registry, notifier, policy, retention, testLogger())
}

func batchOf(t domain.EventType, n int) []domain.DomainEvent {
	events := make([]domain.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, testEvent(t))
	}
	return events
}

func TestExecutorCompletesWhenAllEventsSucceed(t *testing.T) {
	handler := newStubHandler(true, 10, domain.EventTypeNotificationRequested)
	registry := dispatch.NewRegistry(handler)
	executor := newTestExecutor(registry, newTestNotifier(), time.Minute)

	job := executor.Execute(context.Background(), domain.EventTypeNotificationRequested,
		batchOf(domain.EventTypeNotificationRequested, 5))

	assert.Equal(t, dispatch.JobStatusCompleted, job.Status)
	assert.Equal(t, 5, job.BatchSize)
	assert.Empty(t, job.Error)
	assert.False(t, job.CompletedAt.IsZero())
	assert.Equal(t, 5, handler.processedCount())
}

func TestExecutorFailsJobWithFirstErrorAndRunsAllTasks(t *testing.T) {
	handler := newStubHandler(true, 10, domain.EventTypeOrderCreated)
	events := batchOf(domain.EventTypeOrderCreated, 4)
	badID := events[1].ID
	handler.processFn = func(_ context.Context, ev domain.DomainEvent) error {
		if ev.ID == badID {
			return errors.New("downstream rejected order")
		}
		return nil
	}
	registry := dispatch.NewRegistry(handler)
	executor := newTestExecutor(registry, newTestNotifier(), time.Minute)

	job := executor.Execute(context.Background(), domain.EventTypeOrderCreated, events)

	assert.Equal(t, dispatch.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "downstream rejected order")
	// Siblings were not cancelled: 3 good events processed once each, the bad
	// one retried 3 times.
	assert.Equal(t, 3+3, handler.processedCount())
}

func TestExecutorRetriesEachEventIndependently(t *testing.T) {
	var attempts sync.Map
	var total int32
	handler := newStubHandler(true, 10, domain.EventTypePaymentConfirmed)
	handler.processFn = func(_ context.Context, ev domain.DomainEvent) error {
		atomic.AddInt32(&total, 1)
		// Fail the first attempt of every event, succeed afterwards.
		if _, seen := attempts.LoadOrStore(ev.ID, true); !seen {
			return errors.New("transient")
		}
		return nil
	}
	registry := dispatch.NewRegistry(handler)
	executor := newTestExecutor(registry, newTestNotifier(), time.Minute)

	job := executor.Execute(context.Background(), domain.EventTypePaymentConfirmed,
		batchOf(domain.EventTypePaymentConfirmed, 3))

	assert.Equal(t, dispatch.JobStatusCompleted, job.Status)
	assert.Equal(t, int32(6), atomic.LoadInt32(&total))
}

func TestExecutorFailsWhenNoHandlerRegistered(t *testing.T) {
	registry := dispatch.NewRegistry()
	executor := newTestExecutor(registry, newTestNotifier(), time.Minute)

	job := executor.Execute(context.Background(), domain.EventTypeOrderCreated,
		batchOf(domain.EventTypeOrderCreated, 2))

	assert.Equal(t, dispatch.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, string(apperrors.ErrorTypeNoHandler))
}

func TestExecutorNotifiesObserversPerEventAfterCompletion(t *testing.T) {
	handler := newStubHandler(true, 10, domain.EventTypeOrderCreated)
	handler.processFn = func(context.Context, domain.DomainEvent) error {
		return errors.New("always failing")
	}
	notifier := newTestNotifier()
	audit := newRecordingObserver("audit", domain.AllEventTypes()...)
	notifier.Attach(audit)
	registry := dispatch.NewRegistry(handler)
	executor := newTestExecutor(registry, notifier, time.Minute)

	job := executor.Execute(context.Background(), domain.EventTypeOrderCreated,
		batchOf(domain.EventTypeOrderCreated, 3))

	// Fan-out runs even for failed jobs.
	require.Equal(t, dispatch.JobStatusFailed, job.Status)
	assert.Equal(t, 3, audit.updateCount())
}

func TestExecutorAsyncRegistersJobImmediately(t *testing.T) {
	release := make(chan struct{})
	handler := newStubHandler(true, 10, domain.EventTypeOrderCreated)
	handler.processFn = func(context.Context, domain.DomainEvent) error {
		<-release
		return nil
	}
	registry := dispatch.NewRegistry(handler)
	executor := newTestExecutor(registry, newTestNotifier(), time.Minute)

	snap := executor.ExecuteAsync(context.Background(), domain.EventTypeOrderCreated,
		batchOf(domain.EventTypeOrderCreated, 2))

	assert.Equal(t, dispatch.JobStatusProcessing, snap.Status)
	assert.Equal(t, 1, executor.JobCount())

	close(release)
	executor.Drain()

	job, ok := executor.Job(snap.ID)
	require.True(t, ok)
	assert.Equal(t, dispatch.JobStatusCompleted, job.Status)
}

func TestExecutorAsyncJobOutlivesSubmitterContext(t *testing.T) {
	// A flush is often triggered inside a request or consumer-session context
	// that is cancelled as soon as the trigger returns. The job must still run
	// its full retry budget and complete.
	var attempts sync.Map
	handler := newStubHandler(true, 10, domain.EventTypeOrderCreated)
	handler.processFn = func(_ context.Context, ev domain.DomainEvent) error {
		// Fail every event's first attempt so each task sleeps in the retry
		// loop while the submitter's context is already cancelled.
		if _, seen := attempts.LoadOrStore(ev.ID, true); !seen {
			return errors.New("transient")
		}
		return nil
	}
	registry := dispatch.NewRegistry(handler)
	executor := dispatch.NewExecutor(registry, newTestNotifier(),
		retry.Policy{MaxAttempts: 3, BaseDelay: 20 * time.Millisecond}, time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	snap := executor.ExecuteAsync(ctx, domain.EventTypeOrderCreated,
		batchOf(domain.EventTypeOrderCreated, 5))
	cancel()
	executor.Drain()

	job, ok := executor.Job(snap.ID)
	require.True(t, ok)
	assert.Equal(t, dispatch.JobStatusCompleted, job.Status)
	assert.NotContains(t, job.Error, "context canceled")
	assert.Equal(t, 10, handler.processedCount())
}

func TestExecutorEvictsFinishedJobsAfterRetention(t *testing.T) {
	handler := newStubHandler(true, 10, domain.EventTypeOrderCreated)
	registry := dispatch.NewRegistry(handler)
	executor := newTestExecutor(registry, newTestNotifier(), 20*time.Millisecond)

	job := executor.Execute(context.Background(), domain.EventTypeOrderCreated,
		batchOf(domain.EventTypeOrderCreated, 1))

	_, ok := executor.Job(job.ID)
	require.True(t, ok, "finished job should stay visible inside the retention window")

	assert.Eventually(t, func() bool {
		_, ok := executor.Job(job.ID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}
