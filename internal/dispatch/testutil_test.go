package dispatch_test

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/dispatch"
	"github.com/harborline/eventflow/internal/domain"
)

// stubHandler is a configurable strategy for pipeline tests.
type stubHandler struct {
	types     map[domain.EventType]bool
	batching  bool
	batchSize int
	processFn func(ctx context.Context, event domain.DomainEvent) error

	mu        sync.Mutex
	processed []domain.DomainEvent
}

func newStubHandler(batching bool, batchSize int, types ...domain.EventType) *stubHandler {
	m := make(map[domain.EventType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return &stubHandler{types: m, batching: batching, batchSize: batchSize}
}

func (h *stubHandler) CanHandle(t domain.EventType) bool { return h.types[t] }

func (h *stubHandler) SupportsBatching() bool { return h.batching }

func (h *stubHandler) BatchSize() int { return h.batchSize }

func (h *stubHandler) Process(ctx context.Context, event domain.DomainEvent) error {
	h.mu.Lock()
	h.processed = append(h.processed, event)
	h.mu.Unlock()
	if h.processFn != nil {
		return h.processFn(ctx, event)
	}
	return nil
}

func (h *stubHandler) processedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.processed)
}

// recordingObserver counts notifications per event ID.
type recordingObserver struct {
	name  string
	types []domain.EventType
	fail  error

	mu      sync.Mutex
	updates []domain.DomainEvent
}

func newRecordingObserver(name string, types ...domain.EventType) *recordingObserver {
	return &recordingObserver{name: name, types: types}
}

func (o *recordingObserver) Name() string { return o.name }

func (o *recordingObserver) EventTypes() []domain.EventType { return o.types }

func (o *recordingObserver) Update(_ context.Context, event domain.DomainEvent) error {
	o.mu.Lock()
	o.updates = append(o.updates, event)
	o.mu.Unlock()
	return o.fail
}

func (o *recordingObserver) updateCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.updates)
}

func testEvent(t domain.EventType) domain.DomainEvent {
	ev, err := domain.NewDomainEvent(t, map[string]string{"k": "v"})
	if err != nil {
		panic(err)
	}
	return ev
}

func testLogger() *zap.Logger { return zap.NewNop() }

func newTestNotifier() *dispatch.Notifier { return dispatch.NewNotifier(testLogger()) }
