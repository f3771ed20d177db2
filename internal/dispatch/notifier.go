package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
)

// Observer is an independent subscriber notified after an event has been
// processed, regardless of the processing outcome. Observers are identified
// by Name and declare the event types they care about.
type Observer interface {
	// Name identifies the observer; Attach is idempotent per name.
	Name() string

	// EventTypes returns the event types this observer is interested in.
	EventTypes() []domain.EventType

	// Update handles the notification for one event. Errors are logged and
	// swallowed by the notifier; they never reach other observers or the caller.
	Update(ctx context.Context, event domain.DomainEvent) error
}

// Notifier fans notifications out to registered observers concurrently,
// isolating each observer's failure.
type Notifier struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *zap.Logger
}

// NewNotifier creates an observer notifier.
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger.Named("notifier")}
}

// Attach registers an observer. Attaching an observer whose name is already
// present is a no-op.
func (n *Notifier) Attach(observer Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, o := range n.observers {
		if o.Name() == observer.Name() {
			n.logger.Debug("observer already attached", zap.String("observer", observer.Name()))
			return
		}
	}
	n.observers = append(n.observers, observer)
	n.logger.Debug("observer attached", zap.String("observer", observer.Name()))
}

// Detach removes an observer by name. Detaching an absent observer is a no-op.
func (n *Notifier) Detach(observer Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, o := range n.observers {
		if o.Name() == observer.Name() {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}

// Notify invokes Update on every observer interested in the event's type,
// concurrently, and waits for all of them. Each observer's failure is logged
// locally and never propagates: Notify itself never returns an error and one
// observer cannot prevent a sibling from running.
func (n *Notifier) Notify(ctx context.Context, event domain.DomainEvent) {
	n.mu.RLock()
	interested := make([]Observer, 0, len(n.observers))
	for _, o := range n.observers {
		if observerWants(o, event.Type) {
			interested = append(interested, o)
		}
	}
	n.mu.RUnlock()

	if len(interested) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, o := range interested {
		wg.Add(1)
		go func(obs Observer) {
			defer wg.Done()
			if err := obs.Update(ctx, event); err != nil {
				n.logger.Error("observer update failed",
					zap.String("observer", obs.Name()),
					zap.String("event_id", event.ID),
					zap.String("event_type", string(event.Type)),
					zap.Error(err),
				)
			}
		}(o)
	}
	wg.Wait()
}

func observerWants(o Observer, eventType domain.EventType) bool {
	for _, t := range o.EventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}
