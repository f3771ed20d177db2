package dispatch

import (
	"github.com/harborline/eventflow/internal/domain"
)

// Registry maps event types to the handler that processes them. It is built
// once by the composition root before traffic starts and is read-only
// afterwards, so lookups need no locking.
type Registry struct {
	handlers map[domain.EventType]Handler
}

// NewRegistry builds a registry from the ordered handler list. For every
// handler, every event type it claims via CanHandle is mapped to it; when
// several handlers claim the same type, the one later in the list wins.
// A type no handler claims simply has no entry.
func NewRegistry(handlers ...Handler) *Registry {
	mapped := make(map[domain.EventType]Handler)
	for _, h := range handlers {
		for _, t := range domain.AllEventTypes() {
			if h.CanHandle(t) {
				mapped[t] = h
			}
		}
	}
	return &Registry{handlers: mapped}
}

// ProcessorFor returns the handler registered for the event type. The second
// return value is false when no handler is mapped; absence is a legitimate
// business state, not an error.
func (r *Registry) ProcessorFor(eventType domain.EventType) (Handler, bool) {
	h, ok := r.handlers[eventType]
	return h, ok
}

// SupportedTypes returns all currently mapped event types, in the stable
// enumeration order.
func (r *Registry) SupportedTypes() []domain.EventType {
	types := make([]domain.EventType, 0, len(r.handlers))
	for _, t := range domain.AllEventTypes() {
		if _, ok := r.handlers[t]; ok {
			types = append(types, t)
		}
	}
	return types
}
