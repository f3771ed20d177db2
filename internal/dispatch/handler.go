// Package dispatch implements the in-process event pipeline: a build-once
// strategy registry, a size/age-bounded batch accumulator, a concurrent batch
// executor with per-event retry, and observer fan-out with failure isolation.
package dispatch

import (
	"context"

	"github.com/harborline/eventflow/internal/domain"
)

// DefaultBatchSize is used when a batching handler does not specialize its
// preferred batch size.
const DefaultBatchSize = 10

// Handler is the strategy contract for processing one event type (or several).
// Process must be safe to call concurrently for different events and must
// tolerate at-least-once delivery: the executor retries it on failure.
type Handler interface {
	// CanHandle reports whether this handler processes the given event type.
	// Pure predicate, no side effects.
	CanHandle(eventType domain.EventType) bool

	// Process performs the unit of work for exactly one event.
	Process(ctx context.Context, event domain.DomainEvent) error

	// SupportsBatching reports whether events for this handler should be
	// accumulated into batches instead of processed immediately.
	SupportsBatching() bool

	// BatchSize returns the preferred maximum batch size. Values < 1 fall
	// back to DefaultBatchSize.
	BatchSize() int
}
