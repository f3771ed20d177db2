// Package handlers contains the concrete processing strategies registered
// with the dispatch registry.
package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	"github.com/harborline/eventflow/internal/repository"
	apperrors "github.com/harborline/eventflow/pkg/errors"
)

// OrderHandler processes order lifecycle events in batches: order ingest is
// bursty and amortizes well over the order projection writes.
type OrderHandler struct {
	repo      repository.Repository
	batchSize int
	logger    *zap.Logger
}

// NewOrderHandler creates the order strategy. batchSize < 1 falls back to the
// registry default at accumulation time.
func NewOrderHandler(repo repository.Repository, batchSize int, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		repo:      repo,
		batchSize: batchSize,
		logger:    logger.Named("order-handler"),
	}
}

func (h *OrderHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventTypeOrderCreated || eventType == domain.EventTypeOrderCancelled
}

func (h *OrderHandler) SupportsBatching() bool { return true }

func (h *OrderHandler) BatchSize() int { return h.batchSize }

// Process projects one order event into the order store. Called concurrently
// for different events of a batch and retried on failure, so both branches
// are written to tolerate replays.
func (h *OrderHandler) Process(ctx context.Context, event domain.DomainEvent) error {
	switch event.Type {
	case domain.EventTypeOrderCreated:
		return h.handleCreated(ctx, event)
	case domain.EventTypeOrderCancelled:
		return h.handleCancelled(ctx, event)
	default:
		return apperrors.Processing(
			fmt.Sprintf("order handler received unexpected event type %s", event.Type), nil)
	}
}

func (h *OrderHandler) handleCreated(ctx context.Context, event domain.DomainEvent) error {
	var payload domain.OrderCreatedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	if existing, err := h.repo.FindOrder(ctx, payload.OrderID); err == nil && existing != nil {
		// Replay of an already projected event.
		h.logger.Debug("order already exists, skipping",
			zap.String("order_id", payload.OrderID),
			zap.String("event_id", event.ID),
		)
		return nil
	} else if err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	order := &repository.Order{
		ID:         payload.OrderID,
		CustomerID: payload.CustomerID,
		Total:      payload.Total,
		Currency:   payload.Currency,
		Status:     repository.OrderStatusCreated,
		CreatedAt:  event.Timestamp,
	}
	if err := h.repo.CreateOrder(ctx, order); err != nil {
		return err
	}

	h.logger.Info("order projected",
		zap.String("order_id", payload.OrderID),
		zap.String("customer_id", payload.CustomerID),
	)
	return nil
}

func (h *OrderHandler) handleCancelled(ctx context.Context, event domain.DomainEvent) error {
	var payload domain.OrderCancelledPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	order, err := h.repo.FindOrder(ctx, payload.OrderID)
	if apperrors.IsNotFound(err) {
		// Cancellation arrived before (or without) the creation event; record
		// the terminal state so a late creation replay cannot resurrect it.
		order = &repository.Order{
			ID:        payload.OrderID,
			CreatedAt: event.Timestamp,
		}
		err = nil
	}
	if err != nil {
		return err
	}

	order.Status = repository.OrderStatusCancelled
	order.CancelReason = payload.Reason
	order.UpdatedAt = time.Now().UTC()
	if err := h.repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	h.logger.Info("order cancelled",
		zap.String("order_id", payload.OrderID),
		zap.String("reason", payload.Reason),
	)
	return nil
}
