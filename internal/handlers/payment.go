package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/dispatch"
	"github.com/harborline/eventflow/internal/domain"
	"github.com/harborline/eventflow/internal/repository"
)

// PaymentHandler marks orders paid. Payments are latency sensitive and low
// volume, so they take the immediate path instead of batching.
type PaymentHandler struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewPaymentHandler creates the payment strategy.
func NewPaymentHandler(repo repository.Repository, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		repo:   repo,
		logger: logger.Named("payment-handler"),
	}
}

func (h *PaymentHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventTypePaymentConfirmed
}

func (h *PaymentHandler) SupportsBatching() bool { return false }

func (h *PaymentHandler) BatchSize() int { return dispatch.DefaultBatchSize }

func (h *PaymentHandler) Process(ctx context.Context, event domain.DomainEvent) error {
	var payload domain.PaymentConfirmedPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	order, err := h.repo.FindOrder(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if order.Status == repository.OrderStatusPaid {
		// Replayed confirmation.
		return nil
	}

	order.Status = repository.OrderStatusPaid
	order.UpdatedAt = time.Now().UTC()
	if err := h.repo.SaveOrder(ctx, order); err != nil {
		return err
	}

	h.logger.Info("order marked paid",
		zap.String("order_id", payload.OrderID),
		zap.String("payment_id", payload.PaymentID),
		zap.Float64("amount", payload.Amount),
	)
	return nil
}
