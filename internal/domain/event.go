package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a DomainEvent. The enumeration is closed: routing only
// knows the types listed here, and adding one requires a handler registration.
type EventType string

const (
	EventTypeOrderCreated          EventType = "order.created"
	EventTypeOrderCancelled        EventType = "order.cancelled"
	EventTypePaymentConfirmed      EventType = "payment.confirmed"
	EventTypeNotificationRequested EventType = "notification.requested"
)

// AllEventTypes returns every member of the closed enumeration, in a stable order.
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeOrderCreated,
		EventTypeOrderCancelled,
		EventTypePaymentConfirmed,
		EventTypeNotificationRequested,
	}
}

// Valid reports whether t is a member of the closed enumeration.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeOrderCreated, EventTypeOrderCancelled,
		EventTypePaymentConfirmed, EventTypeNotificationRequested:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// DomainEvent is the immutable envelope the pipeline routes. It is created once
// at ingress, fully populated, and never mutated afterwards. Payload holds the
// type-specific body; its shape always matches Type.
type DomainEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
	Payload   json.RawMessage `json:"payload"`
}

// NewDomainEvent builds an event envelope, stamping a fresh ID and timestamp.
func NewDomainEvent(eventType EventType, payload interface{}) (DomainEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return DomainEvent{}, fmt.Errorf("marshaling payload for %s: %w", eventType, err)
	}

	return DomainEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Version:   1,
		Payload:   data,
	}, nil
}

// DecodePayload unmarshals the event payload into v.
func (e DomainEvent) DecodePayload(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	return nil
}

// OrderCreatedPayload is the body of an order.created event.
type OrderCreatedPayload struct {
	OrderID    string  `json:"order_id"`
	CustomerID string  `json:"customer_id"`
	Total      float64 `json:"total"`
	Currency   string  `json:"currency"`
}

// OrderCancelledPayload is the body of an order.cancelled event.
type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// PaymentConfirmedPayload is the body of a payment.confirmed event.
type PaymentConfirmedPayload struct {
	PaymentID string  `json:"payment_id"`
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
}

// NotificationRequestedPayload is the body of a notification.requested event.
type NotificationRequestedPayload struct {
	Recipient string `json:"recipient"`
	Channel   string `json:"channel"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}
