package repository

import (
	"time"
)

// Order statuses as recorded by the order and payment handlers.
const (
	OrderStatusCreated   = "created"
	OrderStatusCancelled = "cancelled"
	OrderStatusPaid      = "paid"
)

// Order is the persisted projection of order events.
type Order struct {
	ID           string `gorm:"primaryKey"`
	CustomerID   string `gorm:"index"`
	Total        float64
	Currency     string
	Status       string `gorm:"index"`
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Notification is a record of a requested notification and its delivery state.
type Notification struct {
	ID        string `gorm:"primaryKey"`
	Recipient string `gorm:"index"`
	Channel   string
	Subject   string
	Status    string
	CreatedAt time.Time
}

// AuditEntry is one row per observer notification, written by the audit
// observer for every event type.
type AuditEntry struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	EventID    string `gorm:"index"`
	EventType  string `gorm:"index"`
	OccurredAt time.Time
	RecordedAt time.Time
}
