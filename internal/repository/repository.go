package repository

import (
	"context"
)

// Repository is the persistence capability handlers and the audit observer
// depend on. The pipeline core never touches a storage engine directly; it
// only sees this contract.
type Repository interface {
	CreateOrder(ctx context.Context, order *Order) error
	SaveOrder(ctx context.Context, order *Order) error
	FindOrder(ctx context.Context, id string) (*Order, error)

	CreateNotification(ctx context.Context, notification *Notification) error

	CreateAuditEntry(ctx context.Context, entry *AuditEntry) error
	ListAuditEntries(ctx context.Context, eventType string, limit int) ([]*AuditEntry, error)
}
