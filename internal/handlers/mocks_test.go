package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/harborline/eventflow/internal/repository"
)

// MockRepository is a mock for the persistence capability.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, order *repository.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockRepository) SaveOrder(ctx context.Context, order *repository.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockRepository) FindOrder(ctx context.Context, id string) (*repository.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Order), args.Error(1)
}

func (m *MockRepository) CreateNotification(ctx context.Context, notification *repository.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockRepository) CreateAuditEntry(ctx context.Context, entry *repository.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) ListAuditEntries(ctx context.Context, eventType string, limit int) ([]*repository.AuditEntry, error) {
	args := m.Called(ctx, eventType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.AuditEntry), args.Error(1)
}

// MockSender is a mock for the notification sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, recipient, channel, subject, body string) error {
	args := m.Called(ctx, recipient, channel, subject, body)
	return args.Error(0)
}
