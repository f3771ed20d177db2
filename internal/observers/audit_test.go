package observers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	"github.com/harborline/eventflow/internal/observers"
	"github.com/harborline/eventflow/internal/repository"
)

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

func TestAuditObserverInterestedInAllTypes(t *testing.T) {
	o := observers.NewAuditObserver(new(MockRepository), zap.NewNop())

	assert.Equal(t, "audit", o.Name())
	assert.ElementsMatch(t, domain.AllEventTypes(), o.EventTypes())
}

func TestAuditObserverRecordsEntry(t *testing.T) {
	event, err := domain.NewDomainEvent(domain.EventTypeOrderCreated, domain.OrderCreatedPayload{OrderID: "ord-1"})
	require.NoError(t, err)

	repo := new(MockRepository)
	repo.On("CreateAuditEntry", mock.Anything, mock.MatchedBy(func(e *repository.AuditEntry) bool {
		return e.EventID == event.ID && e.EventType == "order.created"
	})).Return(nil)
	o := observers.NewAuditObserver(repo, zap.NewNop())

	require.NoError(t, o.Update(context.Background(), event))
	repo.AssertExpectations(t)
}

func TestAuditObserverSurfacesRepositoryFailure(t *testing.T) {
	event, err := domain.NewDomainEvent(domain.EventTypeOrderCreated, domain.OrderCreatedPayload{OrderID: "ord-1"})
	require.NoError(t, err)

	repo := new(MockRepository)
	repo.On("CreateAuditEntry", mock.Anything, mock.Anything).Return(errors.New("db down"))
	o := observers.NewAuditObserver(repo, zap.NewNop())

	// The notifier swallows this; the observer itself reports it truthfully.
	assert.Error(t, o.Update(context.Background(), event))
}
