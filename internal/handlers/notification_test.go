package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/domain"
	"github.com/harborline/eventflow/internal/handlers"
	"github.com/harborline/eventflow/internal/repository"
)

func TestNotificationHandlerPrefersLargeBatches(t *testing.T) {
	h := handlers.NewNotificationHandler(new(MockRepository), new(MockSender), 100, zap.NewNop())

	assert.True(t, h.CanHandle(domain.EventTypeNotificationRequested))
	assert.True(t, h.SupportsBatching())
	assert.Equal(t, 100, h.BatchSize())
}

func TestNotificationHandlerSendsAndRecords(t *testing.T) {
	repo := new(MockRepository)
	sender := new(MockSender)
	sender.On("Send", mock.Anything, "user@example.com", "email", "hello", "body").Return(nil)
	repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n *repository.Notification) bool {
		return n.Recipient == "user@example.com" && n.Status == "sent"
	})).Return(nil)
	h := handlers.NewNotificationHandler(repo, sender, 100, zap.NewNop())

	err := h.Process(context.Background(), mustEvent(t, domain.EventTypeNotificationRequested, domain.NotificationRequestedPayload{
		Recipient: "user@example.com",
		Channel:   "email",
		Subject:   "hello",
		Body:      "body",
	}))

	require.NoError(t, err)
	sender.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestNotificationHandlerDoesNotRecordFailedSend(t *testing.T) {
	repo := new(MockRepository)
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp unavailable"))
	h := handlers.NewNotificationHandler(repo, sender, 100, zap.NewNop())

	err := h.Process(context.Background(), mustEvent(t, domain.EventTypeNotificationRequested, domain.NotificationRequestedPayload{
		Recipient: "user@example.com",
	}))

	require.Error(t, err)
	repo.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}
