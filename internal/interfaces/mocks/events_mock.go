package mocks

import (
	"context"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPushPublisher struct {
	mock.Mock
}

var _ interfaces.PushPublisher = (*MockPushPublisher)(nil)

func (m *MockPushPublisher) PublishPushNotification(ctx context.Context, payload models.PushNotificationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockClientNotifier struct {
	mock.Mock
}

var _ interfaces.ClientNotifier = (*MockClientNotifier)(nil)

func (m *MockClientNotifier) SendToUser(userID uuid.UUID, event models.ClientEvent) bool {
	args := m.Called(userID, event)
	return args.Bool(0)
}
