package mocks

import (
	"context"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockDeviceTokenRepository struct {
	mock.Mock
}

var _ interfaces.DeviceTokenRepository = (*MockDeviceTokenRepository)(nil)

func (m *MockDeviceTokenRepository) SaveDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	args := m.Called(ctx, userID, token, platform)
	return args.Error(0)
}

func (m *MockDeviceTokenRepository) GetDeviceTokensForUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	args := m.Called(ctx, userID)
	if t := args.Get(0); t != nil {
		return t.([]models.DeviceToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDeviceTokenRepository) DeleteDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockDeviceTokenRepository) DeleteDeviceTokens(ctx context.Context, tokens []string) (int64, error) {
	args := m.Called(ctx, tokens)
	return args.Get(0).(int64), args.Error(1)
}
