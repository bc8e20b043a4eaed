package mocks

import (
	"context"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAchievementRepository struct {
	mock.Mock
}

var _ interfaces.AchievementRepository = (*MockAchievementRepository)(nil)

func (m *MockAchievementRepository) ListAchievements(ctx context.Context) ([]*models.Achievement, error) {
	args := m.Called(ctx)
	if a := args.Get(0); a != nil {
		return a.([]*models.Achievement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAchievementRepository) UpsertAchievement(ctx context.Context, a *models.Achievement) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAchievementRepository) ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]*models.UserAchievement, error) {
	args := m.Called(ctx, userID)
	if a := args.Get(0); a != nil {
		return a.([]*models.UserAchievement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAchievementRepository) SaveUserAchievement(ctx context.Context, ua *models.UserAchievement) error {
	args := m.Called(ctx, ua)
	return args.Error(0)
}
