package mocks

import (
	"context"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockProgressRepository struct {
	mock.Mock
}

var _ interfaces.ProgressRepository = (*MockProgressRepository)(nil)

func (m *MockProgressRepository) Get(ctx context.Context, userID, scenarioID uuid.UUID) (*models.UserProgress, error) {
	args := m.Called(ctx, userID, scenarioID)
	if p := args.Get(0); p != nil {
		return p.(*models.UserProgress), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserProgress, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.([]*models.UserProgress), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProgressRepository) RecordCompletion(ctx context.Context, run *models.UserProgress) (*models.UserProgress, int, error) {
	args := m.Called(ctx, run)
	if rf, ok := args.Get(0).(func(context.Context, *models.UserProgress) *models.UserProgress); ok {
		return rf(ctx, run), args.Int(1), args.Error(2)
	}
	if p := args.Get(0); p != nil {
		return p.(*models.UserProgress), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}
