package mocks

import (
	"context"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockScenarioRepository struct {
	mock.Mock
}

var _ interfaces.ScenarioRepository = (*MockScenarioRepository)(nil)

func (m *MockScenarioRepository) Create(ctx context.Context, scenario *models.Scenario) error {
	args := m.Called(ctx, scenario)
	return args.Error(0)
}

func (m *MockScenarioRepository) Upsert(ctx context.Context, scenario *models.Scenario) error {
	args := m.Called(ctx, scenario)
	return args.Error(0)
}

func (m *MockScenarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scenario, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Scenario), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScenarioRepository) List(ctx context.Context) ([]*models.Scenario, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.([]*models.Scenario), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScenarioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
