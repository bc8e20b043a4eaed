package mocks

import (
	"context"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockClassroomRepository struct {
	mock.Mock
}

var _ interfaces.ClassroomRepository = (*MockClassroomRepository)(nil)

func (m *MockClassroomRepository) Create(ctx context.Context, c *models.Classroom) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockClassroomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Classroom, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassroomRepository) GetByCode(ctx context.Context, code string) (*models.Classroom, error) {
	args := m.Called(ctx, code)
	if c := args.Get(0); c != nil {
		return c.(*models.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassroomRepository) Join(ctx context.Context, classroomID, userID uuid.UUID) (*models.Classroom, error) {
	args := m.Called(ctx, classroomID, userID)
	if c := args.Get(0); c != nil {
		return c.(*models.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassroomRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Classroom, error) {
	args := m.Called(ctx, userID)
	if c := args.Get(0); c != nil {
		return c.([]*models.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClassroomRepository) ListStudents(ctx context.Context, classroomID uuid.UUID) ([]*models.ClassroomStudent, error) {
	args := m.Called(ctx, classroomID)
	if s := args.Get(0); s != nil {
		return s.([]*models.ClassroomStudent), args.Error(1)
	}
	return nil, args.Error(1)
}
