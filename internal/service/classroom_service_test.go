package service

import (
	"context"
	"testing"

	"qadamsafe/internal/interfaces/mocks"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateClassroom(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("retries on code collision", func(t *testing.T) {
		repo := new(mocks.MockClassroomRepository)
		svc := NewClassroomService(repo, zap.NewNop()).(*classroomServiceImpl)
		codes := []string{"AAAAAA", "BBBBBB"}
		svc.code = func(n int) (string, error) {
			c := codes[0]
			codes = codes[1:]
			return c, nil
		}

		repo.On("Create", ctx, mock.MatchedBy(func(c *models.Classroom) bool { return c.Code == "AAAAAA" })).
			Return(models.ErrClassroomCodeTaken).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(c *models.Classroom) bool { return c.Code == "BBBBBB" })).
			Return(nil).Once()

		c, err := svc.CreateClassroom(ctx, owner, models.RoleTeacher, "  8Б класс ")
		require.NoError(t, err)
		assert.Equal(t, "BBBBBB", c.Code)
		assert.Equal(t, "8Б класс", c.Name)
		assert.Equal(t, owner, c.OwnerID)
		repo.AssertExpectations(t)
	})

	t.Run("students cannot create classrooms", func(t *testing.T) {
		repo := new(mocks.MockClassroomRepository)
		_, err := NewClassroomService(repo, zap.NewNop()).CreateClassroom(ctx, owner, models.RoleUser, "x")
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("empty name", func(t *testing.T) {
		repo := new(mocks.MockClassroomRepository)
		_, err := NewClassroomService(repo, zap.NewNop()).CreateClassroom(ctx, owner, models.RoleAdmin, "   ")
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestJoinClassroom(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockClassroomRepository)
	svc := NewClassroomService(repo, zap.NewNop())
	student := uuid.New()
	classroom := &models.Classroom{ID: uuid.New(), Code: "QWE123", StudentCount: 3}

	repo.On("GetByCode", ctx, "QWE123").Return(classroom, nil)
	repo.On("Join", ctx, classroom.ID, student).Return(&models.Classroom{ID: classroom.ID, StudentCount: 4}, nil).Once()

	joined, err := svc.JoinClassroom(ctx, student, " qwe123 ")
	require.NoError(t, err)
	assert.Equal(t, 4, joined.StudentCount)

	repo.On("Join", ctx, classroom.ID, student).Return(nil, models.ErrAlreadyJoined).Once()
	_, err = svc.JoinClassroom(ctx, student, "QWE123")
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)

	repo.On("GetByCode", ctx, "NOPE00").Return(nil, models.ErrClassroomNotFound)
	_, err = svc.JoinClassroom(ctx, student, "nope00")
	assert.ErrorIs(t, err, models.ErrClassroomNotFound)
}

func TestListStudents(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockClassroomRepository)
	svc := NewClassroomService(repo, zap.NewNop())
	owner := uuid.New()
	classroom := &models.Classroom{ID: uuid.New(), OwnerID: owner}
	students := []*models.ClassroomStudent{{UserID: uuid.New(), Name: "Aruzhan", SecurityScore: 90}}

	repo.On("GetByID", ctx, classroom.ID).Return(classroom, nil)
	repo.On("ListStudents", ctx, classroom.ID).Return(students, nil)

	got, err := svc.ListStudents(ctx, owner, models.RoleTeacher, classroom.ID)
	require.NoError(t, err)
	assert.Equal(t, students, got)

	_, err = svc.ListStudents(ctx, uuid.New(), models.RoleTeacher, classroom.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.ListStudents(ctx, uuid.New(), models.RoleAdmin, classroom.ID)
	assert.NoError(t, err)
}

func TestDeviceTokens(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockDeviceTokenRepository)
	svc := NewDeviceTokenService(repo, zap.NewNop())
	userID := uuid.New()

	repo.On("SaveDeviceToken", ctx, userID, "tok", models.PlatformIOS).Return(nil).Once()
	assert.NoError(t, svc.RegisterDeviceToken(ctx, userID, " tok ", "iOS"))

	assert.ErrorIs(t, svc.RegisterDeviceToken(ctx, userID, "tok", "windows"), models.ErrInvalidInput)
	assert.ErrorIs(t, svc.RegisterDeviceToken(ctx, userID, "", models.PlatformAndroid), models.ErrInvalidInput)

	repo.On("DeleteDeviceToken", ctx, userID, "tok").Return(nil).Once()
	assert.NoError(t, svc.UnregisterDeviceToken(ctx, userID, "tok"))
	assert.ErrorIs(t, svc.UnregisterDeviceToken(ctx, userID, " "), models.ErrInvalidInput)

	repo.AssertExpectations(t)
}
