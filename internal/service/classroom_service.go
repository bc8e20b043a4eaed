package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"
	"qadamsafe/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ClassroomCodeLength    = 6
	classroomCodeAttempts  = 5
	maxClassroomNameLength = 120
)

// ClassroomService manages teacher classrooms.
type ClassroomService interface {
	CreateClassroom(ctx context.Context, ownerID uuid.UUID, role, name string) (*models.Classroom, error)
	JoinClassroom(ctx context.Context, userID uuid.UUID, code string) (*models.Classroom, error)
	ListClassrooms(ctx context.Context, userID uuid.UUID) ([]*models.Classroom, error)
	ListStudents(ctx context.Context, requesterID uuid.UUID, role string, classroomID uuid.UUID) ([]*models.ClassroomStudent, error)
}

type classroomServiceImpl struct {
	repo   interfaces.ClassroomRepository
	logger *zap.Logger
	code   func(length int) (string, error)
}

func NewClassroomService(repo interfaces.ClassroomRepository, logger *zap.Logger) ClassroomService {
	return &classroomServiceImpl{
		repo:   repo,
		logger: logger.Named("ClassroomService"),
		code:   utils.RandomCode,
	}
}

func (s *classroomServiceImpl) CreateClassroom(ctx context.Context, ownerID uuid.UUID, role, name string) (*models.Classroom, error) {
	if !models.IsStaffRole(role) {
		return nil, models.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxClassroomNameLength {
		return nil, fmt.Errorf("classroom name must be 1-%d characters: %w", maxClassroomNameLength, models.ErrInvalidInput)
	}

	// Коды случайные, при коллизии пробуем ещё раз
	for attempt := 1; attempt <= classroomCodeAttempts; attempt++ {
		code, err := s.code(ClassroomCodeLength)
		if err != nil {
			return nil, err
		}
		c := &models.Classroom{Name: name, Code: code, OwnerID: ownerID}
		err = s.repo.Create(ctx, c)
		if err == nil {
			s.logger.Info("Classroom created", zap.Stringer("ownerID", ownerID), zap.Stringer("classroomID", c.ID))
			return c, nil
		}
		if !errors.Is(err, models.ErrClassroomCodeTaken) {
			return nil, err
		}
		s.logger.Debug("Classroom code collision, retrying", zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("could not allocate a unique classroom code after %d attempts", classroomCodeAttempts)
}

func (s *classroomServiceImpl) JoinClassroom(ctx context.Context, userID uuid.UUID, code string) (*models.Classroom, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("classroom code is required: %w", models.ErrInvalidInput)
	}
	c, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	joined, err := s.repo.Join(ctx, c.ID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User joined classroom", zap.Stringer("userID", userID), zap.Stringer("classroomID", c.ID))
	return joined, nil
}

func (s *classroomServiceImpl) ListClassrooms(ctx context.Context, userID uuid.UUID) ([]*models.Classroom, error) {
	return s.repo.ListForUser(ctx, userID)
}

// ListStudents is allowed to the owner of the classroom and to admins.
func (s *classroomServiceImpl) ListStudents(ctx context.Context, requesterID uuid.UUID, role string, classroomID uuid.UUID) ([]*models.ClassroomStudent, error) {
	c, err := s.repo.GetByID(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != requesterID && role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}
	return s.repo.ListStudents(ctx, classroomID)
}
