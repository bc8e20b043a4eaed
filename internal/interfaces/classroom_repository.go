package interfaces

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

type ClassroomRepository interface {
	// Create returns models.ErrClassroomCodeTaken when the code collides.
	Create(ctx context.Context, c *models.Classroom) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Classroom, error)
	GetByCode(ctx context.Context, code string) (*models.Classroom, error)
	// Join adds the membership and increments student_count in one transaction.
	// Returns models.ErrAlreadyJoined if the user is already a member.
	Join(ctx context.Context, classroomID, userID uuid.UUID) (*models.Classroom, error)
	// ListForUser returns classrooms the user owns or has joined.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Classroom, error)
	ListStudents(ctx context.Context, classroomID uuid.UUID) ([]*models.ClassroomStudent, error)
}
