package interfaces

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

// UserRepository defines user persistence (PostgreSQL).
type UserRepository interface {
	// CreateUser inserts the user and fills ID/CreatedAt.
	// Returns models.ErrEmailAlreadyExists on duplicate email.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByID returns models.ErrUserNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetUserByEmail returns models.ErrUserNotFound if the user does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLanguage(ctx context.Context, id uuid.UUID, language string) error
	MarkWelcomeSeen(ctx context.Context, id uuid.UUID) error
	// AddSecurityScore atomically adds delta and returns the new score.
	AddSecurityScore(ctx context.Context, id uuid.UUID, delta int) (int, error)
	UpdateRank(ctx context.Context, id uuid.UUID, rank int) error
	// ListLeaderboard returns users ordered by security score desc, created_at asc.
	// limit <= 0 means no limit.
	ListLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	// GetLeaderboardPosition returns the 1-based place of the user.
	GetLeaderboardPosition(ctx context.Context, id uuid.UUID) (int, error)
}
