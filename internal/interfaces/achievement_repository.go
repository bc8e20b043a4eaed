package interfaces

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

type AchievementRepository interface {
	ListAchievements(ctx context.Context) ([]*models.Achievement, error)
	// UpsertAchievement matches on Key.
	UpsertAchievement(ctx context.Context, a *models.Achievement) error
	// ListUserAchievements returns rows with Achievement populated.
	ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]*models.UserAchievement, error)
	SaveUserAchievement(ctx context.Context, ua *models.UserAchievement) error
}
