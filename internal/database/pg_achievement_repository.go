package database

import (
	"context"
	"fmt"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.AchievementRepository = (*pgAchievementRepository)(nil)

type pgAchievementRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgAchievementRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.AchievementRepository {
	return &pgAchievementRepository{
		db:     db,
		logger: logger.Named("PgAchievementRepo"),
	}
}

func (r *pgAchievementRepository) ListAchievements(ctx context.Context) ([]*models.Achievement, error) {
	var list []*models.Achievement
	err := pgxscan.Select(ctx, r.db, &list,
		`SELECT id, key, title, title_en, description, description_en, icon, required_value
		 FROM achievements ORDER BY required_value ASC, key ASC`)
	if err != nil {
		r.logger.Error("Failed to list achievements", zap.Error(err))
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return list, nil
}

func (r *pgAchievementRepository) UpsertAchievement(ctx context.Context, a *models.Achievement) error {
	query := `INSERT INTO achievements (key, title, title_en, description, description_en, icon, required_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			title = EXCLUDED.title, title_en = EXCLUDED.title_en,
			description = EXCLUDED.description, description_en = EXCLUDED.description_en,
			icon = EXCLUDED.icon, required_value = EXCLUDED.required_value
		RETURNING id`
	err := r.db.QueryRow(ctx, query, a.Key, a.Title, a.TitleEn, a.Description, a.DescriptionEn, a.Icon, a.RequiredValue).Scan(&a.ID)
	if err != nil {
		r.logger.Error("Failed to upsert achievement", zap.Error(err), zap.String("key", a.Key))
		return fmt.Errorf("failed to upsert achievement %s: %w", a.Key, err)
	}
	return nil
}

// userAchievementRow - строка JOIN user_achievements + achievements.
type userAchievementRow struct {
	models.UserAchievement
	Key           string `db:"key"`
	Title         string `db:"title"`
	TitleEn       string `db:"title_en"`
	Description   string `db:"description"`
	DescriptionEn string `db:"description_en"`
	Icon          string `db:"icon"`
	RequiredValue int    `db:"required_value"`
}

func (r *pgAchievementRepository) ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]*models.UserAchievement, error) {
	var rows []userAchievementRow
	err := pgxscan.Select(ctx, r.db, &rows, `
		SELECT ua.user_id, ua.achievement_id, ua.progress, ua.completed, ua.completed_at,
		       a.key, a.title, a.title_en, a.description, a.description_en, a.icon, a.required_value
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY a.required_value ASC, a.key ASC`, userID)
	if err != nil {
		r.logger.Error("Failed to list user achievements", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to list user achievements: %w", err)
	}

	out := make([]*models.UserAchievement, 0, len(rows))
	for i := range rows {
		row := rows[i]
		ua := row.UserAchievement
		ua.Achievement = &models.Achievement{
			ID:            row.AchievementID,
			Key:           row.Key,
			Title:         row.Title,
			TitleEn:       row.TitleEn,
			Description:   row.Description,
			DescriptionEn: row.DescriptionEn,
			Icon:          row.Icon,
			RequiredValue: row.RequiredValue,
		}
		out = append(out, &ua)
	}
	return out, nil
}

func (r *pgAchievementRepository) SaveUserAchievement(ctx context.Context, ua *models.UserAchievement) error {
	query := `INSERT INTO user_achievements (user_id, achievement_id, progress, completed, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, achievement_id) DO UPDATE SET
			progress = EXCLUDED.progress,
			completed = EXCLUDED.completed,
			completed_at = COALESCE(user_achievements.completed_at, EXCLUDED.completed_at)`
	_, err := r.db.Exec(ctx, query, ua.UserID, ua.AchievementID, ua.Progress, ua.Completed, ua.CompletedAt)
	if err != nil {
		r.logger.Error("Failed to save user achievement", zap.Error(err),
			zap.Stringer("userID", ua.UserID), zap.Stringer("achievementID", ua.AchievementID))
		return fmt.Errorf("failed to save user achievement: %w", err)
	}
	return nil
}
