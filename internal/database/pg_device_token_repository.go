package database

import (
	"context"
	"fmt"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ interfaces.DeviceTokenRepository = (*pgDeviceTokenRepository)(nil)

type pgDeviceTokenRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgDeviceTokenRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.DeviceTokenRepository {
	return &pgDeviceTokenRepository{
		db:     db,
		logger: logger.Named("PgDeviceTokenRepo"),
	}
}

// SaveDeviceToken: токен уникален глобально, при повторной регистрации переходит к новому пользователю.
func (r *pgDeviceTokenRepository) SaveDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	query := `INSERT INTO user_device_tokens (token, user_id, platform, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = NOW()`
	if _, err := r.db.Exec(ctx, query, token, userID, platform); err != nil {
		r.logger.Error("Failed to save device token", zap.Error(err), zap.Stringer("userID", userID), zap.String("platform", platform))
		return fmt.Errorf("failed to save device token: %w", err)
	}
	r.logger.Info("Device token saved", zap.Stringer("userID", userID), zap.String("platform", platform))
	return nil
}

func (r *pgDeviceTokenRepository) GetDeviceTokensForUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error) {
	var tokens []models.DeviceToken
	err := pgxscan.Select(ctx, r.db, &tokens,
		`SELECT user_id, token, platform, updated_at FROM user_device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to get device tokens", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to get device tokens: %w", err)
	}
	return tokens, nil
}

func (r *pgDeviceTokenRepository) DeleteDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM user_device_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		r.logger.Error("Failed to delete device token", zap.Error(err), zap.Stringer("userID", userID))
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgDeviceTokenRepository) DeleteDeviceTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM user_device_tokens WHERE token = ANY($1)`, pq.Array(tokens))
	if err != nil {
		r.logger.Error("Failed to delete invalid device tokens", zap.Error(err), zap.Int("count", len(tokens)))
		return 0, fmt.Errorf("failed to delete device tokens: %w", err)
	}
	r.logger.Info("Invalid device tokens deleted", zap.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}
