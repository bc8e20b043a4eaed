package database

import (
	"context"
	"errors"
	"fmt"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const progressColumns = `user_id, scenario_id, completed, score, mistakes, decisions, attempts, completed_at, updated_at`

// Лучший результат и минимум ошибок сохраняются, решения - последней попытки,
// completed_at - от первого прохождения.
const recordCompletionQuery = `
	INSERT INTO user_progress AS p (user_id, scenario_id, completed, score, mistakes, decisions, attempts, completed_at, updated_at)
	VALUES ($1, $2, TRUE, $3, $4, $5, 1, $6, $6)
	ON CONFLICT (user_id, scenario_id) DO UPDATE SET
		score        = GREATEST(p.score, EXCLUDED.score),
		mistakes     = CASE WHEN p.completed THEN LEAST(p.mistakes, EXCLUDED.mistakes) ELSE EXCLUDED.mistakes END,
		decisions    = EXCLUDED.decisions,
		attempts     = p.attempts + 1,
		completed    = TRUE,
		completed_at = COALESCE(p.completed_at, EXCLUDED.completed_at),
		updated_at   = EXCLUDED.updated_at
	RETURNING ` + progressColumns

var _ interfaces.ProgressRepository = (*pgProgressRepository)(nil)

type pgProgressRepository struct {
	db     interfaces.TxStarter
	logger *zap.Logger
}

func NewPgProgressRepository(db interfaces.TxStarter, logger *zap.Logger) interfaces.ProgressRepository {
	return &pgProgressRepository{
		db:     db,
		logger: logger.Named("PgProgressRepo"),
	}
}

func (r *pgProgressRepository) Get(ctx context.Context, userID, scenarioID uuid.UUID) (*models.UserProgress, error) {
	var p models.UserProgress
	err := pgxscan.Get(ctx, r.db, &p,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = $1 AND scenario_id = $2`, userID, scenarioID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get progress", zap.Error(err), zap.Stringer("userID", userID), zap.Stringer("scenarioID", scenarioID))
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return &p, nil
}

func (r *pgProgressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserProgress, error) {
	var list []*models.UserProgress
	err := pgxscan.Select(ctx, r.db, &list,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		r.logger.Error("Failed to list progress", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return list, nil
}

func (r *pgProgressRepository) RecordCompletion(ctx context.Context, run *models.UserProgress) (*models.UserProgress, int, error) {
	decisions := run.Decisions
	if decisions == nil {
		decisions = []models.Decision{}
	}
	var merged models.UserProgress
	previousBest := 0
	err := WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// Прохождения одного пользователя идут по очереди: следующее увидит
		// уже закоммиченный лучший результат предыдущего.
		if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, run.UserID); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		var completed bool
		var score int
		err := tx.QueryRow(ctx, `SELECT completed, score FROM user_progress WHERE user_id = $1 AND scenario_id = $2`,
			run.UserID, run.ScenarioID).Scan(&completed, &score)
		switch {
		case err == nil:
			if completed {
				previousBest = score
			}
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("failed to read previous progress: %w", err)
		}
		return pgxscan.Get(ctx, tx, &merged, recordCompletionQuery,
			run.UserID, run.ScenarioID, run.Score, run.Mistakes, decisions, run.UpdatedAt)
	})
	if err != nil {
		r.logger.Error("Failed to record completion", zap.Error(err),
			zap.Stringer("userID", run.UserID), zap.Stringer("scenarioID", run.ScenarioID))
		return nil, 0, fmt.Errorf("failed to record completion: %w", err)
	}
	r.logger.Debug("Completion recorded",
		zap.Stringer("userID", run.UserID),
		zap.Stringer("scenarioID", run.ScenarioID),
		zap.Int("previousBest", previousBest),
		zap.Int("bestScore", merged.Score),
		zap.Int("attempts", merged.Attempts),
	)
	return &merged, previousBest, nil
}
