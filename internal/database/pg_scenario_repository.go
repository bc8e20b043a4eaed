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
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const scenarioColumns = `id, title, title_en, title_kk, description, description_en, description_kk,
	type, difficulty, required_tier, points_reward, sort_order, is_legitimate, is_ai_generated,
	tags, content, created_by, created_at, updated_at`

const (
	insertScenarioQuery = `
		INSERT INTO scenarios (id, title, title_en, title_kk, description, description_en, description_kk,
			type, difficulty, required_tier, points_reward, sort_order, is_legitimate, is_ai_generated,
			tags, content, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	upsertScenarioSuffix = `
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, title_en = EXCLUDED.title_en, title_kk = EXCLUDED.title_kk,
			description = EXCLUDED.description, description_en = EXCLUDED.description_en,
			description_kk = EXCLUDED.description_kk, type = EXCLUDED.type,
			difficulty = EXCLUDED.difficulty, required_tier = EXCLUDED.required_tier,
			points_reward = EXCLUDED.points_reward, sort_order = EXCLUDED.sort_order,
			is_legitimate = EXCLUDED.is_legitimate, is_ai_generated = EXCLUDED.is_ai_generated,
			tags = EXCLUDED.tags, content = EXCLUDED.content`
	returningScenarioTimes = ` RETURNING created_at, updated_at`
)

var _ interfaces.ScenarioRepository = (*pgScenarioRepository)(nil)

type pgScenarioRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgScenarioRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ScenarioRepository {
	return &pgScenarioRepository{
		db:     db,
		logger: logger.Named("PgScenarioRepo"),
	}
}

func scenarioArgs(s *models.Scenario) []interface{} {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return []interface{}{
		s.ID, s.Title, s.TitleEn, s.TitleKk, s.Description, s.DescriptionEn, s.DescriptionKk,
		s.Type, s.Difficulty, s.RequiredTier, s.PointsReward, s.Order, s.IsLegitimate, s.IsAIGenerated,
		pq.Array(tags), s.Content, s.CreatedBy,
	}
}

func (r *pgScenarioRepository) Create(ctx context.Context, s *models.Scenario) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, insertScenarioQuery+returningScenarioTimes, scenarioArgs(s)...).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert scenario", zap.Error(err), zap.String("scenarioID", s.ID.String()))
		return fmt.Errorf("failed to insert scenario: %w", err)
	}
	r.logger.Info("Scenario created", zap.String("scenarioID", s.ID.String()), zap.String("title", s.Title))
	return nil
}

func (r *pgScenarioRepository) Upsert(ctx context.Context, s *models.Scenario) error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("upsert requires a scenario id: %w", models.ErrInvalidInput)
	}
	err := r.db.QueryRow(ctx, insertScenarioQuery+upsertScenarioSuffix+returningScenarioTimes, scenarioArgs(s)...).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert scenario", zap.Error(err), zap.String("scenarioID", s.ID.String()))
		return fmt.Errorf("failed to upsert scenario: %w", err)
	}
	return nil
}

func (r *pgScenarioRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scenario, error) {
	var s models.Scenario
	err := pgxscan.Get(ctx, r.db, &s, `SELECT `+scenarioColumns+` FROM scenarios WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrScenarioNotFound
		}
		r.logger.Error("Failed to get scenario", zap.Error(err), zap.String("scenarioID", id.String()))
		return nil, fmt.Errorf("failed to get scenario %s: %w", id, err)
	}
	return &s, nil
}

func (r *pgScenarioRepository) List(ctx context.Context) ([]*models.Scenario, error) {
	var list []*models.Scenario
	err := pgxscan.Select(ctx, r.db, &list, `SELECT `+scenarioColumns+` FROM scenarios ORDER BY sort_order ASC, created_at ASC`)
	if err != nil {
		r.logger.Error("Failed to list scenarios", zap.Error(err))
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	return list, nil
}

func (r *pgScenarioRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete scenario", zap.Error(err), zap.String("scenarioID", id.String()))
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrScenarioNotFound
	}
	r.logger.Info("Scenario deleted", zap.String("scenarioID", id.String()))
	return nil
}
