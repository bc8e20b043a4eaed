// Package seed загружает встроенный учебный каталог: 7 сценариев курса и достижения.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"go.uber.org/zap"
)

//go:embed scenarios.json achievements.json
var catalogFS embed.FS

// Catalog - содержимое встроенных JSON файлов.
type Catalog struct {
	Scenarios    []*models.Scenario
	Achievements []*models.Achievement
}

// LoadCatalog читает и проверяет встроенный каталог.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := readJSON("scenarios.json", &c.Scenarios); err != nil {
		return nil, err
	}
	if err := readJSON("achievements.json", &c.Achievements); err != nil {
		return nil, err
	}

	for _, s := range c.Scenarios {
		if err := player.Validate(s); err != nil {
			return nil, fmt.Errorf("seed scenario %q: %w", s.Title, err)
		}
		if s.RequiredTier == "" {
			s.RequiredTier = models.TierFree
		}
	}
	return &c, nil
}

func readJSON(name string, dst interface{}) error {
	data, err := catalogFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read embedded %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse embedded %s: %w", name, err)
	}
	return nil
}

// Seeder upserts the catalog. Повторный запуск обновляет записи и не трогает прогресс пользователей.
type Seeder struct {
	scenarios    interfaces.ScenarioRepository
	achievements interfaces.AchievementRepository
	logger       *zap.Logger
}

func NewSeeder(scenarios interfaces.ScenarioRepository, achievements interfaces.AchievementRepository, logger *zap.Logger) *Seeder {
	return &Seeder{
		scenarios:    scenarios,
		achievements: achievements,
		logger:       logger.Named("Seeder"),
	}
}

func (s *Seeder) Run(ctx context.Context, c *Catalog) error {
	for _, sc := range c.Scenarios {
		if err := s.scenarios.Upsert(ctx, sc); err != nil {
			return err
		}
		s.logger.Debug("Scenario seeded", zap.Stringer("scenarioID", sc.ID), zap.Int("order", sc.Order))
	}
	for _, a := range c.Achievements {
		if err := s.achievements.UpsertAchievement(ctx, a); err != nil {
			return err
		}
	}
	s.logger.Info("Catalog seeded",
		zap.Int("scenarios", len(c.Scenarios)),
		zap.Int("achievements", len(c.Achievements)),
	)
	return nil
}
