package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScenarioService serves the scenario catalog with tier and unlock rules applied.
type ScenarioService interface {
	ListScenarios(ctx context.Context, userID uuid.UUID) ([]*models.ScenarioWithStatus, error)
	GetScenario(ctx context.Context, userID, scenarioID uuid.UUID) (*models.ScenarioWithStatus, error)
	CreateScenario(ctx context.Context, authorID uuid.UUID, scenario *models.Scenario) (*models.Scenario, error)
	DeleteScenario(ctx context.Context, scenarioID uuid.UUID) error
}

type scenarioServiceImpl struct {
	userRepo     interfaces.UserRepository
	scenarioRepo interfaces.ScenarioRepository
	progressRepo interfaces.ProgressRepository
	logger       *zap.Logger
}

func NewScenarioService(
	userRepo interfaces.UserRepository,
	scenarioRepo interfaces.ScenarioRepository,
	progressRepo interfaces.ProgressRepository,
	logger *zap.Logger,
) ScenarioService {
	return &scenarioServiceImpl{
		userRepo:     userRepo,
		scenarioRepo: scenarioRepo,
		progressRepo: progressRepo,
		logger:       logger.Named("ScenarioService"),
	}
}

// catalog - сценарии, доступные пользователю по подписке, с прогрессом и блокировками.
type catalog struct {
	user      *models.User
	scenarios []*models.Scenario
	progress  map[uuid.UUID]*models.UserProgress
	locked    map[uuid.UUID]bool
}

func loadCatalog(ctx context.Context, userRepo interfaces.UserRepository, scenarioRepo interfaces.ScenarioRepository, progressRepo interfaces.ProgressRepository, userID uuid.UUID) (*catalog, error) {
	user, err := userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := scenarioRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	records, err := progressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}

	c := &catalog{
		user:     user,
		progress: make(map[uuid.UUID]*models.UserProgress, len(records)),
	}
	for _, s := range all {
		if user.SubscriptionTier.CanAccess(s.RequiredTier) {
			c.scenarios = append(c.scenarios, s)
		}
	}
	for _, p := range records {
		c.progress[p.ScenarioID] = p
	}
	c.locked = computeLocks(c.scenarios, c.progress)
	return c, nil
}

// check returns ErrSubscriptionRequired or ErrScenarioLocked if the user may not play s.
func (c *catalog) check(s *models.Scenario) error {
	if !c.user.SubscriptionTier.CanAccess(s.RequiredTier) {
		return models.ErrSubscriptionRequired
	}
	if c.locked[s.ID] {
		return models.ErrScenarioLocked
	}
	return nil
}

func (c *catalog) view(s *models.Scenario) *models.ScenarioWithStatus {
	return &models.ScenarioWithStatus{
		Scenario:     s,
		Locked:       c.locked[s.ID],
		UserProgress: c.progress[s.ID],
	}
}

// computeLocks applies the unlock chain: non-AI scenarios ordered by Order,
// the first is open, each next opens after a clean (0 mistakes) completion of the previous one.
// AI-generated scenarios are never locked.
func computeLocks(scenarios []*models.Scenario, progress map[uuid.UUID]*models.UserProgress) map[uuid.UUID]bool {
	chain := make([]*models.Scenario, 0, len(scenarios))
	for _, s := range scenarios {
		if !s.IsAIGenerated {
			chain = append(chain, s)
		}
	}
	slices.SortStableFunc(chain, func(a, b *models.Scenario) int { return a.Order - b.Order })

	locked := make(map[uuid.UUID]bool, len(chain))
	for i, s := range chain {
		if i == 0 {
			continue
		}
		locked[s.ID] = !progress[chain[i-1].ID].IsPerfect()
	}
	return locked
}

func (s *scenarioServiceImpl) ListScenarios(ctx context.Context, userID uuid.UUID) ([]*models.ScenarioWithStatus, error) {
	c, err := loadCatalog(ctx, s.userRepo, s.scenarioRepo, s.progressRepo, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.ScenarioWithStatus, 0, len(c.scenarios))
	for _, sc := range c.scenarios {
		out = append(out, c.view(sc))
	}
	return out, nil
}

func (s *scenarioServiceImpl) GetScenario(ctx context.Context, userID, scenarioID uuid.UUID) (*models.ScenarioWithStatus, error) {
	scenario, err := s.scenarioRepo.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	c, err := loadCatalog(ctx, s.userRepo, s.scenarioRepo, s.progressRepo, userID)
	if err != nil {
		return nil, err
	}
	if err := c.check(scenario); err != nil {
		s.logger.Debug("Scenario access denied", zap.Stringer("userID", userID), zap.Stringer("scenarioID", scenarioID), zap.Error(err))
		return nil, err
	}
	return c.view(scenario), nil
}

// CreateScenario stores an authored scenario after validating its structure.
func (s *scenarioServiceImpl) CreateScenario(ctx context.Context, authorID uuid.UUID, scenario *models.Scenario) (*models.Scenario, error) {
	if err := validateScenarioMeta(scenario); err != nil {
		return nil, err
	}
	if err := player.Validate(scenario); err != nil {
		return nil, err
	}
	scenario.CreatedBy = &authorID
	if err := s.scenarioRepo.Create(ctx, scenario); err != nil {
		s.logger.Error("Failed to create scenario", zap.Error(err), zap.String("title", scenario.Title))
		return nil, err
	}
	s.logger.Info("Scenario created", zap.Stringer("scenarioID", scenario.ID), zap.Stringer("authorID", authorID))
	return scenario, nil
}

func (s *scenarioServiceImpl) DeleteScenario(ctx context.Context, scenarioID uuid.UUID) error {
	if err := s.scenarioRepo.Delete(ctx, scenarioID); err != nil {
		if !errors.Is(err, models.ErrScenarioNotFound) {
			s.logger.Error("Failed to delete scenario", zap.Error(err), zap.Stringer("scenarioID", scenarioID))
		}
		return err
	}
	s.logger.Info("Scenario deleted", zap.Stringer("scenarioID", scenarioID))
	return nil
}

// validateScenarioMeta checks the catalog fields; steps are checked by player.Validate.
func validateScenarioMeta(s *models.Scenario) error {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		return fmt.Errorf("%w: title is required", models.ErrInvalidScenario)
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", models.ErrInvalidScenario, s.Type)
	}
	if s.Difficulty == "" {
		s.Difficulty = models.DifficultyBeginner
	}
	if !s.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", models.ErrInvalidScenario, s.Difficulty)
	}
	if s.RequiredTier == "" {
		s.RequiredTier = models.TierFree
	}
	if !s.RequiredTier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", models.ErrInvalidScenario, s.RequiredTier)
	}
	if s.PointsReward < 0 {
		return fmt.Errorf("%w: negative points reward", models.ErrInvalidScenario)
	}
	return nil
}
