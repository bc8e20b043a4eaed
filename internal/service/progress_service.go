package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var scenarioCompletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qadamsafe_scenario_completions_total",
		Help: "Recorded scenario runs, labelled by whether the run had no mistakes.",
	},
	[]string{"perfect"},
)

// ProgressService records runs and reports progress.
type ProgressService interface {
	// CompleteScenario replays client choices and records the run.
	CompleteScenario(ctx context.Context, userID, scenarioID uuid.UUID, choices []player.Choice) (*models.CompletionResult, error)
	// RecordRun stores an already scored run (used by server-driven sessions).
	RecordRun(ctx context.Context, userID uuid.UUID, scenario *models.Scenario, res *player.Result) (*models.CompletionResult, error)
	GetProgress(ctx context.Context, userID uuid.UUID) ([]*models.UserProgress, error)
	// GetScenarioProgress returns nil, nil when the scenario was never completed.
	GetScenarioProgress(ctx context.Context, userID, scenarioID uuid.UUID) (*models.UserProgress, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)
}

type progressServiceImpl struct {
	userRepo     interfaces.UserRepository
	scenarioRepo interfaces.ScenarioRepository
	progressRepo interfaces.ProgressRepository
	achievements AchievementService
	leaderboard  LeaderboardService
	events       *EventDispatcher
	logger       *zap.Logger
	now          func() time.Time
}

func NewProgressService(
	userRepo interfaces.UserRepository,
	scenarioRepo interfaces.ScenarioRepository,
	progressRepo interfaces.ProgressRepository,
	achievements AchievementService,
	leaderboard LeaderboardService,
	events *EventDispatcher,
	logger *zap.Logger,
) ProgressService {
	return &progressServiceImpl{
		userRepo:     userRepo,
		scenarioRepo: scenarioRepo,
		progressRepo: progressRepo,
		achievements: achievements,
		leaderboard:  leaderboard,
		events:       events,
		logger:       logger.Named("ProgressService"),
		now:          time.Now,
	}
}

func (s *progressServiceImpl) CompleteScenario(ctx context.Context, userID, scenarioID uuid.UUID, choices []player.Choice) (*models.CompletionResult, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("scenarioID", scenarioID))

	scenario, err := s.scenarioRepo.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	c, err := loadCatalog(ctx, s.userRepo, s.scenarioRepo, s.progressRepo, userID)
	if err != nil {
		return nil, err
	}
	if err := c.check(scenario); err != nil {
		log.Warn("Completion of inaccessible scenario rejected", zap.Error(err))
		return nil, err
	}

	res, err := player.Replay(scenario, choices, s.now())
	if err != nil {
		if errors.Is(err, player.ErrInvalidScenario) {
			log.Error("Stored scenario failed validation", zap.Error(err))
			return nil, fmt.Errorf("stored scenario is broken: %w", err)
		}
		log.Info("Submitted decisions rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidDecisions, err)
	}

	return s.record(ctx, c, scenario, res)
}

func (s *progressServiceImpl) RecordRun(ctx context.Context, userID uuid.UUID, scenario *models.Scenario, res *player.Result) (*models.CompletionResult, error) {
	c, err := loadCatalog(ctx, s.userRepo, s.scenarioRepo, s.progressRepo, userID)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, c, scenario, res)
}

// record merges the run, grows the security score by the improvement over the
// previous best, then updates rank, achievements, leaderboard and notifies the user.
func (s *progressServiceImpl) record(ctx context.Context, c *catalog, scenario *models.Scenario, res *player.Result) (*models.CompletionResult, error) {
	user := c.user
	log := s.logger.With(zap.Stringer("userID", user.ID), zap.Stringer("scenarioID", scenario.ID))

	// Прирост считается от лучшего результата на момент записи, а не из c.progress:
	// параллельный повтор того же прохождения не должен начислить очки дважды.
	merged, previousBest, err := s.progressRepo.RecordCompletion(ctx, &models.UserProgress{
		UserID:     user.ID,
		ScenarioID: scenario.ID,
		Completed:  true,
		Score:      res.Score,
		Mistakes:   res.Mistakes,
		Decisions:  res.Decisions,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		log.Error("Failed to record completion", zap.Error(err))
		return nil, fmt.Errorf("failed to record completion: %w", err)
	}
	c.progress[scenario.ID] = merged
	scenarioCompletionsTotal.WithLabelValues(strconv.FormatBool(res.Mistakes == 0)).Inc()

	gained := max(0, res.Score-previousBest)
	securityScore := user.SecurityScore
	if gained > 0 {
		securityScore, err = s.userRepo.AddSecurityScore(ctx, user.ID, gained)
		if err != nil {
			log.Error("Failed to add security score", zap.Error(err), zap.Int("gained", gained))
			return nil, fmt.Errorf("failed to update security score: %w", err)
		}
	}

	records := make([]*models.UserProgress, 0, len(c.progress))
	for _, p := range c.progress {
		records = append(records, p)
	}
	previousRank := user.Rank
	rank := CalculateRank(records)
	if rank != previousRank {
		if err := s.userRepo.UpdateRank(ctx, user.ID, rank); err != nil {
			log.Error("Failed to update rank", zap.Error(err), zap.Int("rank", rank))
			return nil, fmt.Errorf("failed to update rank: %w", err)
		}
		log.Info("Rank changed", zap.Int("from", previousRank), zap.Int("to", rank))
	}

	unlocked, err := s.achievements.CheckAndAward(ctx, user.ID)
	if err != nil {
		// прогресс уже сохранён, достижения пересчитаются при следующем прохождении
		log.Error("Failed to evaluate achievements", zap.Error(err))
		unlocked = nil
	}
	if unlocked == nil {
		unlocked = []*models.UserAchievement{}
	}

	user.SecurityScore = securityScore
	user.Rank = rank
	s.leaderboard.Track(ctx, user)

	result := &models.CompletionResult{
		Progress:             merged,
		Score:                res.Score,
		Mistakes:             res.Mistakes,
		SafeCount:            res.Safe,
		RiskyCount:           res.Risky,
		DangerousCount:       res.Dangerous,
		SecurityScore:        securityScore,
		SecurityScoreGained:  gained,
		Rank:                 rank,
		PreviousRank:         previousRank,
		UnlockedAchievements: unlocked,
	}
	s.events.Completed(ctx, user, result)

	log.Info("Scenario completed", zap.Int("score", res.Score), zap.Int("mistakes", res.Mistakes), zap.Int("gained", gained))
	return result, nil
}

func (s *progressServiceImpl) GetProgress(ctx context.Context, userID uuid.UUID) ([]*models.UserProgress, error) {
	return s.progressRepo.ListByUser(ctx, userID)
}

func (s *progressServiceImpl) GetScenarioProgress(ctx context.Context, userID, scenarioID uuid.UUID) (*models.UserProgress, error) {
	p, err := s.progressRepo.Get(ctx, userID, scenarioID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// GetStats: total - число сценариев, доступных по подписке; completed считается только по ним.
func (s *progressServiceImpl) GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	c, err := loadCatalog(ctx, s.userRepo, s.scenarioRepo, s.progressRepo, userID)
	if err != nil {
		return nil, err
	}

	records := make([]*models.UserProgress, 0, len(c.progress))
	for _, p := range c.progress {
		records = append(records, p)
	}
	sum := summarizeProgress(records)

	stats := &models.UserStats{
		Total:         len(c.scenarios),
		TotalScore:    sum.totalScore,
		TotalMistakes: sum.totalMistakes,
	}
	for _, sc := range c.scenarios {
		if p := c.progress[sc.ID]; p != nil && p.Completed {
			stats.Completed++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats, nil
}
