package service

import (
	"context"
	"fmt"
	"time"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AchievementService evaluates achievement progress.
type AchievementService interface {
	ListAchievements(ctx context.Context) ([]*models.Achievement, error)
	ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]*models.UserAchievement, error)
	// CheckAndAward recomputes progress and returns the achievements completed by this call.
	CheckAndAward(ctx context.Context, userID uuid.UUID) ([]*models.UserAchievement, error)
}

type achievementServiceImpl struct {
	achievementRepo interfaces.AchievementRepository
	progressRepo    interfaces.ProgressRepository
	logger          *zap.Logger
	now             func() time.Time
}

func NewAchievementService(achievementRepo interfaces.AchievementRepository, progressRepo interfaces.ProgressRepository, logger *zap.Logger) AchievementService {
	return &achievementServiceImpl{
		achievementRepo: achievementRepo,
		progressRepo:    progressRepo,
		logger:          logger.Named("AchievementService"),
		now:             time.Now,
	}
}

func (s *achievementServiceImpl) ListAchievements(ctx context.Context) ([]*models.Achievement, error) {
	return s.achievementRepo.ListAchievements(ctx)
}

func (s *achievementServiceImpl) ListUserAchievements(ctx context.Context, userID uuid.UUID) ([]*models.UserAchievement, error) {
	return s.achievementRepo.ListUserAchievements(ctx, userID)
}

func (s *achievementServiceImpl) CheckAndAward(ctx context.Context, userID uuid.UUID) ([]*models.UserAchievement, error) {
	log := s.logger.With(zap.Stringer("userID", userID))

	achievements, err := s.achievementRepo.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	progress, err := s.progressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	existing, err := s.achievementRepo.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user achievements: %w", err)
	}
	byAchievement := make(map[uuid.UUID]*models.UserAchievement, len(existing))
	for _, ua := range existing {
		byAchievement[ua.AchievementID] = ua
	}

	stats := summarizeProgress(progress)
	var unlocked []*models.UserAchievement
	for _, a := range achievements {
		value, known := achievementProgress(a, stats)
		if !known {
			continue
		}

		ua, ok := byAchievement[a.ID]
		if !ok {
			ua = &models.UserAchievement{UserID: userID, AchievementID: a.ID}
		} else if ua.Progress == value && (ua.Completed || value < a.RequiredValue) {
			continue
		}

		ua.Progress = value
		newlyCompleted := false
		if value >= a.RequiredValue && !ua.Completed {
			// completedAt ставим только при первом выполнении
			now := s.now()
			ua.Completed = true
			ua.CompletedAt = &now
			newlyCompleted = true
		}
		if err := s.achievementRepo.SaveUserAchievement(ctx, ua); err != nil {
			return nil, fmt.Errorf("failed to save achievement %q: %w", a.Key, err)
		}
		if newlyCompleted {
			ua.Achievement = a
			unlocked = append(unlocked, ua)
			log.Info("Achievement unlocked", zap.String("key", a.Key))
		}
	}
	return unlocked, nil
}

// progressSummary - агрегаты по прогрессу, общие для статистики и достижений.
type progressSummary struct {
	records       int
	completed     int
	perfect       int
	totalScore    int
	totalMistakes int
}

func summarizeProgress(progress []*models.UserProgress) progressSummary {
	var sum progressSummary
	for _, p := range progress {
		sum.records++
		sum.totalScore += p.Score
		sum.totalMistakes += p.Mistakes
		if p.Completed {
			sum.completed++
			if p.Mistakes == 0 {
				sum.perfect++
			}
		}
	}
	return sum
}

// achievementProgress returns the progress value for a known key.
func achievementProgress(a *models.Achievement, sum progressSummary) (int, bool) {
	switch a.Key {
	case models.AchievementFirstScenario:
		return min(sum.completed, 1), true
	case models.AchievementFiveScenarios:
		return min(sum.completed, 5), true
	case models.AchievementTenScenarios:
		return min(sum.completed, 10), true
	case models.AchievementAllScenarios:
		return min(sum.completed, a.RequiredValue), true
	case models.AchievementPerfectScore:
		if sum.perfect > 0 {
			return 1, true
		}
		return 0, true
	case models.AchievementSecurityExpert:
		return min(sum.totalScore/100, a.RequiredValue), true
	default:
		return 0, false
	}
}
