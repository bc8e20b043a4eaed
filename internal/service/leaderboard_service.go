package service

import (
	"context"
	"errors"
	"fmt"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 50
)

// LeaderboardService serves the leaderboard from the Redis cache with Postgres as the source of truth.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetPosition(ctx context.Context, userID uuid.UUID) (*models.LeaderboardEntry, error)
	// Track pushes the user's current score into a warm cache.
	Track(ctx context.Context, user *models.User)
}

type leaderboardServiceImpl struct {
	userRepo interfaces.UserRepository
	cache    interfaces.LeaderboardCache
	logger   *zap.Logger
}

func NewLeaderboardService(userRepo interfaces.UserRepository, cache interfaces.LeaderboardCache, logger *zap.Logger) LeaderboardService {
	return &leaderboardServiceImpl{
		userRepo: userRepo,
		cache:    cache,
		logger:   logger.Named("LeaderboardService"),
	}
}

func normalizeLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

func (s *leaderboardServiceImpl) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = normalizeLeaderboardLimit(limit)

	entries, found, err := s.cache.Top(ctx, limit)
	if err != nil {
		s.logger.Warn("Leaderboard cache read failed, using database", zap.Error(err))
		return s.userRepo.ListLeaderboard(ctx, limit)
	}
	if found {
		return entries, nil
	}

	all, err := s.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *leaderboardServiceImpl) GetPosition(ctx context.Context, userID uuid.UUID) (*models.LeaderboardEntry, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	entry := entryFromUser(user)

	pos, found, err := s.cache.Position(ctx, userID)
	if err != nil {
		s.logger.Warn("Leaderboard cache position failed, using database", zap.Error(err))
	} else if !found {
		// кэш холодный или пользователь ещё не попал в него
		if _, rbErr := s.rebuild(ctx); rbErr == nil {
			pos, found, err = s.cache.Position(ctx, userID)
		}
	}
	if err == nil && found {
		entry.Position = pos
		return &entry, nil
	}

	pos, err = s.userRepo.GetLeaderboardPosition(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get leaderboard position: %w", err)
	}
	entry.Position = pos
	return &entry, nil
}

func (s *leaderboardServiceImpl) Track(ctx context.Context, user *models.User) {
	if err := s.cache.Upsert(ctx, entryFromUser(user)); err != nil {
		// не критично: кэш пересоберётся после TTL
		s.logger.Warn("Failed to update leaderboard cache", zap.Error(err), zap.Stringer("userID", user.ID))
	}
}

func (s *leaderboardServiceImpl) rebuild(ctx context.Context) ([]models.LeaderboardEntry, error) {
	all, err := s.userRepo.ListLeaderboard(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	if err := s.cache.Rebuild(ctx, all); err != nil {
		s.logger.Warn("Failed to rebuild leaderboard cache", zap.Error(err))
	}
	return all, nil
}

func entryFromUser(u *models.User) models.LeaderboardEntry {
	return models.LeaderboardEntry{
		UserID:        u.ID,
		Name:          u.Name,
		SecurityScore: u.SecurityScore,
		Rank:          u.Rank,
		CreatedAt:     u.CreatedAt,
	}
}
