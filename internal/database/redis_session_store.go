package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.SessionStore = (*redisSessionStore)(nil)

type redisSessionStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisSessionStore(client *redis.Client, logger *zap.Logger) interfaces.SessionStore {
	return &redisSessionStore{
		client: client,
		logger: logger.Named("RedisSessionStore"),
	}
}

func playSessionKey(id uuid.UUID) string { return "play_session:" + id.String() }

func (s *redisSessionStore) Save(ctx context.Context, session *models.PlaySession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal play session: %w", err)
	}
	if err := s.client.Set(ctx, playSessionKey(session.ID), data, ttl).Err(); err != nil {
		s.logger.Error("Failed to save play session", zap.Error(err), zap.Stringer("sessionID", session.ID))
		return fmt.Errorf("failed to save play session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.PlaySession, error) {
	data, err := s.client.Get(ctx, playSessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		s.logger.Error("Failed to load play session", zap.Error(err), zap.Stringer("sessionID", id))
		return nil, fmt.Errorf("failed to load play session: %w", err)
	}
	var session models.PlaySession
	if err := json.Unmarshal(data, &session); err != nil {
		s.logger.Error("Corrupted play session in redis", zap.Error(err), zap.Stringer("sessionID", id))
		return nil, models.ErrSessionNotFound
	}
	return &session, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, playSessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete play session: %w", err)
	}
	return nil
}
