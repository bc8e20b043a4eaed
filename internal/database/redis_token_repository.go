package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository creates a new Redis-backed TokenRepository.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

func accessKey(id string) string { return "access_uuid:" + id }
func refreshKey(id string) string { return "refresh_uuid:" + id }
func userTokensKey(id uuid.UUID) string { return "user_tokens:" + id.String() }

// SetToken stores two keys per pair (access_uuid:*, refresh_uuid:* -> userID)
// and records both in the user's set user_tokens:{userID}.
func (r *redisTokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	now := time.Now()
	accessTTL := time.Unix(td.AtExpires, 0).Sub(now)
	refreshTTL := time.Unix(td.RtExpires, 0).Sub(now)
	userIDStr := userID.String()
	setKey := userTokensKey(userID)

	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKey(td.AccessUUID), userIDStr, accessTTL)
	pipe.Set(ctx, refreshKey(td.RefreshUUID), userIDStr, refreshTTL)
	pipe.SAdd(ctx, setKey, "access:"+td.AccessUUID, "refresh:"+td.RefreshUUID)
	// Сет живёт не дольше самого долгого токена.
	pipe.Expire(ctx, setKey, refreshTTL)

	r.logger.Debug("Setting tokens in Redis",
		zap.String("userID", userIDStr),
		zap.String("accessUUID", td.AccessUUID),
		zap.String("refreshUUID", td.RefreshUUID),
		zap.Duration("accessTTL", accessTTL),
		zap.Duration("refreshTTL", refreshTTL),
	)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to set token details in redis", zap.Error(err), zap.String("userID", userIDStr))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}
	return nil
}

func (r *redisTokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	var keys []string
	var members []interface{}
	if accessUUID != "" {
		keys = append(keys, accessKey(accessUUID))
		members = append(members, "access:"+accessUUID)
	}
	if refreshUUID != "" {
		keys = append(keys, refreshKey(refreshUUID))
		members = append(members, "refresh:"+refreshUUID)
	}
	if len(keys) == 0 {
		r.logger.Warn("DeleteTokens called with no UUIDs")
		return 0, nil
	}

	pipe := r.client.Pipeline()
	delCmd := pipe.Del(ctx, keys...)
	pipe.SRem(ctx, userTokensKey(userID), members...)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to delete tokens", zap.Error(err), zap.Stringer("userID", userID))
		return 0, fmt.Errorf("failed to delete tokens/remove from set: %w", err)
	}

	deleted, _ := delCmd.Result()
	r.logger.Info("Tokens deleted from Redis", zap.Stringer("userID", userID), zap.Int64("deletedCount", deleted))
	return deleted, nil
}

func (r *redisTokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	return r.lookup(ctx, accessKey(accessUUID))
}

func (r *redisTokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	return r.lookup(ctx, refreshKey(refreshUUID))
}

func (r *redisTokenRepository) lookup(ctx context.Context, key string) (uuid.UUID, error) {
	userIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Token not found in Redis", zap.String("key", key))
			return uuid.Nil, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return uuid.Nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		// данные в Redis повреждены
		r.logger.Error("Failed to parse userID from redis", zap.Error(err), zap.String("key", key), zap.String("value", userIDStr))
		return uuid.Nil, fmt.Errorf("corrupted userID data in redis for %s: %w", key, err)
	}
	return userID, nil
}

func (r *redisTokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := r.logger.With(zap.Stringer("userID", userID))
	setKey := userTokensKey(userID)

	identifiers, err := r.client.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		log.Error("Failed to get token identifiers from user set", zap.Error(err))
		return 0, fmt.Errorf("failed to retrieve token identifiers for user %s: %w", userID, err)
	}

	keys := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		kind, id, ok := strings.Cut(identifier, ":")
		if !ok {
			log.Warn("Malformed token identifier found in user set", zap.String("identifier", identifier))
			continue
		}
		switch kind {
		case "access":
			keys = append(keys, accessKey(id))
		case "refresh":
			keys = append(keys, refreshKey(id))
		default:
			log.Warn("Unknown token type in user set", zap.String("identifier", identifier))
		}
	}

	pipe := r.client.Pipeline()
	var delCmd *redis.IntCmd
	if len(keys) > 0 {
		delCmd = pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, setKey)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error("Failed to delete user tokens", zap.Error(err))
		return 0, fmt.Errorf("failed to delete tokens for user %s: %w", userID, err)
	}

	var deleted int64
	if delCmd != nil {
		deleted, _ = delCmd.Result()
	}
	log.Info("All user tokens deleted", zap.Int64("deletedCount", deleted))
	return deleted, nil
}
