package database

import (
	"context"
	"encoding/json"
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

const (
	leaderboardScoresKey  = "leaderboard:scores"
	leaderboardEntriesKey = "leaderboard:entries"
	leaderboardReadyKey   = "leaderboard:ready"

	// tieMax дополняет created_at (в микросекундах, как в Postgres) до 17 цифр,
	// чтобы member сравнивался лексикографически.
	tieMax int64 = 99_999_999_999_999_999
)

var _ interfaces.LeaderboardCache = (*redisLeaderboardCache)(nil)

type redisLeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLeaderboardCache keeps a sorted set of scores plus a hash of entry payloads.
// The cache expires after ttl and is rebuilt from Postgres by the caller.
func NewRedisLeaderboardCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.LeaderboardCache {
	return &redisLeaderboardCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisLeaderboardCache"),
	}
}

// Score в sorted set - это сам security score. При равных очках Redis упорядочивает
// по member, а ZREVRANGE отдает больший member первым, поэтому в member лежит
// перевернутое время регистрации: ранний пользователь оказывается выше.
func memberKey(userID uuid.UUID, createdAt time.Time) string {
	return fmt.Sprintf("%017d:%s", tieMax-createdAt.UnixMicro(), userID)
}

func userIDFromMember(member string) string {
	return member[strings.LastIndexByte(member, ':')+1:]
}

func (c *redisLeaderboardCache) ready(ctx context.Context) (bool, error) {
	n, err := c.client.Exists(ctx, leaderboardReadyKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check leaderboard cache: %w", err)
	}
	return n > 0, nil
}

func (c *redisLeaderboardCache) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	ok, err := c.ready(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	members, err := c.client.ZRevRange(ctx, leaderboardScoresKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	if len(members) == 0 {
		return []models.LeaderboardEntry{}, true, nil
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = userIDFromMember(m)
	}
	raw, err := c.client.HMGet(ctx, leaderboardEntriesKey, ids...).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard entries: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(ids))
	for i, v := range raw {
		s, isStr := v.(string)
		if !isStr {
			// запись пропала - считаем кэш невалидным
			c.logger.Warn("Leaderboard entry missing in cache", zap.String("userID", ids[i]))
			return nil, false, nil
		}
		var e models.LeaderboardEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			c.logger.Warn("Corrupted leaderboard entry in cache", zap.String("userID", ids[i]), zap.Error(err))
			return nil, false, nil
		}
		e.Position = i + 1
		entries = append(entries, e)
	}
	return entries, true, nil
}

func (c *redisLeaderboardCache) Position(ctx context.Context, userID uuid.UUID) (int, bool, error) {
	ok, err := c.ready(ctx)
	if err != nil || !ok {
		return 0, false, err
	}
	raw, err := c.client.HGet(ctx, leaderboardEntriesKey, userID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read leaderboard entry: %w", err)
	}
	var e cachedEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Warn("Corrupted leaderboard entry in cache", zap.Stringer("userID", userID), zap.Error(err))
		return 0, false, nil
	}
	rank, err := c.client.ZRevRank(ctx, leaderboardScoresKey, memberKey(userID, e.CreatedAt)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read leaderboard rank: %w", err)
	}
	return int(rank) + 1, true, nil
}

// cachedEntry - то, что лежит в hash; CreatedAt нужен для пересчёта порядка.
type cachedEntry struct {
	UserID        uuid.UUID `json:"userId"`
	Name          string    `json:"name"`
	SecurityScore int       `json:"securityScore"`
	Rank          int       `json:"rank"`
	CreatedAt     time.Time `json:"createdAt"`
}

func encodeEntry(e models.LeaderboardEntry) (string, error) {
	b, err := json.Marshal(cachedEntry{
		UserID:        e.UserID,
		Name:          e.Name,
		SecurityScore: e.SecurityScore,
		Rank:          e.Rank,
		CreatedAt:     e.CreatedAt,
	})
	return string(b), err
}

func (c *redisLeaderboardCache) Upsert(ctx context.Context, e models.LeaderboardEntry) error {
	ok, err := c.ready(ctx)
	if err != nil || !ok {
		return err
	}
	payload, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard entry: %w", err)
	}
	pipe := c.client.TxPipeline()
	// created_at не меняется, так что member пользователя стабилен и ZAdd обновляет только score
	pipe.ZAdd(ctx, leaderboardScoresKey, redis.Z{Score: float64(e.SecurityScore), Member: memberKey(e.UserID, e.CreatedAt)})
	pipe.HSet(ctx, leaderboardEntriesKey, e.UserID.String(), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Failed to update leaderboard cache", zap.Error(err), zap.Stringer("userID", e.UserID))
		return fmt.Errorf("failed to update leaderboard cache: %w", err)
	}
	return nil
}

func (c *redisLeaderboardCache) Rebuild(ctx context.Context, entries []models.LeaderboardEntry) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, leaderboardScoresKey, leaderboardEntriesKey, leaderboardReadyKey)
	if len(entries) > 0 {
		zs := make([]redis.Z, 0, len(entries))
		fields := make(map[string]interface{}, len(entries))
		for _, e := range entries {
			payload, err := encodeEntry(e)
			if err != nil {
				return fmt.Errorf("failed to encode leaderboard entry: %w", err)
			}
			zs = append(zs, redis.Z{Score: float64(e.SecurityScore), Member: memberKey(e.UserID, e.CreatedAt)})
			fields[e.UserID.String()] = payload
		}
		pipe.ZAdd(ctx, leaderboardScoresKey, zs...)
		pipe.HSet(ctx, leaderboardEntriesKey, fields)
		pipe.Expire(ctx, leaderboardScoresKey, c.ttl)
		pipe.Expire(ctx, leaderboardEntriesKey, c.ttl)
	}
	pipe.Set(ctx, leaderboardReadyKey, "1", c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Failed to rebuild leaderboard cache", zap.Error(err))
		return fmt.Errorf("failed to rebuild leaderboard cache: %w", err)
	}
	c.logger.Info("Leaderboard cache rebuilt", zap.Int("entries", len(entries)))
	return nil
}
