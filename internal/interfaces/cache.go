package interfaces

import (
	"context"
	"time"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

// LeaderboardCache keeps the ordered leaderboard in Redis.
// found=false means the cache is cold and the caller must rebuild it.
type LeaderboardCache interface {
	Top(ctx context.Context, limit int) (entries []models.LeaderboardEntry, found bool, err error)
	Position(ctx context.Context, userID uuid.UUID) (position int, found bool, err error)
	// Upsert updates one entry if the cache is warm, otherwise it is a no-op.
	Upsert(ctx context.Context, entry models.LeaderboardEntry) error
	Rebuild(ctx context.Context, entries []models.LeaderboardEntry) error
}

// SessionStore хранит серверные игровые сессии.
type SessionStore interface {
	Save(ctx context.Context, session *models.PlaySession, ttl time.Duration) error
	// Get returns models.ErrSessionNotFound when the session is missing or expired.
	Get(ctx context.Context, id uuid.UUID) (*models.PlaySession, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
