package mocks

import (
	"context"
	"time"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLeaderboardCache struct {
	mock.Mock
}

var _ interfaces.LeaderboardCache = (*MockLeaderboardCache)(nil)

func (m *MockLeaderboardCache) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error) {
	args := m.Called(ctx, limit)
	var entries []models.LeaderboardEntry
	if e := args.Get(0); e != nil {
		entries = e.([]models.LeaderboardEntry)
	}
	return entries, args.Bool(1), args.Error(2)
}

func (m *MockLeaderboardCache) Position(ctx context.Context, userID uuid.UUID) (int, bool, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockLeaderboardCache) Upsert(ctx context.Context, entry models.LeaderboardEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLeaderboardCache) Rebuild(ctx context.Context, entries []models.LeaderboardEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

type MockSessionStore struct {
	mock.Mock
}

var _ interfaces.SessionStore = (*MockSessionStore)(nil)

func (m *MockSessionStore) Save(ctx context.Context, session *models.PlaySession, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.PlaySession, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.PlaySession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
