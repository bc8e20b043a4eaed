package notification_test

import (
	"context"
	"errors"
	"testing"

	"qadamsafe/internal/interfaces/mocks"
	"qadamsafe/internal/models"
	"qadamsafe/internal/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	platform string
	invalid  []string
	err      error
	got      []string
}

func (f *fakeSender) Send(_ context.Context, tokens []string, _ models.PushNotification, _ map[string]string) ([]string, error) {
	f.got = append(f.got, tokens...)
	return f.invalid, f.err
}

func (f *fakeSender) Platform() string { return f.platform }

func TestService_SendNotification(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	payload := models.PushNotificationPayload{UserID: userID, Notification: models.PushNotification{Title: "t", Body: "b"}}
	tokens := []models.DeviceToken{
		{UserID: userID, Token: "a1", Platform: models.PlatformAndroid},
		{UserID: userID, Token: "a2", Platform: models.PlatformAndroid},
		{UserID: userID, Token: "i1", Platform: models.PlatformIOS},
	}

	t.Run("Groups tokens by platform and removes invalid ones", func(t *testing.T) {
		repo := new(mocks.MockDeviceTokenRepository)
		repo.On("GetDeviceTokensForUser", mock.Anything, userID).Return(tokens, nil).Once()
		repo.On("DeleteDeviceTokens", mock.Anything, []string{"a2"}).Return(int64(1), nil).Once()

		android := &fakeSender{platform: models.PlatformAndroid, invalid: []string{"a2"}}
		ios := &fakeSender{platform: models.PlatformIOS}
		svc := notification.NewService(repo, zap.NewNop(), android, ios)

		require.NoError(t, svc.SendNotification(ctx, payload))
		assert.ElementsMatch(t, []string{"a1", "a2"}, android.got)
		assert.Equal(t, []string{"i1"}, ios.got)
		repo.AssertExpectations(t)
	})

	t.Run("No tokens is not an error", func(t *testing.T) {
		repo := new(mocks.MockDeviceTokenRepository)
		repo.On("GetDeviceTokensForUser", mock.Anything, userID).Return([]models.DeviceToken{}, nil).Once()

		svc := notification.NewService(repo, zap.NewNop(), &fakeSender{platform: models.PlatformAndroid})
		assert.NoError(t, svc.SendNotification(ctx, payload))
	})

	t.Run("Sender error is returned", func(t *testing.T) {
		repo := new(mocks.MockDeviceTokenRepository)
		repo.On("GetDeviceTokensForUser", mock.Anything, userID).Return(tokens, nil).Once()

		android := &fakeSender{platform: models.PlatformAndroid, err: errors.New("quota exceeded")}
		svc := notification.NewService(repo, zap.NewNop(), android, nil)

		err := svc.SendNotification(ctx, payload)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("Repository error", func(t *testing.T) {
		repo := new(mocks.MockDeviceTokenRepository)
		repo.On("GetDeviceTokensForUser", mock.Anything, userID).Return(nil, errors.New("db down")).Once()

		svc := notification.NewService(repo, zap.NewNop())
		assert.Error(t, svc.SendNotification(ctx, payload))
	})
}

func TestBuildPayloads(t *testing.T) {
	userID := uuid.New()
	ua := &models.UserAchievement{
		AchievementID: uuid.New(),
		Achievement:   &models.Achievement{Key: models.AchievementFirstScenario, Title: "Первый шаг", TitleEn: "First Step"},
	}

	p, err := notification.BuildAchievementPushPayload(userID, models.LanguageEN, ua)
	require.NoError(t, err)
	assert.Equal(t, "New achievement!", p.Notification.Title)
	assert.Contains(t, p.Notification.Body, "First Step")
	assert.Equal(t, models.EventAchievementUnlocked, p.Data[notification.DataEventType])

	p, err = notification.BuildAchievementPushPayload(userID, "de", ua)
	require.NoError(t, err)
	assert.Contains(t, p.Notification.Body, "Первый шаг", "unknown language falls back to russian")

	_, err = notification.BuildAchievementPushPayload(uuid.Nil, models.LanguageRU, ua)
	assert.Error(t, err)

	p, err = notification.BuildRankUpPushPayload(userID, models.LanguageRU, models.RankNovice, models.RankDefender)
	require.NoError(t, err)
	assert.Equal(t, "2", p.Data["rank"])
	assert.Contains(t, p.Notification.Body, "Defender")

	_, err = notification.BuildRankUpPushPayload(userID, models.LanguageRU, models.RankGuardian, models.RankDefender)
	assert.Error(t, err)
}
