package service

import (
	"context"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"
	"qadamsafe/internal/notification"

	"go.uber.org/zap"
)

// EventDispatcher fans gameplay events out to the live channel and the push queue.
// Both targets are optional.
type EventDispatcher struct {
	publisher interfaces.PushPublisher
	live      interfaces.ClientNotifier
	logger    *zap.Logger
}

func NewEventDispatcher(publisher interfaces.PushPublisher, live interfaces.ClientNotifier, logger *zap.Logger) *EventDispatcher {
	return &EventDispatcher{
		publisher: publisher,
		live:      live,
		logger:    logger.Named("EventDispatcher"),
	}
}

type scenarioCompletedEvent struct {
	ScenarioID    string `json:"scenarioId"`
	Score         int    `json:"score"`
	Mistakes      int    `json:"mistakes"`
	SecurityScore int    `json:"securityScore"`
}

type rankChangedEvent struct {
	PreviousRank int    `json:"previousRank"`
	Rank         int    `json:"rank"`
	RankName     string `json:"rankName"`
}

// Completed publishes everything that follows a recorded run.
// Push notifications go out only for unlocked achievements and rank ups.
func (d *EventDispatcher) Completed(ctx context.Context, user *models.User, res *models.CompletionResult) {
	if d == nil {
		return
	}
	d.sendLive(user, models.EventScenarioCompleted, scenarioCompletedEvent{
		ScenarioID:    res.Progress.ScenarioID.String(),
		Score:         res.Score,
		Mistakes:      res.Mistakes,
		SecurityScore: res.SecurityScore,
	})

	for _, ua := range res.UnlockedAchievements {
		d.sendLive(user, models.EventAchievementUnlocked, ua)
		payload, err := notification.BuildAchievementPushPayload(user.ID, user.Language, ua)
		if err != nil {
			d.logger.Warn("Failed to build achievement push", zap.Error(err))
			continue
		}
		d.publish(ctx, payload)
	}

	if res.Rank != res.PreviousRank {
		d.sendLive(user, models.EventRankChanged, rankChangedEvent{
			PreviousRank: res.PreviousRank,
			Rank:         res.Rank,
			RankName:     models.RankName(res.Rank),
		})
	}
	if res.Rank > res.PreviousRank {
		payload, err := notification.BuildRankUpPushPayload(user.ID, user.Language, res.PreviousRank, res.Rank)
		if err != nil {
			d.logger.Warn("Failed to build rank push", zap.Error(err))
			return
		}
		d.publish(ctx, payload)
	}
}

func (d *EventDispatcher) sendLive(user *models.User, eventType string, payload interface{}) {
	if d.live == nil {
		return
	}
	if !d.live.SendToUser(user.ID, models.ClientEvent{Type: eventType, UserID: user.ID, Payload: payload}) {
		d.logger.Debug("User has no live connection", zap.Stringer("userID", user.ID), zap.String("event", eventType))
	}
}

func (d *EventDispatcher) publish(ctx context.Context, payload *models.PushNotificationPayload) {
	if d.publisher == nil {
		return
	}
	// Ошибка публикации не должна ломать завершение сценария
	if err := d.publisher.PublishPushNotification(ctx, *payload); err != nil {
		d.logger.Error("Failed to publish push notification", zap.Error(err),
			zap.Stringer("userID", payload.UserID), zap.String("event", payload.Data[notification.DataEventType]))
	}
}
