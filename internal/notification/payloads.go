package notification

import (
	"fmt"
	"strconv"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

// Ключи data payload
const (
	DataEventType     = "event_type"
	DataLocKey        = "loc_key"
	DataFallbackTitle = "fallback_title"
	DataFallbackBody  = "fallback_body"
)

// Ключи локализации на клиенте
const (
	LocKeyAchievementUnlocked = "notification_achievement_unlocked"
	LocKeyRankUp              = "notification_rank_up"
)

type pushText struct{ title, body string }

var achievementTexts = map[string]pushText{
	models.LanguageRU: {"Новое достижение!", "Вы получили достижение «%s»"},
	models.LanguageEN: {"New achievement!", "You unlocked \"%s\""},
	models.LanguageKK: {"Жаңа жетістік!", "Сіз «%s» жетістігін алдыңыз"},
}

var rankTexts = map[string]pushText{
	models.LanguageRU: {"Новый ранг!", "Теперь ваш ранг: %s"},
	models.LanguageEN: {"Rank up!", "Your new rank is %s"},
	models.LanguageKK: {"Жаңа дәреже!", "Сіздің жаңа дәрежеңіз: %s"},
}

func textFor(table map[string]pushText, language string) pushText {
	if t, ok := table[language]; ok {
		return t
	}
	return table[models.LanguageRU]
}

// BuildAchievementPushPayload creates a payload for an unlocked achievement.
func BuildAchievementPushPayload(userID uuid.UUID, language string, ua *models.UserAchievement) (*models.PushNotificationPayload, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("cannot build achievement push payload for nil user ID")
	}
	if ua == nil || ua.Achievement == nil {
		return nil, fmt.Errorf("cannot build achievement push payload without achievement")
	}

	title := ua.Achievement.Title
	if language == models.LanguageEN && ua.Achievement.TitleEn != "" {
		title = ua.Achievement.TitleEn
	}
	text := textFor(achievementTexts, language)
	fallbackBody := fmt.Sprintf(text.body, title)

	return &models.PushNotificationPayload{
		UserID:       userID,
		Notification: models.PushNotification{Title: text.title, Body: fallbackBody},
		Data: map[string]string{
			DataEventType:     models.EventAchievementUnlocked,
			DataLocKey:        LocKeyAchievementUnlocked,
			DataFallbackTitle: text.title,
			DataFallbackBody:  fallbackBody,
			"achievement_key": ua.Achievement.Key,
			"achievement_id":  ua.AchievementID.String(),
		},
	}, nil
}

// BuildRankUpPushPayload создает payload о повышении ранга.
func BuildRankUpPushPayload(userID uuid.UUID, language string, previous, current int) (*models.PushNotificationPayload, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("cannot build rank push payload for nil user ID")
	}
	if current <= previous {
		return nil, fmt.Errorf("rank did not go up: %d -> %d", previous, current)
	}

	text := textFor(rankTexts, language)
	rankName := models.RankName(current)
	fallbackBody := fmt.Sprintf(text.body, rankName)

	return &models.PushNotificationPayload{
		UserID:       userID,
		Notification: models.PushNotification{Title: text.title, Body: fallbackBody},
		Data: map[string]string{
			DataEventType:     models.EventRankChanged,
			DataLocKey:        LocKeyRankUp,
			DataFallbackTitle: text.title,
			DataFallbackBody:  fallbackBody,
			"rank":            strconv.Itoa(current),
			"previous_rank":   strconv.Itoa(previous),
			"rank_name":       rankName,
		},
	}, nil
}
