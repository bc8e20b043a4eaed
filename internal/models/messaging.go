package models

import "github.com/google/uuid"

// PushNotificationPayload - сообщение очереди push_notifications.
type PushNotificationPayload struct {
	UserID       uuid.UUID         `json:"user_id"`
	Notification PushNotification  `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

// PushNotification содержит видимые части push-сообщения.
type PushNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Client event types sent over the live channel.
const (
	EventScenarioCompleted   = "scenario_completed"
	EventAchievementUnlocked = "achievement_unlocked"
	EventRankChanged         = "rank_changed"
)

// ClientEvent is pushed to a connected client.
type ClientEvent struct {
	Type    string      `json:"type"`
	UserID  uuid.UUID   `json:"userId"`
	Payload interface{} `json:"payload,omitempty"`
}
