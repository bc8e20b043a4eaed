package interfaces

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

// PushPublisher publishes push notification jobs to the broker.
type PushPublisher interface {
	PublishPushNotification(ctx context.Context, payload models.PushNotificationPayload) error
}

// ClientNotifier delivers events to live client connections.
type ClientNotifier interface {
	// SendToUser returns false if the user has no open connection.
	SendToUser(userID uuid.UUID, event models.ClientEvent) bool
}
