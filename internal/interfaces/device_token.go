package interfaces

import (
	"context"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
)

// DeviceTokenRepository определяет методы для работы с токенами устройств.
type DeviceTokenRepository interface {
	// SaveDeviceToken сохраняет или переназначает токен пользователю.
	SaveDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error
	GetDeviceTokensForUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error)
	// DeleteDeviceToken удаляет конкретный токен пользователя.
	DeleteDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
	// DeleteDeviceTokens удаляет токены независимо от владельца (невалидные токены от FCM/APNs).
	DeleteDeviceTokens(ctx context.Context, tokens []string) (int64, error)
}
