package service

import (
	"context"
	"fmt"
	"strings"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxDeviceTokenLength = 4096

// DeviceTokenService registers push tokens of user devices.
type DeviceTokenService interface {
	RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error
	UnregisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
}

type deviceTokenService struct {
	deviceTokenRepo interfaces.DeviceTokenRepository
	logger          *zap.Logger
}

func NewDeviceTokenService(deviceTokenRepo interfaces.DeviceTokenRepository, logger *zap.Logger) DeviceTokenService {
	return &deviceTokenService{
		deviceTokenRepo: deviceTokenRepo,
		logger:          logger.Named("device_token_service"),
	}
}

func (s *deviceTokenService) RegisterDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	token = strings.TrimSpace(token)
	platform = strings.ToLower(strings.TrimSpace(platform))
	if token == "" || len(token) > maxDeviceTokenLength {
		return fmt.Errorf("invalid device token: %w", models.ErrInvalidInput)
	}
	if platform != models.PlatformAndroid && platform != models.PlatformIOS {
		return fmt.Errorf("unsupported platform %q: %w", platform, models.ErrInvalidInput)
	}

	if err := s.deviceTokenRepo.SaveDeviceToken(ctx, userID, token, platform); err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	s.logger.Info("Device token registered successfully",
		zap.String("userID", userID.String()),
		zap.String("platform", platform),
	)
	return nil
}

// UnregisterDeviceToken удаляет токен, только если он принадлежит пользователю.
func (s *deviceTokenService) UnregisterDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("device token is required: %w", models.ErrInvalidInput)
	}
	if err := s.deviceTokenRepo.DeleteDeviceToken(ctx, userID, token); err != nil {
		return err
	}
	s.logger.Info("Device token unregistered successfully", zap.String("userID", userID.String()))
	return nil
}
