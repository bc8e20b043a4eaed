package sender

import (
	"context"

	"qadamsafe/internal/models"
	"qadamsafe/internal/notification"

	"go.uber.org/zap"
)

// stubSender только логирует уведомления. Используется, когда нет ключей FCM/APNs.
type stubSender struct {
	platform string
	logger   *zap.Logger
}

func NewStubSender(platform string, logger *zap.Logger) notification.PlatformSender {
	return &stubSender{platform: platform, logger: logger.Named("stub_" + platform + "_sender")}
}

func (s *stubSender) Send(_ context.Context, tokens []string, n models.PushNotification, data map[string]string) ([]string, error) {
	s.logger.Info("ЗАГЛУШКА: отправка push",
		zap.Int("tokens", len(tokens)),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
		zap.Any("data", data),
	)
	return nil, nil
}

func (s *stubSender) Platform() string { return s.platform }
