package sender

import (
	"context"
	"fmt"

	"qadamsafe/internal/config"
	"qadamsafe/internal/models"
	"qadamsafe/internal/notification"

	firebase "firebase.google.com/go/v4"
	fcm "firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// fcmBatchSize - лимит токенов на один SendEachForMulticast.
const fcmBatchSize = 500

type fcmSender struct {
	client *fcm.Client
	logger *zap.Logger
}

// NewFCMSender создает отправитель FCM. Возвращает nil, nil если путь к ключу не задан.
func NewFCMSender(ctx context.Context, cfg config.FCMConfig, logger *zap.Logger) (notification.PlatformSender, error) {
	if cfg.CredentialsPath == "" {
		logger.Warn("FCM_CREDENTIALS_PATH не указан, FCM sender не будет создан.")
		return nil, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Firebase App из файла '%s': %w", cfg.CredentialsPath, err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения FCM Messaging client: %w", err)
	}

	logger.Info("FCM Sender успешно инициализирован", zap.String("credentials_path", cfg.CredentialsPath))
	return &fcmSender{client: client, logger: logger.Named("fcm_sender")}, nil
}

func (s *fcmSender) Send(ctx context.Context, tokens []string, n models.PushNotification, data map[string]string) ([]string, error) {
	var invalid []string
	var failures int

	for start := 0; start < len(tokens); start += fcmBatchSize {
		batch := tokens[start:min(start+fcmBatchSize, len(tokens))]
		br, err := s.client.SendEachForMulticast(ctx, &fcm.MulticastMessage{
			Tokens:       batch,
			Notification: &fcm.Notification{Title: n.Title, Body: n.Body},
			Data:         data,
			Android:      &fcm.AndroidConfig{Priority: "high"},
		})
		if err != nil {
			return invalid, fmt.Errorf("ошибка отправки FCM: %w", err)
		}

		s.logger.Info("Результат отправки FCM",
			zap.Int("success_count", br.SuccessCount),
			zap.Int("failure_count", br.FailureCount),
		)
		for idx, resp := range br.Responses {
			if resp.Success {
				continue
			}
			failures++
			if fcm.IsInvalidArgument(resp.Error) || fcm.IsUnregistered(resp.Error) || fcm.IsSenderIDMismatch(resp.Error) {
				invalid = append(invalid, batch[idx])
				continue
			}
			s.logger.Error("Ошибка доставки FCM для токена", zap.String("token", batch[idx]), zap.Error(resp.Error))
		}
	}

	// Невалидные токены удаляются вызывающим, это не ошибка доставки
	if failures > len(invalid) {
		return invalid, fmt.Errorf("ошибка доставки %d из %d FCM сообщений", failures-len(invalid), len(tokens))
	}
	return invalid, nil
}

func (s *fcmSender) Platform() string { return models.PlatformAndroid }
