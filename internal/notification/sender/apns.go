package sender

import (
	"context"
	"fmt"
	"sync"

	"qadamsafe/internal/config"
	"qadamsafe/internal/models"
	"qadamsafe/internal/notification"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
	"go.uber.org/zap"
)

// apnsMaxInFlight ограничивает число одновременных запросов к APNs.
const apnsMaxInFlight = 16

// pusher - часть *apns2.Client, которая нам нужна.
type pusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

type apnsSender struct {
	client pusher
	topic  string
	logger *zap.Logger
}

// NewApnsSender создает отправитель APNs. Возвращает nil, nil если конфигурация неполная.
func NewApnsSender(cfg config.APNSConfig, logger *zap.Logger) (notification.PlatformSender, error) {
	if !cfg.Enabled() {
		logger.Warn("APNS конфигурация не полная (KeyPath, KeyID, TeamID, Topic), APNS sender не будет создан.")
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа APNS из файла %s: %w", cfg.KeyPath, err)
	}
	client := apns2.NewTokenClient(&token.Token{AuthKey: authKey, KeyID: cfg.KeyID, TeamID: cfg.TeamID})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	logger.Info("APNS Sender успешно инициализирован",
		zap.String("key_id", cfg.KeyID),
		zap.String("team_id", cfg.TeamID),
		zap.String("topic", cfg.Topic),
		zap.Bool("production", cfg.Production),
	)
	return &apnsSender{client: client, topic: cfg.Topic, logger: logger.Named("apns_sender")}, nil
}

func (s *apnsSender) Send(ctx context.Context, tokens []string, n models.PushNotification, data map[string]string) ([]string, error) {
	p := payload.NewPayload().AlertTitle(n.Title).AlertBody(n.Body).Sound("default")
	for k, v := range data {
		p.Custom(k, v)
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		invalid    []string
		failures   int
		firstError error
	)
	sem := make(chan struct{}, apnsMaxInFlight)

	for _, deviceToken := range tokens {
		wg.Add(1)
		sem <- struct{}{}
		go func(tokenToSend string) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := s.client.PushWithContext(ctx, &apns2.Notification{
				DeviceToken: tokenToSend,
				Topic:       s.topic,
				Payload:     p,
				Priority:    apns2.PriorityHigh,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures++
				if firstError == nil {
					firstError = fmt.Errorf("apns send error: %w", err)
				}
			case res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken:
				invalid = append(invalid, tokenToSend)
			case !res.Sent():
				s.logger.Warn("APNS уведомление не отправлено",
					zap.Int("status_code", res.StatusCode),
					zap.String("apns_id", res.ApnsID),
					zap.String("reason", res.Reason),
				)
				failures++
				if firstError == nil {
					firstError = fmt.Errorf("apns delivery failed: %s", res.Reason)
				}
			}
		}(deviceToken)
	}
	wg.Wait()

	if failures > 0 {
		s.logger.Error("Завершено с ошибками APNS", zap.Int("failures", failures), zap.Int("total", len(tokens)))
		return invalid, firstError
	}
	return invalid, nil
}

func (s *apnsSender) Platform() string { return models.PlatformIOS }
