package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var pushSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qadamsafe_push_notifications_total",
		Help: "Push notification deliveries by platform and status.",
	},
	[]string{"platform", "status"},
)

// PlatformSender отправляет уведомление на одну платформу (FCM/APNs).
type PlatformSender interface {
	// Send returns tokens the platform reported as unregistered or malformed.
	Send(ctx context.Context, tokens []string, notification models.PushNotification, data map[string]string) (invalidTokens []string, err error)
	Platform() string
}

// Service delivers a queued push payload to all devices of the user.
type Service struct {
	tokens  interfaces.DeviceTokenRepository
	senders map[string]PlatformSender
	logger  *zap.Logger
}

// NewService creates the delivery service. Nil senders are skipped.
func NewService(tokens interfaces.DeviceTokenRepository, logger *zap.Logger, senders ...PlatformSender) *Service {
	s := &Service{
		tokens:  tokens,
		senders: make(map[string]PlatformSender, len(senders)),
		logger:  logger.Named("NotificationService"),
	}
	for _, snd := range senders {
		if snd == nil {
			continue
		}
		s.senders[snd.Platform()] = snd
	}
	for _, p := range []string{models.PlatformAndroid, models.PlatformIOS} {
		if _, ok := s.senders[p]; !ok {
			s.logger.Warn("Sender for platform is not configured", zap.String("platform", p))
		}
	}
	return s
}

// SendNotification groups the user's tokens by platform and sends them in parallel.
// Tokens rejected by the platform are removed from the database.
func (s *Service) SendNotification(ctx context.Context, payload models.PushNotificationPayload) error {
	log := s.logger.With(zap.Stringer("userID", payload.UserID))

	deviceTokens, err := s.tokens.GetDeviceTokensForUser(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(deviceTokens) == 0 {
		log.Debug("No device tokens for user")
		return nil
	}

	byPlatform := make(map[string][]string)
	for _, dt := range deviceTokens {
		byPlatform[dt.Platform] = append(byPlatform[dt.Platform], dt.Token)
	}

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		sendErrors    []error
		invalidTokens []string
	)
	for platform, tokens := range byPlatform {
		snd, ok := s.senders[platform]
		if !ok {
			log.Warn("No sender for platform, skipping tokens", zap.String("platform", platform), zap.Int("count", len(tokens)))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			invalid, err := snd.Send(ctx, tokens, payload.Notification, payload.Data)

			mu.Lock()
			defer mu.Unlock()
			invalidTokens = append(invalidTokens, invalid...)
			if err != nil {
				pushSentTotal.WithLabelValues(platform, "error").Inc()
				sendErrors = append(sendErrors, fmt.Errorf("%s: %w", platform, err))
				return
			}
			pushSentTotal.WithLabelValues(platform, "success").Inc()
		}()
	}
	wg.Wait()

	if len(invalidTokens) > 0 {
		deleted, err := s.tokens.DeleteDeviceTokens(ctx, invalidTokens)
		if err != nil {
			log.Error("Failed to delete invalid device tokens", zap.Error(err), zap.Int("count", len(invalidTokens)))
		} else {
			log.Info("Invalid device tokens removed", zap.Int64("deleted", deleted))
		}
	}

	if len(sendErrors) > 0 {
		log.Error("Push delivery finished with errors", zap.Errors("errors", sendErrors))
		return errors.Join(sendErrors...)
	}
	log.Info("Push notification delivered", zap.Int("devices", len(deviceTokens)))
	return nil
}
