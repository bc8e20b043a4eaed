package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishTimeout  = 10 * time.Second
	publishAttempts = 3
	publisherAppID  = "qadamsafe-api"
)

var _ interfaces.PushPublisher = (*PushPublisher)(nil)

// PushPublisher publishes PushNotificationPayload messages to the push queue.
type PushPublisher struct {
	mu        sync.Mutex // amqp.Channel нельзя использовать для публикации из нескольких горутин
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewPushPublisher opens a channel and declares the queue.
func NewPushPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*PushPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("push notification publisher: не удалось открыть канал: %w", err)
	}
	if _, err := declarePushQueue(ch, queueName); err != nil {
		ch.Close()
		return nil, fmt.Errorf("push notification publisher: не удалось объявить очередь '%s': %w", queueName, err)
	}
	logger.Info("PushPublisher: очередь объявлена", zap.String("queue", queueName))
	return &PushPublisher{channel: ch, queueName: queueName, logger: logger.Named("PushPublisher")}, nil
}

func (p *PushPublisher) PublishPushNotification(ctx context.Context, payload models.PushNotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации push payload: %w", err)
	}
	if err := p.publish(ctx, body); err != nil {
		return fmt.Errorf("ошибка публикации push для пользователя %s: %w", payload.UserID, err)
	}
	p.logger.Debug("Push notification published", zap.Stringer("userID", payload.UserID))
	return nil
}

func (p *PushPublisher) publish(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("канал RabbitMQ не инициализирован")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // default exchange
			p.queueName, // routing key = имя очереди
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        publisherAppID,
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Ошибка публикации", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("ошибка публикации в очередь %s после %d попыток: %w", p.queueName, publishAttempts, err)
}

// Close closes the channel.
func (p *PushPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}
