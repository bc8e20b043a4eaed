package messaging

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	defaultDialRetries = 50
	defaultDialDelay   = 5 * time.Second
)

// ConnectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func ConnectRabbitMQ(ctx context.Context, uri string, logger *zap.Logger) (*amqp.Connection, error) {
	var err error
	for i := 0; i < defaultDialRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Подключение к RabbitMQ успешно установлено")
			go func() {
				closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))
				if closeErr != nil {
					logger.Error("Соединение с RabbitMQ разорвано", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ, попытка переподключения...",
			zap.Error(err),
			zap.Int("retry", i+1),
			zap.Duration("delay", defaultDialDelay),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(defaultDialDelay):
		}
	}
	return nil, fmt.Errorf("не удалось подключиться к RabbitMQ после %d попыток: %w", defaultDialRetries, err)
}

// declarePushQueue объявляет очередь одинаково у паблишера и консьюмера.
func declarePushQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
}
