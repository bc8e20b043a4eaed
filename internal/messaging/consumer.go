package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"qadamsafe/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const processTimeout = 30 * time.Second

// NotificationSender delivers one push payload.
type NotificationSender interface {
	SendNotification(ctx context.Context, payload models.PushNotificationPayload) error
}

// Consumer reads the push queue with a fixed number of workers.
type Consumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	processor   *Processor
	stopOnce    sync.Once
	stopChannel chan struct{}
	wg          sync.WaitGroup
}

func NewConsumer(conn *amqp.Connection, logger *zap.Logger, queueName string, concurrency int, processor *Processor) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		logger:      logger.Named("consumer"),
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		stopChannel: make(chan struct{}),
	}
}

// Start blocks until Stop is called or the delivery channel closes.
func (c *Consumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("не удалось открыть канал RabbitMQ: %w", err)
	}
	defer ch.Close()

	q, err := declarePushQueue(ch, c.queueName)
	if err != nil {
		return fmt.Errorf("не удалось объявить очередь '%s': %w", c.queueName, err)
	}
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("не удалось установить QoS: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "qadamsafe-notifier", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("не удалось зарегистрировать консьюмера: %w", err)
	}

	c.logger.Info("Консьюмер запущен, ожидание сообщений...", zap.String("queue", q.Name), zap.Int("concurrency", c.concurrency))

	done := make(chan struct{})
	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			logger := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						logger.Info("Канал сообщений закрыт, воркер завершает работу")
						return
					}
					c.processor.ProcessMessage(ctx, d)
				}
			}
		}(i)
	}
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-c.stopChannel:
		c.logger.Info("Получен сигнал остановки, отменяем контекст воркеров...")
	case <-done:
		c.logger.Warn("Все воркеры завершились (канал закрыт)")
	}
	cancel()
	c.wg.Wait()
	c.logger.Info("Все воркеры консьюмера остановлены")
	return nil
}

func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChannel) })
}

// Processor decodes deliveries and hands them to the sender.
type Processor struct {
	logger *zap.Logger
	sender NotificationSender
}

func NewProcessor(logger *zap.Logger, sender NotificationSender) *Processor {
	return &Processor{logger: logger.Named("processor"), sender: sender}
}

// ProcessMessage acks on success. A failed delivery is requeued once,
// a redelivered one and a malformed one are dropped.
func (p *Processor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	log := p.logger.With(zap.Uint64("delivery_tag", d.DeliveryTag))

	var payload models.PushNotificationPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Error("Ошибка десериализации JSON", zap.Error(err), zap.ByteString("body", d.Body))
		if ackErr := d.Nack(false, false); ackErr != nil {
			log.Error("Ошибка Nack сообщения после ошибки JSON", zap.Error(ackErr))
		}
		return
	}

	processCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	if err := p.sender.SendNotification(processCtx, payload); err != nil {
		requeue := !d.Redelivered
		log.Error("Ошибка обработки уведомления", zap.Error(err), zap.Stringer("userID", payload.UserID), zap.Bool("requeue", requeue))
		if ackErr := d.Nack(false, requeue); ackErr != nil {
			log.Error("Ошибка Nack сообщения после ошибки обработки", zap.Error(ackErr))
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("Ошибка Ack сообщения после успешной обработки", zap.Error(ackErr))
	}
	log.Debug("Сообщение обработано", zap.Stringer("userID", payload.UserID))
}
