package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
)

// Consumer is a change-feed source reading raw-lead insert events from the queue.
type Consumer struct {
	Channel   *amqp.Channel
	QueueName string
	logger    *zap.Logger
}

func NewConsumer(ch *amqp.Channel, queueName string, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueName == "" {
		queueName = QueueName
	}
	return &Consumer{Channel: ch, QueueName: queueName, logger: logger}
}

func (c *Consumer) Run(ctx context.Context, publish func(entity.RawLead)) error {
	msgs, err := c.Channel.ConsumeWithContext(ctx,
		c.QueueName,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register RabbitMQ consumer: %w", err)
	}

	c.logger.Info("consuming raw lead events", zap.String("queue", c.QueueName))
	return c.consume(ctx, msgs, publish)
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery, publish func(entity.RawLead)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			var lead entity.RawLead
			if err := json.Unmarshal(d.Body, &lead); err != nil || lead.ID == 0 {
				c.logger.Warn("malformed lead event, dead-lettering", zap.Error(err), zap.String("message_id", d.MessageId))
				d.Nack(false, false)
				continue
			}

			middleware.RecordFeedEvent("rabbitmq")
			publish(lead)
			d.Ack(false)
		}
	}
}
