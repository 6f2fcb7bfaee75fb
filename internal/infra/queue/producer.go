package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadscout/internal/entity"
)

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch       Publisher
	Topology Topology
}

func NewProducer(ch Publisher, topology Topology) *RabbitMQProducer {
	return &RabbitMQProducer{
		Ch:       ch,
		Topology: topology.withDefaults(),
	}
}

// PublishRawLead announces a newly inserted lead row.
func (p *RabbitMQProducer) PublishRawLead(ctx context.Context, lead entity.RawLead) error {
	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		p.Topology.Exchange,
		p.Topology.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprintf("lead-%d", lead.ID),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to RabbitMQ: %w", err)
	}

	return nil
}
