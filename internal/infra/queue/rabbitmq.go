package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.leads"
	QueueName    = "q.leads.inserted"
	RoutingKey   = "k.lead.inserted"
)

// Topology names the exchange, queue and routing key raw-lead events travel on.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

func (t Topology) withDefaults() Topology {
	if t.Exchange == "" {
		t.Exchange = ExchangeName
	}
	if t.Queue == "" {
		t.Queue = QueueName
	}
	if t.RoutingKey == "" {
		t.RoutingKey = RoutingKey
	}
	return t
}

type RabbitMQ struct {
	Conn     *amqp.Connection
	Ch       *amqp.Channel
	Topology Topology
}

func NewRabbitMQ(url string, topology Topology) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	topology = topology.withDefaults()
	if err := setupTopology(ch, topology); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch, Topology: topology}, nil
}

func (r *RabbitMQ) Close() error {
	if r.Ch != nil {
		r.Ch.Close()
	}
	if r.Conn != nil {
		return r.Conn.Close()
	}
	return nil
}

func setupTopology(ch *amqp.Channel, t Topology) error {
	dlx := t.Exchange + ".dlx"
	dlq := t.Queue + ".dlq"

	err := ch.ExchangeDeclare(dlx, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(dlq, true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = ch.QueueBind(dlq, t.RoutingKey, dlx, false, nil)
	if err != nil {
		return err
	}

	// malformed events are dead-lettered instead of requeued
	args := amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": t.RoutingKey,
	}

	err = ch.ExchangeDeclare(t.Exchange, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(t.Queue, true, false, false, false, args)
	if err != nil {
		return err
	}

	return ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil)
}
