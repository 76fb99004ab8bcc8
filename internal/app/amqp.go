package app

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// publisher is the part of *amqp.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes reminders as persistent JSON messages to a queue.
type AMQPNotifier struct {
	ch    publisher
	queue string
	log   *zap.Logger

	conn *amqp.Connection
}

// DialAMQPNotifier connects to the broker and declares the durable queue.
func DialAMQPNotifier(url, queue string, log *zap.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	n := newAMQPNotifier(ch, queue, log)
	n.conn = conn
	return n, nil
}

func newAMQPNotifier(ch publisher, queue string, log *zap.Logger) *AMQPNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &AMQPNotifier{ch: ch, queue: queue, log: log}
}

func (n *AMQPNotifier) Notify(ctx context.Context, r Reminder) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reminder: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    r.ID,
		Timestamp:    r.CreatedAt,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Headers: amqp.Table{
			"message_type": "meal_reminder",
		},
	}
	if err := n.ch.PublishWithContext(ctx, "", n.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish reminder to %s: %w", n.queue, err)
	}
	n.log.Debug("reminder published", zap.String("queue", n.queue), zap.String("resident", r.Resident))
	return nil
}

// Close closes the broker connection.
func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
