package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ publishes events as persistent messages on a durable queue. Each
// send dials its own connection; notifications are rare.
type RabbitMQ struct {
	url    string
	queue  string
	logger *zap.Logger
}

func NewRabbitMQ(url, queue string, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{url: url, queue: queue, logger: logger.Named("rabbitmq")}
}

func (r *RabbitMQ) Send(ctx context.Context, ev Event) error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(r.queue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ReportID.String(),
		Type:         string(ev.Type),
		Body:         body,
	})
}

func (r *RabbitMQ) Close() error {
	return nil
}
