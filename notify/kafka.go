package notify

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events keyed by report id.
type Kafka struct {
	writer KafkaWriter
	logger *zap.Logger
}

// NewKafka makes sure the topic exists, retrying the broker dial a few times,
// and returns a sender writing to it.
func NewKafka(brokers []string, topic string, logger *zap.Logger) (*Kafka, error) {
	logger = logger.Named("kafka_producer")

	err := backoff.Retry(func() error {
		conn, err := kafka.Dial("tcp", brokers[0])
		if err != nil {
			return err
		}
		defer conn.Close()

		err = conn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		})
		if err != nil {
			logger.Warn("failed to create topic (may already exist)", zap.Error(err))
		}
		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
	if err != nil {
		return nil, err
	}

	return &Kafka{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		logger: logger,
	}, nil
}

func (k *Kafka) Send(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ReportID.String()),
		Value: value,
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
