package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

// KafkaConfig configures the Kafka publisher. Brokers is a comma separated
// host:port list; every topic is prefixed with TopicPrefix and a dot.
type KafkaConfig struct {
	Brokers     string
	TopicPrefix string
}

// KafkaPublisher writes outbox events to Kafka, keyed so that all events of
// one order land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
}

func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	brokers := ParseBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		prefix: cfg.TopicPrefix,
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...*entity.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msgs = append(msgs, message(p.prefix, e))
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: write %d messages: %w", len(msgs), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }

func message(prefix string, e *entity.OutboxEvent) kafka.Message {
	return kafka.Message{
		Topic: TopicName(prefix, e.Topic),
		Key:   []byte(e.Key),
		Value: e.Payload,
		Time:  e.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.ID)},
			{Key: "event_type", Value: []byte(e.Topic)},
		},
	}
}

// TopicName maps an outbox topic such as "order.created" onto a broker topic.
func TopicName(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}
