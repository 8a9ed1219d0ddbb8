package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/segmentio/kafka-go"
)

// DefaultKafkaPublisher writes keyed messages. The hash balancer sends one key to one
// partition, which keeps a donor's events in order.
type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

var _ domain.PublisherPort = (*DefaultKafkaPublisher)(nil)

func NewDefaultKafkaPublisher(brokers []string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	now := time.Now()
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
			Topic: topic,
		})
	}

	if err := k.writer.WriteMessages(ctx, km...); err != nil {
		return &domain.TransientError{Op: fmt.Sprintf("kafka publish %s", topic), Err: err}
	}
	return nil
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
