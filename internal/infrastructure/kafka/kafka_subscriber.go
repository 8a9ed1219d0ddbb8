package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/segmentio/kafka-go"
)

type Handler func(ctx context.Context, msg domain.Message) error

type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Second, MaxBackoff: 30 * time.Second}

// DefaultKafkaSubscriber consumes a topic as part of a consumer group. Offsets are
// committed only after the handler returns.
type DefaultKafkaSubscriber struct {
	brokers []string
	Retry   RetryPolicy
	Logger  *slog.Logger
}

func NewDefaultKafkaSubscriber(brokers []string, logger *slog.Logger) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{brokers: brokers, Retry: DefaultRetryPolicy, Logger: logger}
}

// Consume blocks until ctx is cancelled or the reader fails.
func (k *DefaultKafkaSubscriber) Consume(ctx context.Context, topic, groupID string, handler Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		msg := domain.Message{Key: m.Key, Value: m.Value}
		if err := k.Retry.Run(ctx, func(ctx context.Context) error { return handler(ctx, msg) }); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			k.Logger.Error("giving up on message",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "key", string(m.Key), "error", err)
		}

		if err := reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Run calls fn until it succeeds, fails with a non-transient error, or the attempts
// run out. Backoff doubles from BaseBackoff up to MaxBackoff.
func (p RetryPolicy) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := p.BaseBackoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil || !domain.IsTransient(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
	return err
}
