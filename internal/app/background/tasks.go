package background

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/LavaJover/shvark-crm-reconciler/internal/config"
	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/kafka"
	"golang.org/x/sync/errgroup"
)

type Syncer interface {
	Sync(ctx context.Context, kind domain.EntityKind, primaryID string) error
}

// BackgroundTasks are the long running consumers of the serve command.
type BackgroundTasks struct {
	Kafka      config.KafkaService
	Consumers  int
	Subscriber *kafka.DefaultKafkaSubscriber
	Pool       *Pool
	Processor  *WebhookProcessor
	Syncer     Syncer
	Logger     *slog.Logger
}

func NewBackgroundTasks(
	kafkaCfg config.KafkaService,
	consumers int,
	subscriber *kafka.DefaultKafkaSubscriber,
	pool *Pool,
	processor *WebhookProcessor,
	syncer Syncer,
	logger *slog.Logger,
) *BackgroundTasks {
	if consumers <= 0 {
		consumers = 1
	}
	return &BackgroundTasks{
		Kafka:      kafkaCfg,
		Consumers:  consumers,
		Subscriber: subscriber,
		Pool:       pool,
		Processor:  processor,
		Syncer:     syncer,
		Logger:     logger,
	}
}

// Run blocks until ctx is done. Without kafka there is nothing to consume: webhooks
// go straight to the pool.
func (bt *BackgroundTasks) Run(ctx context.Context) error {
	if !bt.Kafka.Enabled() || bt.Subscriber == nil {
		<-ctx.Done()
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < bt.Consumers; i++ {
		g.Go(func() error { return bt.consumeEvents(ctx) })
	}
	g.Go(func() error { return bt.consumeRepairs(ctx) })
	return g.Wait()
}

// consumeEvents hands each message to the pool and waits for it, so the offset is
// committed only once the event was processed.
func (bt *BackgroundTasks) consumeEvents(ctx context.Context) error {
	bt.Logger.Info("event consumer started", "topic", bt.Kafka.EventsTopic)
	return bt.Subscriber.Consume(ctx, bt.Kafka.EventsTopic, bt.Kafka.GroupID, func(ctx context.Context, msg domain.Message) error {
		return bt.Pool.Do(ctx, string(msg.Key), func(ctx context.Context) error {
			return bt.Processor.Handle(ctx, msg.Value)
		})
	})
}

func (bt *BackgroundTasks) consumeRepairs(ctx context.Context) error {
	bt.Logger.Info("repair consumer started", "topic", bt.Kafka.RepairsTopic)
	return bt.Subscriber.Consume(ctx, bt.Kafka.RepairsTopic, bt.Kafka.GroupID+"-repairs", func(ctx context.Context, msg domain.Message) error {
		var req kafka.SyncRequest
		if err := json.Unmarshal(msg.Value, &req); err != nil {
			bt.Logger.Error("dropping undecodable sync request", "error", err)
			return nil
		}
		return bt.Syncer.Sync(ctx, req.Kind, req.PrimaryID)
	})
}
