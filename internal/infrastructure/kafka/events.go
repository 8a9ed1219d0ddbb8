package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

// EventPublisher is the kafka-backed intake queue for raw gateway notifications.
type EventPublisher struct {
	Publisher domain.PublisherPort
	Topic     string
}

var _ domain.EventQueue = (*EventPublisher)(nil)

func NewEventPublisher(publisher domain.PublisherPort, topic string) *EventPublisher {
	return &EventPublisher{Publisher: publisher, Topic: topic}
}

func (p *EventPublisher) Enqueue(ctx context.Context, key string, payload []byte) error {
	return p.Publisher.Publish(ctx, p.Topic, domain.Message{Key: []byte(key), Value: payload})
}

// SyncRequest asks the repair consumer to copy one primary record to the secondaries.
type SyncRequest struct {
	Kind        domain.EntityKind `json:"kind"`
	PrimaryID   string            `json:"primary_id"`
	RequestedAt time.Time         `json:"requested_at"`
}

// SyncRequestPublisher schedules repairs after a secondary write failed.
type SyncRequestPublisher struct {
	Publisher domain.PublisherPort
	Topic     string
}

var _ domain.SyncScheduler = (*SyncRequestPublisher)(nil)

func NewSyncRequestPublisher(publisher domain.PublisherPort, topic string) *SyncRequestPublisher {
	return &SyncRequestPublisher{Publisher: publisher, Topic: topic}
}

func (p *SyncRequestPublisher) ScheduleSync(ctx context.Context, kind domain.EntityKind, primaryID string) error {
	v, err := json.Marshal(SyncRequest{Kind: kind, PrimaryID: primaryID, RequestedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return p.Publisher.Publish(ctx, p.Topic, domain.Message{Key: []byte(primaryID), Value: v})
}
