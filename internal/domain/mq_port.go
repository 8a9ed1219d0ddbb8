package domain

import "context"

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

// EventQueue accepts raw gateway notifications for asynchronous processing.
type EventQueue interface {
	Enqueue(ctx context.Context, key string, payload []byte) error
}
