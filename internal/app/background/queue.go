package background

import (
	"context"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
)

type PayloadHandler func(ctx context.Context, payload []byte) error

// PoolQueue is the in-process intake queue used when no kafka brokers are configured.
type PoolQueue struct {
	Pool    *Pool
	Handler PayloadHandler
}

var _ domain.EventQueue = (*PoolQueue)(nil)

func NewPoolQueue(pool *Pool, handler PayloadHandler) *PoolQueue {
	return &PoolQueue{Pool: pool, Handler: handler}
}

func (q *PoolQueue) Enqueue(ctx context.Context, key string, payload []byte) error {
	body := append([]byte(nil), payload...)
	return q.Pool.TrySubmit(key, func(ctx context.Context) error {
		return q.Handler(ctx, body)
	})
}

// DirectScheduler runs repairs in-process when no repair topic is available.
type DirectScheduler struct {
	Pool *Pool
	Sync func(ctx context.Context, kind domain.EntityKind, primaryID string) error
}

var _ domain.SyncScheduler = (*DirectScheduler)(nil)

func (s *DirectScheduler) ScheduleSync(ctx context.Context, kind domain.EntityKind, primaryID string) error {
	return s.Pool.TrySubmit("sync/"+primaryID, func(ctx context.Context) error {
		return s.Sync(ctx, kind, primaryID)
	})
}
