package background

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
)

var ErrPoolClosed = errors.New("worker pool is shut down")

type Job func(ctx context.Context) error

type task struct {
	key  string
	job  Job
	done chan error
}

// Pool runs jobs on a fixed set of workers. Each worker owns a bounded queue and
// jobs are sharded by key, so jobs sharing a key never run concurrently and keep
// their submission order.
type Pool struct {
	shards     []chan task
	jobTimeout time.Duration
	metrics    *metrics.ReconcilerMetrics
	logger     *slog.Logger

	mu      sync.RWMutex
	closed  bool
	running atomic.Bool
	wg      sync.WaitGroup

	runCtx    context.Context
	cancelRun context.CancelFunc
}

func NewPool(workers, queueSize int, jobTimeout time.Duration, m *metrics.ReconcilerMetrics, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	perShard := queueSize / workers
	if perShard <= 0 {
		perShard = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	shards := make([]chan task, workers)
	for i := range shards {
		shards[i] = make(chan task, perShard)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Pool{
		shards:     shards,
		jobTimeout: jobTimeout,
		metrics:    m,
		logger:     logger,
		runCtx:     runCtx,
		cancelRun:  cancel,
	}
}

func (p *Pool) Start() {
	for i := range p.shards {
		p.wg.Add(1)
		go p.work(i)
	}
	p.running.Store(true)
	p.logger.Info("worker pool started", "workers", len(p.shards), "queue_per_worker", cap(p.shards[0]))
}

// Running reports whether the pool accepts work.
func (p *Pool) Running() bool {
	return p.running.Load()
}

// TrySubmit queues job without blocking. It returns domain.ErrQueueFull when the
// key's worker is saturated.
func (p *Pool) TrySubmit(key string, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	shard := p.shardFor(key)
	select {
	case p.shards[shard] <- task{key: key, job: job}:
		p.metrics.SetQueueDepth(strconv.Itoa(shard), len(p.shards[shard]))
		return nil
	default:
		p.metrics.RecordQueueRejected(strconv.Itoa(shard))
		return domain.ErrQueueFull
	}
}

// Do queues job, waiting for room, and returns the job's result.
func (p *Pool) Do(ctx context.Context, key string, job Job) error {
	done := make(chan error, 1)
	if err := p.enqueueWait(ctx, task{key: key, job: job, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) enqueueWait(ctx context.Context, t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	shard := p.shardFor(t.key)
	select {
	case p.shards[shard] <- t:
		p.metrics.SetQueueDepth(strconv.Itoa(shard), len(p.shards[shard]))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs to drain. When ctx expires first,
// running jobs are cancelled and ctx's error is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.running.Store(false)
	for _, ch := range p.shards {
		close(ch)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		p.cancelRun()
		p.logger.Info("worker pool drained")
		return nil
	case <-ctx.Done():
		p.cancelRun()
		<-drained
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}

func (p *Pool) shardFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.shards)))
}

func (p *Pool) work(shard int) {
	defer p.wg.Done()
	label := strconv.Itoa(shard)
	for t := range p.shards[shard] {
		p.metrics.SetQueueDepth(label, len(p.shards[shard]))
		err := p.run(t)
		if t.done != nil {
			t.done <- err
		} else if err != nil {
			p.logger.Error("job failed", "key", t.key, "error", err)
		}
	}
}

func (p *Pool) run(t task) (err error) {
	ctx := p.runCtx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", "key", t.key, "panic", r)
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return t.job(ctx)
}
