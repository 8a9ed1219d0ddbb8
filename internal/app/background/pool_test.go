package background

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-crm-reconciler/internal/domain"
	"github.com/LavaJover/shvark-crm-reconciler/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestPool(workers, queue int) *Pool {
	return NewPool(workers, queue, time.Second, metrics.NewReconcilerMetrics(prometheus.NewRegistry()), discardLogger())
}

func TestPool_SameKeyRunsInOrder(t *testing.T) {
	// Given
	pool := newTestPool(4, 64)
	pool.Start()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	// When
	for i := 0; i < 20; i++ {
		wg.Add(1)
		i := i
		if err := pool.TrySubmit("sub_1", func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("TrySubmit failed: %v", err)
		}
	}
	wg.Wait()

	// Then
	for i, got := range order {
		if got != i {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
	if err := pool.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestPool_TrySubmitReportsBackpressure(t *testing.T) {
	// Given a single worker blocked on its first job and a queue of one
	pool := newTestPool(1, 1)
	pool.Start()
	release := make(chan struct{})
	started := make(chan struct{})
	pool.TrySubmit("k", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started
	if err := pool.TrySubmit("k", func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("second submit should fit in the queue: %v", err)
	}

	// When
	err := pool.TrySubmit("k", func(ctx context.Context) error { return nil })

	// Then
	if !errors.Is(err, domain.ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	close(release)
	pool.Shutdown(context.Background())
}

func TestPool_DoReturnsJobResult(t *testing.T) {
	pool := newTestPool(2, 4)
	pool.Start()
	defer pool.Shutdown(context.Background())

	want := errors.New("crm down")
	if err := pool.Do(context.Background(), "k", func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("expected job error, got %v", err)
	}
	if err := pool.Do(context.Background(), "k", func(ctx context.Context) error { panic("boom") }); err == nil {
		t.Error("expected panic to surface as an error")
	}
}

func TestPool_ShutdownDrainsAndRejects(t *testing.T) {
	// Given
	pool := newTestPool(2, 8)
	pool.Start()
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		pool.TrySubmit("k", func(ctx context.Context) error {
			time.Sleep(time.Millisecond)
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
	}

	// When
	err := pool.Shutdown(context.Background())

	// Then
	if err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if ran != 5 {
		t.Errorf("expected queued jobs to drain, ran %d", ran)
	}
	if pool.Running() {
		t.Error("expected pool to report stopped")
	}
	if err := pool.TrySubmit("k", func(ctx context.Context) error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_ShutdownTimeoutCancelsJobs(t *testing.T) {
	pool := newTestPool(1, 1)
	pool.Start()
	started := make(chan struct{})
	pool.TrySubmit("k", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := pool.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}
