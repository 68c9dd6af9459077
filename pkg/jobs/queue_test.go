package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueProcessesJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	if err := q.Enqueue(Job{ID: "j1", Type: "test.event"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case job := <-done:
		if job.ID != "j1" {
			t.Fatalf("unexpected job: %s", job.ID)
		}
		if job.Enqueued.IsZero() {
			t.Fatalf("expected enqueue timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{}, 1)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4, MaxRetries: 5, RetryDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	if err := q.Enqueue(Job{ID: "j1", Type: "test.event"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
		if got := atomic.LoadInt32(&attempts); got != 3 {
			t.Fatalf("unexpected attempt count: %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	if err := q.Enqueue(Job{ID: "j1"}); err == nil {
		t.Fatal("expected error before start")
	}
}
