package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunNowReturnsResult(t *testing.T) {
	svc := New(nil)
	got, err := svc.RunNow(context.Background(), JobResetCleanup, func(context.Context) (any, error) {
		return 3, nil
	})
	if err != nil || got != 3 {
		t.Fatalf("unexpected result %v %v", got, err)
	}

	_, err = svc.RunNow(context.Background(), JobResetCleanup, func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected job error")
	}
}

func TestWorkerDrainsQueue(t *testing.T) {
	svc := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	done := make(chan struct{})
	var runs atomic.Int32
	for i := 0; i < 3; i++ {
		svc.Enqueue(JobNotify, func(context.Context) (any, error) {
			if runs.Add(1) == 3 {
				close(done)
			}
			return nil, nil
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected 3 runs, got %d", runs.Load())
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	svc := New(nil)
	noop := func(context.Context) (any, error) { return nil, nil }
	for i := 0; i < defaultQueueSize; i++ {
		if !svc.Enqueue(JobNotify, noop) {
			t.Fatalf("enqueue %d should fit", i)
		}
	}
	if svc.Enqueue(JobNotify, noop) {
		t.Fatal("expected full queue to drop the job")
	}
}

func TestScheduledJobRuns(t *testing.T) {
	svc := New(nil)
	fired := make(chan struct{}, 1)
	svc.Every(JobTokenSweep, 10*time.Millisecond, func(context.Context) (any, error) {
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil, nil
	})
	svc.Every(JobResetCleanup, 0, func(context.Context) (any, error) {
		t.Error("zero interval must not be scheduled")
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}
