package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAsyncTaskQueueEnqueueRunsTask(t *testing.T) {
	q := NewAsyncTaskQueue(2, nil)
	result := <-q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return 42, nil
	})
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Value.(int) != 42 {
		t.Errorf("expected 42, got %v", result.Value)
	}
}

func TestAsyncTaskQueueRecoversPanic(t *testing.T) {
	q := NewAsyncTaskQueue(1, nil)
	result := <-q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		panic("boom")
	})
	if result.Err == nil {
		t.Fatal("expected panic to be converted into an error")
	}
	var fe *FrameworkError
	if !errors.As(result.Err, &fe) {
		t.Errorf("expected a *FrameworkError, got %T", result.Err)
	}
}

func TestAsyncTaskQueueOnErrorCallback(t *testing.T) {
	var captured error
	q := NewAsyncTaskQueue(1, func(err error) { captured = err })
	boom := errors.New("task failed")
	<-q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	if !errors.Is(captured, boom) {
		t.Errorf("expected onError to observe %v, got %v", boom, captured)
	}
}

func TestAsyncTaskQueueOnIdle(t *testing.T) {
	q := NewAsyncTaskQueue(1, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		close(started)
		<-release
		return nil, nil
	})
	<-started

	idle := q.OnIdle()
	select {
	case <-idle:
		t.Fatal("queue reported idle while a task is still in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-idle:
	case <-time.After(time.Second):
		t.Fatal("queue never reported idle after task completion")
	}
}

func TestAsyncTaskQueueMetricsTrackLastDuration(t *testing.T) {
	q := NewAsyncTaskQueue(1, nil)
	<-q.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		time.Sleep(10 * time.Millisecond)
		return nil, nil
	})
	if q.Metrics().LastDurationMs < 10 {
		t.Errorf("expected lastDurationMs to reflect the most recently completed task's runtime, got %d", q.Metrics().LastDurationMs)
	}
}

func TestAsyncTaskQueueConcurrencyFloor(t *testing.T) {
	q := NewAsyncTaskQueue(0, nil)
	if cap(q.sem) != 1 {
		t.Errorf("expected concurrency < 1 to be floored to 1, got capacity %d", cap(q.sem))
	}
}
