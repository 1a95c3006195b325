package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func job(member string) Job {
	return Job{RunID: "run", MemberID: member}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job("m1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.MemberID != "m1" {
		t.Errorf("expected m1, got %v", got.MemberID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Submit(ctx, job("m1")); err != nil {
		t.Errorf("expected submit to succeed, got %v", err)
	}
	if err := q.Submit(ctx, job("m2")); err != nil {
		t.Errorf("expected submit to succeed, got %v", err)
	}

	if err := q.Submit(ctx, job("m3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}
	if q.Enqueue(ctx, job("m3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Submit(ctx, job("m1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	producers := 10
	perProducer := 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, job(fmt.Sprintf("m%d_%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	consumed := make(chan string, producers*perProducer)
	for i := 0; i < producers; i++ {
		go func() {
			for j := range q.Dequeue(ctx) {
				consumed <- j.MemberID
			}
		}()
	}

	wg.Wait()

	deadline := time.After(2 * time.Second)
	for len(consumed) < producers*perProducer {
		select {
		case <-deadline:
			t.Fatalf("consumed %d of %d jobs", len(consumed), producers*perProducer)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("m1")) || !q.Enqueue(ctx, job("m2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Submit(ctx, job("m3")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after closing, got %v", err)
	}

	// queued jobs are still delivered before the channel closes
	var drained []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for done := false; !done; {
		select {
		case j, ok := <-ch:
			if !ok {
				done = true
				break
			}
			drained = append(drained, j.MemberID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
	if len(drained) != 2 {
		t.Errorf("expected 2 drained jobs, got %v", drained)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestJob_Fail(t *testing.T) {
	reply := make(chan Outcome, 1)
	j := Job{RunID: "r", MemberID: "m", Reply: reply}

	j.Fail(ErrClosed)
	j.Fail(ErrClosed) // buffer full: must not block

	out := <-reply
	if out.MemberID != "m" || !errors.Is(out.Err, ErrClosed) {
		t.Errorf("unexpected outcome: %+v", out)
	}

	Job{}.Fail(ErrClosed) // nil reply: no-op
}
