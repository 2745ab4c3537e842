package page

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func newTestQueue(dom DOM) *Queue {
	return NewQueue(dom, &fakeHost{}, slog.New(slog.DiscardHandler), Options{})
}

func TestQueueInstallAndTeardown(t *testing.T) {
	dom := newFakeDOM()
	q := newTestQueue(dom)
	defer q.Close()

	ctx := context.Background()
	if err := q.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := q.Teardown(ctx); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if dom.live() != 0 {
		t.Errorf("live listeners = %d after teardown", dom.live())
	}
}

func TestQueueTeardownWithoutInstall(t *testing.T) {
	q := newTestQueue(newFakeDOM())
	defer q.Close()

	if err := q.Teardown(context.Background()); err != nil {
		t.Errorf("Teardown on Absent state: %v", err)
	}
}

func TestQueueRequestsAfterClose(t *testing.T) {
	q := newTestQueue(newFakeDOM())
	q.Close()

	if err := q.Install(context.Background()); !errors.Is(err, ErrGone) {
		t.Errorf("Install after Close = %v, want ErrGone", err)
	}
	if _, err := q.HeapPressure(context.Background()); !errors.Is(err, ErrGone) {
		t.Errorf("HeapPressure after Close = %v, want ErrGone", err)
	}
}

func TestQueueHonorsContextDeadline(t *testing.T) {
	q := newTestQueue(newFakeDOM())
	defer q.Close()

	// Wedge the queue so the next request cannot be served in time.
	release := make(chan struct{})
	q.post(func() { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Install(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Install on wedged queue = %v, want deadline exceeded", err)
	}
}

func TestQueueHeapPressure(t *testing.T) {
	dom := newFakeDOM()
	dom.heap = 0.91
	q := newTestQueue(dom)
	defer q.Close()

	ratio, err := q.HeapPressure(context.Background())
	if err != nil {
		t.Fatalf("HeapPressure: %v", err)
	}
	if ratio != 0.91 {
		t.Errorf("ratio = %g, want 0.91", ratio)
	}
}

func TestQueueNotifyPinned(t *testing.T) {
	dom := newFakeDOM()
	q := newTestQueue(dom)
	defer q.Close()

	ctx := context.Background()
	if err := q.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}

	q.NotifyPinned(true)

	// A follow-up request observes the queue state after the notify.
	var pinned bool
	if err := q.do(ctx, func() error { pinned = q.c.pinned; return nil }); err != nil {
		t.Fatalf("do: %v", err)
	}
	if !pinned {
		t.Error("pinned state not applied by NotifyPinned")
	}
}
