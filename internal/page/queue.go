package page

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Queue owns the controller's single execution queue: every DOM event,
// timer callback, and host request runs on one goroutine, so the
// controller itself needs no locks. Requests from the host side are
// asynchronous and bounded by their context — the caller never blocks on
// a page that has stopped responding.
type Queue struct {
	c    *Controller
	reqs chan func()
	done chan struct{}
	once sync.Once
}

// ErrGone is returned for requests after the queue has been closed.
var ErrGone = fmt.Errorf("page: context gone")

// NewQueue builds a controller whose DOM callbacks and timers are
// serialized onto a fresh queue, and starts the queue.
func NewQueue(dom DOM, host Host, log *slog.Logger, opts Options) *Queue {
	q := &Queue{
		reqs: make(chan func(), 64),
		done: make(chan struct{}),
	}
	qd := queuedDOM{dom: dom, post: q.post}
	qt := queuedTimers{post: q.post}
	q.c = NewController(qd, host, qt, log, opts)
	go q.run()
	return q
}

func (q *Queue) run() {
	for {
		select {
		case <-q.done:
			return
		case fn := <-q.reqs:
			fn()
		}
	}
}

// Close stops the queue. Outstanding and future requests fail with
// ErrGone. The page-side resources are not released here — a closed queue
// means the page context itself is gone.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}

// post schedules fn on the queue, dropping it if the queue is closed.
func (q *Queue) post(fn func()) {
	select {
	case <-q.done:
	case q.reqs <- fn:
	}
}

// do runs fn on the queue and waits for its result, the context, or queue
// shutdown, whichever first.
func (q *Queue) do(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	select {
	case <-q.done:
		return ErrGone
	case q.reqs <- func() { res <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrGone
	}
}

// Install asks the controller to install the enhancements.
func (q *Queue) Install(ctx context.Context) error {
	return q.do(ctx, q.c.Install)
}

// Teardown asks the controller to release everything. Safe to call at any
// time, in any state.
func (q *Queue) Teardown(ctx context.Context) error {
	return q.do(ctx, func() error { q.c.Teardown(); return nil })
}

// HeapPressure asks the page for its heap used/limit ratio.
func (q *Queue) HeapPressure(ctx context.Context) (float64, error) {
	var ratio float64
	err := q.do(ctx, func() error {
		var err error
		ratio, err = q.c.Probe()
		return err
	})
	return ratio, err
}

// NotifyPinned delivers the host's always-on-top state, fire-and-forget.
func (q *Queue) NotifyPinned(pinned bool) {
	q.post(func() { q.c.SetPinned(pinned) })
}

// queuedDOM forwards listener callbacks onto the queue so they never run
// on the transport's goroutine.
type queuedDOM struct {
	dom  DOM
	post func(func())
}

func (d queuedDOM) CreateElement(id string) (Node, error) { return d.dom.CreateElement(id) }
func (d queuedDOM) Reload() error                         { return d.dom.Reload() }
func (d queuedDOM) HeapPressure() (float64, error)        { return d.dom.HeapPressure() }

func (d queuedDOM) Listen(event string, fn func(Event)) (Handle, error) {
	return d.dom.Listen(event, func(ev Event) {
		d.post(func() { fn(ev) })
	})
}

// queuedTimers implements Timers with wall-clock timers whose callbacks
// are posted onto the queue.
type queuedTimers struct {
	post func(func())
}

func (t queuedTimers) After(d time.Duration, fn func()) Handle {
	timer := time.AfterFunc(d, func() { t.post(fn) })
	return HandleFunc(func() { timer.Stop() })
}

func (t queuedTimers) Every(d time.Duration, fn func()) Handle {
	ticker := time.NewTicker(d)
	stop := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.post(fn)
			}
		}
	}()
	var once sync.Once
	return HandleFunc(func() { once.Do(func() { close(stop) }) })
}
