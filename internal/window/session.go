// Package window coordinates one native window's lifecycle: the page
// enhancement install/teardown protocol, the periodic cache-clear and
// memory-probe tasks, and the navigation policy checks.
package window

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the live state held for one window instance. It is owned
// exclusively by the Coordinator and mutated only under its lock.
type Session struct {
	ID             string
	AlwaysOnTop    bool
	ContentLoading bool
	LoadStartedAt  time.Time

	cacheClearTask  *task
	memoryProbeTask *task
}

func newSession() *Session {
	return &Session{ID: uuid.NewString()}
}

// cancelTasks cancels both periodic task handles and clears them.
func (s *Session) cancelTasks() {
	if s.cacheClearTask != nil {
		s.cacheClearTask.Cancel()
		s.cacheClearTask = nil
	}
	if s.memoryProbeTask != nil {
		s.memoryProbeTask.Cancel()
		s.memoryProbeTask = nil
	}
}

// task is a cancellable periodic goroutine. Cancel is idempotent and
// safe from any goroutine.
type task struct {
	stop chan struct{}
	once sync.Once
}

func newTask(interval time.Duration, fn func()) *task {
	t := &task{stop: make(chan struct{})}
	go func() {
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				fn()
			case <-t.stop:
				return
			}
		}
	}()
	return t
}

func (t *task) Cancel() {
	t.once.Do(func() { close(t.stop) })
}
