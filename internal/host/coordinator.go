// Package host owns the process-wide concerns: the tray session, the
// fault-handler registry, the willQuit flag, and the fatal-fault
// boundary that runs bounded cleanup before the process exits.
package host

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"webperch/internal/alert"
	"webperch/internal/faultlog"
	"webperch/internal/sanitize"
)

// DefaultCleanupTimeout bounds fatal-path cleanup so a hung page context
// can never prevent process exit.
const DefaultCleanupTimeout = 3 * time.Second

// MenuItem is one entry of the tray context menu model. A Separator item
// renders a divider; its other fields are ignored.
type MenuItem struct {
	Label       string
	Accelerator string
	Action      func()
	Separator   bool
}

// Actions are the window-level operations the tray menu drives.
type Actions struct {
	ShowHide      func()
	Reload        func()
	OpenInBrowser func()
	Quit          func()
}

// MenuModel returns the ordered tray menu. The toolkit layer renders it
// verbatim, so ordering and separators are decided here in one place.
func MenuModel(a Actions) []MenuItem {
	return []MenuItem{
		{Label: "Show / Hide", Action: a.ShowHide},
		{Label: "Reload", Accelerator: "CmdOrCtrl+R", Action: a.Reload},
		{Separator: true},
		{Label: "Open in Browser", Action: a.OpenInBrowser},
		{Separator: true},
		{Label: "Quit", Accelerator: "CmdOrCtrl+Q", Action: a.Quit},
	}
}

// Coordinator is the process-level fault and shutdown owner. One per
// process.
type Coordinator struct {
	log    *slog.Logger
	alerts *alert.Publisher

	cleanupTimeout time.Duration
	exit           func(int) // injectable for tests

	mu       sync.Mutex
	willQuit bool
	handlers map[string]func() // name → unsubscribe
	cleanup  []func(context.Context)
	fatalled bool
}

// New returns a Coordinator. alerts may be a disabled publisher.
func New(alerts *alert.Publisher, log *slog.Logger) *Coordinator {
	return &Coordinator{
		log:            log,
		alerts:         alerts,
		cleanupTimeout: DefaultCleanupTimeout,
		exit:           os.Exit,
		handlers:       make(map[string]func()),
	}
}

// SetWillQuit marks the next close as a user-initiated quit rather than
// a close-to-tray.
func (c *Coordinator) SetWillQuit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.willQuit = true
}

// WillQuit reports whether a user-initiated quit is in progress.
func (c *Coordinator) WillQuit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.willQuit
}

// Subscribe records a named handler's unsubscribe hook. Re-registering
// the same name runs the prior hook first, so re-running setup never
// accumulates duplicate handlers.
func (c *Coordinator) Subscribe(name string, unsubscribe func()) {
	c.mu.Lock()
	prior := c.handlers[name]
	c.handlers[name] = unsubscribe
	c.mu.Unlock()
	if prior != nil {
		prior()
	}
}

// Unsubscribe removes one named handler, running its hook.
func (c *Coordinator) Unsubscribe(name string) {
	c.mu.Lock()
	un := c.handlers[name]
	delete(c.handlers, name)
	c.mu.Unlock()
	if un != nil {
		un()
	}
}

// UnsubscribeAll removes every registered handler.
func (c *Coordinator) UnsubscribeAll() {
	c.mu.Lock()
	hs := c.handlers
	c.handlers = make(map[string]func())
	c.mu.Unlock()
	for _, un := range hs {
		if un != nil {
			un()
		}
	}
}

// HandlerCount reports the number of live handler subscriptions.
func (c *Coordinator) HandlerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// AddCleanup appends an ordered fatal-cleanup step. Steps run under the
// bounded timeout on the fatal path, before the tray and handlers go.
func (c *Coordinator) AddCleanup(step func(context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanup = append(c.cleanup, step)
}

// Guard runs fn on a new goroutine and converts a panic into a fatal
// fault instead of crashing the runtime.
func (c *Coordinator) Guard(name string, fn func()) {
	go func() {
		defer func() {
			if v := recover(); v != nil {
				c.log.Error("panic in guarded goroutine", "name", name)
				c.OnFatal(v)
			}
		}()
		fn()
	}()
}

// WatchSignals treats SIGINT/SIGTERM as an orderly stop: the same
// bounded cleanup as a tray quit, exit status zero. Panics stay the
// only non-zero path. The returned stop function unregisters the watch.
func (c *Coordinator) WatchSignals() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-ch:
			c.log.Info("stop signal received", "signal", sig.String())
			c.Shutdown(0)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// OnFatal is the process fault boundary: sanitize for logging, record,
// alert, run bounded cleanup, and terminate non-zero regardless of
// whether cleanup completed. A second fault during cleanup is ignored.
func (c *Coordinator) OnFatal(v any) {
	c.mu.Lock()
	if c.fatalled {
		c.mu.Unlock()
		return
	}
	c.fatalled = true
	steps := append([]func(context.Context){}, c.cleanup...)
	c.mu.Unlock()

	rec := sanitize.Sanitize(v)
	c.log.Error("fatal fault", "kind", rec.Kind, "msg", rec.SafeMessage)
	faultlog.Fault(rec)
	c.alerts.Fault(rec)

	steps = append(steps, func(context.Context) { c.UnsubscribeAll() })
	if !Bounded(c.cleanupTimeout, steps...) {
		c.log.Warn("fatal cleanup timed out")
	}
	c.exit(1)
}

// Shutdown runs the normal quit path: full cleanup, then exit with the
// given status. Used for user quit and for allWindowsClosed on
// platforms without a tray.
func (c *Coordinator) Shutdown(status int) {
	c.mu.Lock()
	c.willQuit = true
	steps := append([]func(context.Context){}, c.cleanup...)
	c.mu.Unlock()

	steps = append(steps, func(context.Context) { c.UnsubscribeAll() })
	if !Bounded(c.cleanupTimeout, steps...) {
		c.log.Warn("shutdown cleanup timed out")
	}
	faultlog.Lifecycle("", "quit", "")
	c.exit(status)
}
