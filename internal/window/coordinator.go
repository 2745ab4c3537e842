package window

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"webperch/internal/faultlog"
	"webperch/internal/policy"
)

// State of the coordinator's load cycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

// Page is the coordinator's view of the enhancement subsystem running
// inside the hosted page. Every call is asynchronous underneath and may
// fail or time out; failures are logged here, never propagated.
type Page interface {
	Install(ctx context.Context) error
	Teardown(ctx context.Context) error
	HeapPressure(ctx context.Context) (float64, error)
	NotifyPinned(pinned bool)
}

// HostWindow is the coordinator's view of the native window.
type HostWindow interface {
	Hide()
	Reload()
	SetAlwaysOnTop(onTop bool)
	ClearCache()
	OpenExternal(url string)
	Notify(title, message string)
}

// Options tune the coordinator's timers. Zero fields take defaults.
type Options struct {
	CacheClearInterval  time.Duration
	MemoryProbeInterval time.Duration
	MemoryHighWater     float64

	// Post-install settle delay bounds. The actual delay is twice the
	// measured install duration, clamped to this range.
	MinPostInstallDelay time.Duration
	MaxPostInstallDelay time.Duration

	InstallTimeout  time.Duration
	TeardownTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.CacheClearInterval <= 0 {
		o.CacheClearInterval = 30 * time.Minute
	}
	if o.MemoryProbeInterval <= 0 {
		o.MemoryProbeInterval = 45 * time.Second
	}
	if o.MemoryHighWater <= 0 {
		o.MemoryHighWater = 0.85
	}
	if o.MinPostInstallDelay <= 0 {
		o.MinPostInstallDelay = 200 * time.Millisecond
	}
	if o.MaxPostInstallDelay <= 0 {
		o.MaxPostInstallDelay = 2 * time.Second
	}
	if o.InstallTimeout <= 0 {
		o.InstallTimeout = 10 * time.Second
	}
	if o.TeardownTimeout <= 0 {
		o.TeardownTimeout = 3 * time.Second
	}
	return o
}

// Coordinator drives one window session through Idle → Loading → Ready
// cycles. All callbacks are safe to invoke from any goroutine; the
// session is mutated only under the coordinator's lock.
type Coordinator struct {
	log  *slog.Logger
	page Page
	win  HostWindow

	sleep func(time.Duration) // injectable for tests

	mu         sync.Mutex
	homeOrigin string
	opts       Options
	state      State
	sess       *Session
	everReady  bool
}

// New returns a Coordinator for a single window. homeOrigin is the only
// origin in-place navigation may target.
func New(page Page, win HostWindow, homeOrigin string, opts Options, log *slog.Logger) *Coordinator {
	return &Coordinator{
		log:        log,
		page:       page,
		win:        win,
		homeOrigin: homeOrigin,
		opts:       opts.withDefaults(),
		sleep:      time.Sleep,
	}
}

// Reconfigure applies a config change to the live coordinator. The home
// origin takes effect on the next navigation check, interval changes on
// the next re-arm of the affected task, and the high-water mark on the
// next probe.
func (c *Coordinator) Reconfigure(homeOrigin string, opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.homeOrigin = homeOrigin
	c.opts = opts.withDefaults()
}

// options snapshots the current tuning under the lock.
func (c *Coordinator) options() Options {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts
}

// State reports the current load-cycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the current session's id, or "" when no session is
// live.
func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return ""
	}
	return c.sess.ID
}

// LiveTaskCount reports how many periodic task handles are currently
// armed. At most two can ever be live.
func (c *Coordinator) LiveTaskCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return 0
	}
	n := 0
	if c.sess.cacheClearTask != nil {
		n++
	}
	if c.sess.memoryProbeTask != nil {
		n++
	}
	return n
}

// OnContentLoadFinished handles one content-load-completed signal:
// install the page enhancements, wait out a settle delay scaled from the
// install duration, then enter Ready. A duplicate signal arriving while
// a load is still being processed is dropped with a warning, never
// queued. Callers invoke it off the host event goroutine.
func (c *Coordinator) OnContentLoadFinished() {
	c.mu.Lock()
	if c.sess == nil {
		c.sess = newSession()
	}
	if c.sess.ContentLoading {
		c.log.Warn("load-finished signal while install in progress, dropping",
			"session", c.sess.ID)
		c.mu.Unlock()
		return
	}
	c.sess.ContentLoading = true
	c.sess.LoadStartedAt = time.Now()
	c.state = StateLoading
	// A reload invalidates the page the cache-clear task was armed
	// against; it is re-armed on Ready.
	if c.sess.cacheClearTask != nil {
		c.sess.cacheClearTask.Cancel()
		c.sess.cacheClearTask = nil
	}
	sessID := c.sess.ID
	opts := c.opts
	c.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), opts.InstallTimeout)
	err := c.page.Install(ctx)
	cancel()
	if err != nil {
		c.log.Error("page install failed", "session", sessID, "err", err)
		faultlog.Injection(sessID, "install", err)
	}
	c.sleep(clampDelay(2*time.Since(start), opts.MinPostInstallDelay, opts.MaxPostInstallDelay))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.ID != sessID {
		// Session was torn down (crash, destroy) while we waited.
		return
	}
	c.sess.ContentLoading = false
	c.state = StateReady
	if !c.everReady {
		c.everReady = true
		faultlog.Lifecycle(sessID, "ready", "")
	}
	c.armCacheClearLocked()
	if c.sess.memoryProbeTask == nil {
		c.sess.memoryProbeTask = newTask(c.opts.MemoryProbeInterval, c.probeMemory)
	}
}

func clampDelay(d, min, max time.Duration) time.Duration {
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}

// armCacheClearLocked re-arms the periodic cache-clear task, cancelling
// any prior handle first. Caller holds c.mu.
func (c *Coordinator) armCacheClearLocked() {
	if c.sess.cacheClearTask != nil {
		c.sess.cacheClearTask.Cancel()
	}
	c.sess.cacheClearTask = newTask(c.opts.CacheClearInterval, c.win.ClearCache)
}

// probeMemory asks the page for its heap pressure ratio and requests a
// proactive teardown above the high-water mark, shedding enhancement
// state instead of waiting for a reload.
func (c *Coordinator) probeMemory() {
	opts := c.options()
	ctx, cancel := context.WithTimeout(context.Background(), opts.TeardownTimeout)
	defer cancel()
	ratio, err := c.page.HeapPressure(ctx)
	if err != nil {
		c.log.Debug("memory probe failed", "err", err)
		return
	}
	if ratio <= opts.MemoryHighWater {
		return
	}
	c.log.Warn("heap pressure above high water, shedding enhancements",
		"ratio", ratio, "high_water", opts.MemoryHighWater)
	if err := c.page.Teardown(ctx); err != nil {
		c.log.Error("pressure teardown failed", "err", err)
		faultlog.Injection(c.SessionID(), "teardown", err)
	}
}

// OnCloseRequested intercepts a user close: tear the page down
// best-effort, hide instead of destroying, and surface a notification.
func (c *Coordinator) OnCloseRequested() {
	sessID := c.SessionID()
	ctx, cancel := context.WithTimeout(context.Background(), c.options().TeardownTimeout)
	if err := c.page.Teardown(ctx); err != nil {
		c.log.Warn("teardown on close failed", "session", sessID, "err", err)
	}
	cancel()
	c.win.Hide()
	c.win.Notify("webperch", "Still running in the tray")
	faultlog.Lifecycle(sessID, "hidden", "")
}

// OnDestroyed handles the window being destroyed: cancel both tasks and
// drop the session. The page context is gone, so no teardown call.
func (c *Coordinator) OnDestroyed() {
	faultlog.Lifecycle(c.SessionID(), "destroyed", "")
	c.reset()
}

// OnRendererGone handles renderer departure. A hard crash leaves no page
// context to call into, so only a clean exit attempts teardown first.
func (c *Coordinator) OnRendererGone(reason string) {
	sessID := c.SessionID()
	c.log.Warn("renderer gone", "session", sessID, "reason", reason)
	faultlog.Lifecycle(sessID, "renderer-gone", reason)
	if reason != "crashed" {
		ctx, cancel := context.WithTimeout(context.Background(), c.options().TeardownTimeout)
		if err := c.page.Teardown(ctx); err != nil {
			c.log.Warn("teardown after renderer exit failed", "err", err)
		}
		cancel()
	}
	c.reset()
}

// OnRendererUnresponsive cancels both tasks so nothing polls a hung
// renderer, and drops the session.
func (c *Coordinator) OnRendererUnresponsive() {
	c.log.Warn("renderer unresponsive", "session", c.SessionID())
	faultlog.Lifecycle(c.SessionID(), "renderer-unresponsive", "")
	c.reset()
}

// OnRendererResponsive re-arms the cache-clear task if it is absent.
func (c *Coordinator) OnRendererResponsive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		c.sess = newSession()
	}
	if c.sess.cacheClearTask == nil {
		c.sess.cacheClearTask = newTask(c.opts.CacheClearInterval, c.win.ClearCache)
	}
}

// OnWillNavigate reports whether an in-place navigation may proceed.
// Denials are logged and recorded, never surfaced to the user.
func (c *Coordinator) OnWillNavigate(url string) bool {
	c.mu.Lock()
	home := c.homeOrigin
	c.mu.Unlock()
	if policy.InPlaceNavigationAllowed(url, home) {
		return true
	}
	c.log.Warn("navigation denied", "url", url)
	faultlog.Denial(c.SessionID(), "navigate", url)
	return false
}

// OnNewWindow handles a new-window/link-open request. An allowed URL is
// routed to the OS default handler; a denied one is logged and dropped.
// The answer is always "no new window".
func (c *Coordinator) OnNewWindow(url string) bool {
	if policy.ExternallyOpenable(url) {
		c.win.OpenExternal(url)
	} else {
		c.log.Warn("external open denied", "url", url)
		faultlog.Denial(c.SessionID(), "external", url)
	}
	return false
}

// ToggleAlwaysOnTop flips the window's pin state and notifies the page
// so the pin control can restyle. Satisfies the page controller's host
// interface.
func (c *Coordinator) ToggleAlwaysOnTop() {
	c.mu.Lock()
	if c.sess == nil {
		c.sess = newSession()
	}
	c.sess.AlwaysOnTop = !c.sess.AlwaysOnTop
	onTop := c.sess.AlwaysOnTop
	c.mu.Unlock()

	c.win.SetAlwaysOnTop(onTop)
	c.page.NotifyPinned(onTop)
}

// Shutdown runs the bounded page teardown and cancels everything. Used
// by the host coordinator on quit and on fatal cleanup; honors ctx.
func (c *Coordinator) Shutdown(ctx context.Context) {
	if err := c.page.Teardown(ctx); err != nil {
		c.log.Warn("teardown on shutdown failed", "err", err)
	}
	c.reset()
}

// reset cancels both tasks and drops the session.
func (c *Coordinator) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil {
		c.sess.cancelTasks()
		c.sess = nil
	}
	c.state = StateIdle
	c.everReady = false
}
