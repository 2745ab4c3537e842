package page

import (
	"fmt"
	"log/slog"
)

// Element ids created in the page. Prefixed to stay clear of the hosted
// app's own nodes.
const (
	pinButtonID     = "webperch-pin"
	refreshButtonID = "webperch-refresh"
	indicatorID     = "webperch-indicator"
	styleID         = "webperch-style"
)

// Registry names for everything install creates.
const (
	keyPinButton    = "pin-button"
	keyRefreshBtn   = "refresh-button"
	keyIndicator    = "indicator-element"
	keyStyle        = "style-element"
	keyScrollLsn    = "scroll-listener"
	keyWheelLsn     = "wheel-listener"
	keyMouseLsn     = "mousemove-listener"
	keyClickLsn     = "click-listener"
	keyIdleInterval = "idle-interval"
	keyDimTimer     = "dim-timer"
)

// styleRules gives the floating controls their hover and press states.
// Injected as a style element so the transient visual states need no
// event plumbing of their own.
const styleRules = `
#webperch-pin:hover, #webperch-refresh:hover { opacity: 1 !important; transform: scale(1.08); }
#webperch-pin:active, #webperch-refresh:active { transform: scale(0.92); }
`

// Controller is the page enhancement state machine. Two states: Absent
// (no registry) and Installed (registry populated). Not safe for
// concurrent use; every method runs on the owning queue.
type Controller struct {
	dom    DOM
	host   Host
	timers Timers
	log    *slog.Logger
	opts   Options

	reg *Registry // nil when Absent
	g   *gesture

	pinBtn     Node
	refreshBtn Node
	indicator  Node
	pinned     bool
	dimmed     bool
}

// NewController wires a controller against the given boundaries. The
// returned controller is Absent until Install.
func NewController(dom DOM, host Host, timers Timers, log *slog.Logger, opts Options) *Controller {
	return &Controller{
		dom:    dom,
		host:   host,
		timers: timers,
		log:    log,
		opts:   opts.withDefaults(),
	}
}

// Installed reports whether a registry is live.
func (c *Controller) Installed() bool { return c.reg != nil }

// RegistryLen returns the number of live registry entries.
func (c *Controller) RegistryLen() int { return c.reg.Len() }

// Install creates the floating controls, the event listeners, and the
// idle decay interval, registering each under its logical name. Calling
// Install while already Installed runs an implicit Teardown first, so a
// repeated install can never duplicate listeners or leak the prior
// registry. On any failure the page is left Absent with everything
// created so far released.
func (c *Controller) Install() error {
	if c.reg != nil {
		c.Teardown()
	}
	c.reg = NewRegistry()
	if err := c.install(); err != nil {
		c.Teardown()
		return err
	}
	return nil
}

func (c *Controller) install() error {
	c.g = newGesture(c.opts, c.timers, func() *Registry { return c.reg },
		c.setIndicatorVisible, c.reloadPage)

	var err error
	if c.indicator, err = c.createNode(keyIndicator, indicatorID); err != nil {
		return err
	}
	c.indicator.SetText("Refreshing…")
	c.styleIndicator(false)

	if c.refreshBtn, err = c.createNode(keyRefreshBtn, refreshButtonID); err != nil {
		return err
	}
	c.refreshBtn.SetText("⟳")
	c.styleButton(c.refreshBtn, "96px")

	if c.pinBtn, err = c.createNode(keyPinButton, pinButtonID); err != nil {
		return err
	}
	c.styleButton(c.pinBtn, "48px")
	c.stylePin()

	style, err := c.createNode(keyStyle, styleID)
	if err != nil {
		return err
	}
	style.SetText(styleRules)

	listeners := []struct {
		key, event string
		fn         func(Event)
	}{
		{keyWheelLsn, "wheel", func(ev Event) { c.g.wheel(ev.DeltaY) }},
		{keyScrollLsn, "scroll", c.onScroll},
		{keyMouseLsn, "mousemove", c.onMouseMove},
		{keyClickLsn, "click", c.onClick},
	}
	for _, l := range listeners {
		h, err := c.dom.Listen(l.event, c.guard(l.fn))
		if err != nil {
			return fmt.Errorf("listen %s: %w", l.event, err)
		}
		c.reg.Put(l.key, h)
	}

	c.reg.Put(keyIdleInterval, c.timers.Every(c.opts.DecayInterval, c.g.decayTick))
	c.armDimTimer()
	return nil
}

// Teardown cancels every timer, removes every listener by the exact
// handle that was registered, removes every created element, and clears
// the registry. Idempotent: calling it when Absent is a no-op.
func (c *Controller) Teardown() {
	if c.reg == nil {
		return
	}
	c.reg.ReleaseAll()
	c.reg = nil
	c.g = nil
	c.pinBtn, c.refreshBtn, c.indicator = nil, nil, nil
	c.dimmed = false
}

// Probe asks the page for its heap pressure ratio.
func (c *Controller) Probe() (float64, error) {
	return c.dom.HeapPressure()
}

// SetPinned refreshes the pin control after the host reports the
// always-on-top state. Ignored while Absent.
func (c *Controller) SetPinned(pinned bool) {
	c.pinned = pinned
	if c.reg == nil {
		return
	}
	c.stylePin()
}

// guard drops events that were already queued when teardown ran. The
// underlying subscription is released on teardown, but in-flight events
// can still arrive one tick later.
func (c *Controller) guard(fn func(Event)) func(Event) {
	return func(ev Event) {
		if c.reg == nil {
			return
		}
		fn(ev)
	}
}

func (c *Controller) createNode(key, id string) (Node, error) {
	n, err := c.dom.CreateElement(id)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", id, err)
	}
	c.reg.Put(key, HandleFunc(n.Remove))
	return n, nil
}

func (c *Controller) onScroll(ev Event) {
	c.g.scroll(ev.Top)
	c.wakeButtons()
}

// onMouseMove wakes the floating controls when the cursor nears the right
// edge, where they live.
func (c *Controller) onMouseMove(ev Event) {
	if ev.Width-ev.X <= c.opts.EdgeProximity {
		c.wakeButtons()
	}
}

func (c *Controller) onClick(ev Event) {
	switch ev.Target {
	case refreshButtonID:
		c.reloadPage()
	case pinButtonID:
		c.host.ToggleAlwaysOnTop()
	}
}

func (c *Controller) reloadPage() {
	if err := c.dom.Reload(); err != nil {
		c.log.Warn("page reload failed", "err", err)
	}
}

// wakeButtons undims the controls and re-arms the auto-dim timer. Putting
// the timer under its fixed name cancels the previous one.
func (c *Controller) wakeButtons() {
	if c.reg == nil {
		return
	}
	if c.dimmed {
		c.dimmed = false
		c.refreshBtn.SetStyle("opacity", "0.9")
		c.pinBtn.SetStyle("opacity", "0.9")
	}
	c.armDimTimer()
}

func (c *Controller) armDimTimer() {
	c.reg.Put(keyDimTimer, c.timers.After(c.opts.DimDelay, c.dimButtons))
}

func (c *Controller) dimButtons() {
	if c.reg == nil {
		return
	}
	c.dimmed = true
	c.refreshBtn.SetStyle("opacity", "0.35")
	c.pinBtn.SetStyle("opacity", "0.35")
}

func (c *Controller) setIndicatorVisible(visible bool) {
	if c.indicator == nil {
		return
	}
	c.styleIndicator(visible)
}

func (c *Controller) styleIndicator(visible bool) {
	display := "none"
	if visible {
		display = "block"
	}
	for k, v := range map[string]string{
		"display":       display,
		"position":      "fixed",
		"top":           "12px",
		"left":          "50%",
		"transform":     "translateX(-50%)",
		"padding":       "6px 14px",
		"border-radius": "14px",
		"background":    "rgba(26,27,38,0.92)",
		"color":         "#c0caf5",
		"font":          "13px sans-serif",
		"z-index":       "2147483647",
	} {
		c.indicator.SetStyle(k, v)
	}
}

func (c *Controller) styleButton(n Node, bottom string) {
	for k, v := range map[string]string{
		"position":      "fixed",
		"right":         "16px",
		"bottom":        bottom,
		"width":         "36px",
		"height":        "36px",
		"border-radius": "18px",
		"background":    "rgba(26,27,38,0.92)",
		"color":         "#c0caf5",
		"text-align":    "center",
		"line-height":   "36px",
		"cursor":        "pointer",
		"user-select":   "none",
		"opacity":       "0.9",
		"z-index":       "2147483647",
	} {
		n.SetStyle(k, v)
	}
}

func (c *Controller) stylePin() {
	if c.pinned {
		c.pinBtn.SetText("📌")
		c.pinBtn.SetStyle("background", "#7aa2f7")
		c.pinBtn.SetStyle("color", "#1a1b26")
	} else {
		c.pinBtn.SetText("📍")
		c.pinBtn.SetStyle("background", "rgba(26,27,38,0.92)")
		c.pinBtn.SetStyle("color", "#c0caf5")
	}
}
