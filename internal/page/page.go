// Package page implements the enhancements webperch installs into the
// hosted page: the scroll-to-refresh gesture, the floating refresh and pin
// controls, and the heap-pressure probe hook. The controller keeps every
// created listener, element, and timer in a single registry so teardown is
// total, and it reaches the real document only through the DOM boundary,
// which keeps the whole state machine testable without a browser.
package page

import "time"

// Event is a DOM event forwarded across the page boundary.
type Event struct {
	Kind   string  // "wheel" | "scroll" | "mousemove" | "click"
	Target string  // click: element id
	DeltaY float64 // wheel: positive scrolls down, negative up
	Top    float64 // scroll: current vertical offset in px
	X      float64 // mousemove: cursor x in px
	Width  float64 // mousemove: window inner width in px
}

// Handle is a live page-side resource released exactly once by teardown.
type Handle interface {
	Release()
}

// HandleFunc adapts a function to Handle.
type HandleFunc func()

func (f HandleFunc) Release() { f() }

// Node is an element the controller created in the page.
type Node interface {
	SetText(s string)
	SetStyle(property, value string)
	Remove()
}

// DOM abstracts the hosted document. Any call may fail: the page can be
// mid-reload or gone entirely. Implementations invoke listener callbacks
// on the controller's own queue, never concurrently.
type DOM interface {
	CreateElement(id string) (Node, error)
	Listen(event string, fn func(Event)) (Handle, error)
	Reload() error
	HeapPressure() (float64, error) // used/limit ratio in [0, 1]
}

// Host is the narrow request channel back to the native side.
type Host interface {
	ToggleAlwaysOnTop()
}

// Timers creates cancellable timers whose callbacks run on the
// controller's queue.
type Timers interface {
	After(d time.Duration, fn func()) Handle // single-shot
	Every(d time.Duration, fn func()) Handle // periodic
}

// Options tunes the enhancement behaviors. Zero values take defaults.
type Options struct {
	WheelThreshold float64       // upward magnitude that triggers a refresh
	TopTolerance   float64       // px from the top still counting as "at rest"
	MaxWheelDelta  float64       // per-event plausibility cap
	DecayInterval  time.Duration // idle decay tick
	DecayFactor    float64       // geometric shrink per tick
	DecayEpsilon   float64       // snap to zero below this
	ReloadDelay    time.Duration // indicator dwell before the reload fires
	DimDelay       time.Duration // button auto-dim delay
	EdgeProximity  float64       // px from the right edge that wakes the buttons
}

func (o Options) withDefaults() Options {
	if o.WheelThreshold == 0 {
		o.WheelThreshold = 150
	}
	if o.TopTolerance == 0 {
		o.TopTolerance = 8
	}
	if o.MaxWheelDelta == 0 {
		o.MaxWheelDelta = 1000
	}
	if o.DecayInterval == 0 {
		o.DecayInterval = 250 * time.Millisecond
	}
	if o.DecayFactor == 0 {
		o.DecayFactor = 0.8
	}
	if o.DecayEpsilon == 0 {
		o.DecayEpsilon = 1
	}
	if o.ReloadDelay == 0 {
		o.ReloadDelay = 350 * time.Millisecond
	}
	if o.DimDelay == 0 {
		o.DimDelay = 2 * time.Second
	}
	if o.EdgeProximity == 0 {
		o.EdgeProximity = 120
	}
	return o
}
