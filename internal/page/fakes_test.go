package page

import (
	"fmt"
	"log/slog"
	"time"
)

// errListen is the canned failure for Listen calls in tests.
var errListen = fmt.Errorf("listen refused")

// fakeNode records the styling and removal calls the controller makes.
type fakeNode struct {
	id      string
	text    string
	styles  map[string]string
	removed bool
}

func (n *fakeNode) SetText(s string)            { n.text = s }
func (n *fakeNode) SetStyle(prop, value string) { n.styles[prop] = value }
func (n *fakeNode) Remove()                     { n.removed = true }

// fakeListener is one live subscription on the fake DOM.
type fakeListener struct {
	event    string
	fn       func(Event)
	released bool
}

// fakeDOM implements DOM synchronously for controller tests.
type fakeDOM struct {
	nodes     map[string]*fakeNode
	listeners []*fakeListener
	reloads   int
	heap      float64
	heapErr   error
	failIDs   map[string]bool // CreateElement failures by element id
	listenErr map[string]error
}

func newFakeDOM() *fakeDOM {
	return &fakeDOM{
		nodes:     make(map[string]*fakeNode),
		failIDs:   make(map[string]bool),
		listenErr: make(map[string]error),
	}
}

func (d *fakeDOM) CreateElement(id string) (Node, error) {
	if d.failIDs[id] {
		return nil, fmt.Errorf("create %s refused", id)
	}
	n := &fakeNode{id: id, styles: make(map[string]string)}
	d.nodes[id] = n
	return n, nil
}

func (d *fakeDOM) Listen(event string, fn func(Event)) (Handle, error) {
	if err := d.listenErr[event]; err != nil {
		return nil, err
	}
	l := &fakeListener{event: event, fn: fn}
	d.listeners = append(d.listeners, l)
	return HandleFunc(func() { l.released = true }), nil
}

func (d *fakeDOM) Reload() error { d.reloads++; return nil }

func (d *fakeDOM) HeapPressure() (float64, error) { return d.heap, d.heapErr }

// live returns the number of unredeemed listeners.
func (d *fakeDOM) live() int {
	n := 0
	for _, l := range d.listeners {
		if !l.released {
			n++
		}
	}
	return n
}

// fire delivers an event to every live listener for its kind.
func (d *fakeDOM) fire(ev Event) {
	for _, l := range d.listeners {
		if !l.released && l.event == ev.Kind {
			l.fn(ev)
		}
	}
}

// fakeTimer is a manually fired timer.
type fakeTimer struct {
	fn       func()
	released bool
}

func (t *fakeTimer) fire() {
	if !t.released {
		t.fn()
	}
}

// fakeTimers hands out manually controlled timers.
type fakeTimers struct {
	afters []*fakeTimer
	everys []*fakeTimer
}

func (t *fakeTimers) After(_ time.Duration, fn func()) Handle {
	ft := &fakeTimer{fn: fn}
	t.afters = append(t.afters, ft)
	return HandleFunc(func() { ft.released = true })
}

func (t *fakeTimers) Every(_ time.Duration, fn func()) Handle {
	ft := &fakeTimer{fn: fn}
	t.everys = append(t.everys, ft)
	return HandleFunc(func() { ft.released = true })
}

// lastAfter returns the most recently armed single-shot, or nil.
func (t *fakeTimers) lastAfter() *fakeTimer {
	for i := len(t.afters) - 1; i >= 0; i-- {
		if !t.afters[i].released {
			return t.afters[i]
		}
	}
	return nil
}

// fakeHost counts always-on-top toggle requests.
type fakeHost struct{ toggles int }

func (h *fakeHost) ToggleAlwaysOnTop() { h.toggles++ }

func newTestController(dom *fakeDOM, host *fakeHost, timers *fakeTimers) *Controller {
	return NewController(dom, host, timers, slog.New(slog.DiscardHandler), Options{
		WheelThreshold: 150,
		TopTolerance:   8,
		MaxWheelDelta:  1000,
	})
}
