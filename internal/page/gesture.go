package page

import "math"

// Registry name for the pending reload one-shot.
const reloadTimerKey = "reload-timer"

// gesture accumulates upward wheel movement while the page rests at the
// top and fires a reload once the accumulated magnitude crosses the
// threshold. Owned by the controller; runs entirely on its queue.
type gesture struct {
	opts   Options
	timers Timers
	reg    func() *Registry // current registry; nil after teardown

	showIndicator func(bool)
	reload        func()

	atTop   bool
	accum   float64 // accumulated upward magnitude
	pending bool    // reload timer armed
	input   bool    // wheel input seen since the last decay tick
}

func newGesture(opts Options, timers Timers, reg func() *Registry, show func(bool), reload func()) *gesture {
	return &gesture{
		opts:          opts,
		timers:        timers,
		reg:           reg,
		showIndicator: show,
		reload:        reload,
		atTop:         true, // a freshly loaded page starts at offset 0
	}
}

// wheel handles one wheel event. Upward deltas (negative) accumulate while
// at the top; any downward delta retracts the gesture. Non-finite or
// implausibly large deltas are dropped outright.
func (g *gesture) wheel(deltaY float64) {
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) || math.Abs(deltaY) > g.opts.MaxWheelDelta {
		return
	}
	if deltaY >= 0 {
		g.retract()
		return
	}
	if !g.atTop {
		return
	}
	g.input = true
	g.accum += -deltaY
	if g.accum >= g.opts.WheelThreshold && !g.pending {
		g.pending = true
		g.showIndicator(true)
		g.reg().Put(reloadTimerKey, g.timers.After(g.opts.ReloadDelay, g.fire))
	}
}

// scroll updates the at-top tracking. Leaving the top region retracts any
// gesture in progress.
func (g *gesture) scroll(top float64) {
	g.atTop = top <= g.opts.TopTolerance
	if !g.atTop {
		g.retract()
	}
}

// decayTick shrinks the accumulator geometrically while no new input is
// arriving, snapping to zero below the epsilon so an abandoned gesture
// retracts instead of lingering.
func (g *gesture) decayTick() {
	if g.input {
		g.input = false
		return
	}
	if g.pending || g.accum == 0 {
		return
	}
	g.accum *= g.opts.DecayFactor
	if g.accum < g.opts.DecayEpsilon {
		g.accum = 0
	}
}

// retract resets the accumulator, hides the indicator, and cancels a
// pending reload if one is armed.
func (g *gesture) retract() {
	g.accum = 0
	if g.pending {
		g.pending = false
		g.reg().Release(reloadTimerKey)
	}
	g.showIndicator(false)
}

func (g *gesture) fire() {
	g.pending = false
	g.reg().Release(reloadTimerKey)
	g.showIndicator(false)
	g.accum = 0
	g.reload()
}
