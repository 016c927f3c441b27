// Package display holds the display-side state machines: slot rotation,
// the scrolling crawl ticker, and the loop that feeds both from the
// pipeline. It has no terminal dependency; the ui package draws it.
package display

import "qsoview/render"

// State is a snapshot of the rotation state.
type State struct {
	Current   int
	Paused    bool
	TicksLeft int
}

// Rotator cycles through image slots on a dwell timer, skipping empty
// slots. It is owned by the display goroutine.
type Rotator struct {
	slots      []*render.Artifact
	current    int
	logo       int
	paused     bool
	dwellTicks int
	remaining  int
}

// NewRotator builds a rotator over slotCount slots that starts on, and
// falls back to, logoSlot. dwellTicks is the number of Tick calls a slot
// stays on screen.
func NewRotator(slotCount, logoSlot, dwellTicks int) *Rotator {
	if slotCount <= 0 {
		slotCount = 1
	}
	if logoSlot < 0 || logoSlot >= slotCount {
		logoSlot = 0
	}
	if dwellTicks <= 0 {
		dwellTicks = 1
	}
	return &Rotator{
		slots:      make([]*render.Artifact, slotCount),
		current:    logoSlot,
		logo:       logoSlot,
		dwellTicks: dwellTicks,
		remaining:  dwellTicks,
	}
}

// Set stores a in its slot, replacing any previous artifact. Nil artifacts
// and out-of-range slots are ignored, so a failed render never clears a
// good image.
func (r *Rotator) Set(a *render.Artifact) bool {
	if a == nil || a.Image == nil || a.Slot < 0 || a.Slot >= len(r.slots) {
		return false
	}
	r.slots[a.Slot] = a
	return true
}

// Slot returns the artifact held in slot i, or nil.
func (r *Rotator) Slot(i int) *render.Artifact {
	if i < 0 || i >= len(r.slots) {
		return nil
	}
	return r.slots[i]
}

// Current returns the slot on screen and its artifact.
func (r *Rotator) Current() (int, *render.Artifact) {
	return r.current, r.slots[r.current]
}

// State returns the rotation state.
func (r *Rotator) State() State {
	return State{Current: r.current, Paused: r.paused, TicksLeft: r.remaining}
}

// Tick counts down the dwell and advances when it expires. While paused the
// counter holds. It reports whether the current slot changed.
func (r *Rotator) Tick() bool {
	if r.paused {
		return false
	}
	r.remaining--
	if r.remaining > 0 {
		return false
	}
	r.remaining = r.dwellTicks
	prev := r.current
	r.step(1)
	return r.current != prev
}

// Next moves to the next non-empty slot immediately and restarts the dwell.
func (r *Rotator) Next() {
	r.step(1)
	r.remaining = r.dwellTicks
}

// Prev moves to the previous non-empty slot immediately and restarts the
// dwell.
func (r *Rotator) Prev() {
	r.step(-1)
	r.remaining = r.dwellTicks
}

// TogglePause flips the paused flag and returns the new value. Resuming
// keeps the current slot and restarts its dwell.
func (r *Rotator) TogglePause() bool {
	r.paused = !r.paused
	if !r.paused {
		r.remaining = r.dwellTicks
	}
	return r.paused
}

// Paused reports whether automatic rotation is suspended.
func (r *Rotator) Paused() bool { return r.paused }

// step searches circularly in dir for the next non-empty slot. When every
// slot is empty it settles on the logo slot.
func (r *Rotator) step(dir int) {
	n := len(r.slots)
	for i := 1; i <= n; i++ {
		j := ((r.current+dir*i)%n + n) % n
		if r.slots[j] != nil {
			r.current = j
			return
		}
	}
	r.current = r.logo
}
