package display

import (
	"time"

	"qsoview/pipeline"
	"qsoview/render"
)

// Action is a user command from the presentation surface.
type Action int

const (
	ActionNone Action = iota
	ActionNext
	ActionPrev
	ActionTogglePause
	ActionQuit
)

// Drainer is the receive side of the pipeline.
type Drainer interface {
	Drain() []pipeline.Message
}

// Loop applies pipeline messages and timer ticks to the rotator and crawl.
// All methods must be called from the display goroutine.
type Loop struct {
	src     Drainer
	rotator *Rotator
	crawl   *Crawl
	event   Event

	lastSecond int64
	pending    []Action
}

// NewLoop wires a display loop.
func NewLoop(src Drainer, rotator *Rotator, crawl *Crawl, event Event) *Loop {
	return &Loop{src: src, rotator: rotator, crawl: crawl, event: event, lastSecond: -1}
}

// Rotator returns the slot state machine.
func (l *Loop) Rotator() *Rotator { return l.rotator }

// Crawl returns the ticker.
func (l *Loop) Crawl() *Crawl { return l.crawl }

// Queue records an input action to apply on the next Tick.
func (l *Loop) Queue(a Action) {
	if a != ActionNone {
		l.pending = append(l.pending, a)
	}
}

// HandleInput applies a immediately and reports whether it asked to quit.
func (l *Loop) HandleInput(a Action) bool {
	switch a {
	case ActionNext:
		l.rotator.Next()
	case ActionPrev:
		l.rotator.Prev()
	case ActionTogglePause:
		l.rotator.TogglePause()
	case ActionQuit:
		return true
	}
	return false
}

// SetArtifact stores an artifact produced outside the pipeline (the logo).
func (l *Loop) SetArtifact(a *render.Artifact) {
	l.rotator.Set(a)
}

// Tick runs one display frame: queued input, pipeline drain, local ticker
// entries once per second, rotation, then one crawl step. It reports
// whether a queued quit was seen.
func (l *Loop) Tick(now time.Time) (quit bool) {
	for _, a := range l.pending {
		if l.HandleInput(a) {
			quit = true
		}
	}
	l.pending = l.pending[:0]

	for _, m := range l.src.Drain() {
		switch msg := m.(type) {
		case pipeline.ImageMessage:
			l.rotator.Set(msg.Artifact)
		case pipeline.CrawlMessage:
			l.crawl.Set(msg.Slot, Entry{Text: msg.Text, FG: msg.FG, BG: msg.BG})
		}
	}

	if sec := now.Unix(); sec != l.lastSecond {
		l.lastSecond = sec
		localEntries(l.crawl, l.event, now)
	}

	l.rotator.Tick()
	l.crawl.Advance()
	return quit
}
