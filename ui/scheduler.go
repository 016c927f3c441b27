package ui

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// tickScheduler drives the display loop at a fixed frame rate. Each tick is
// marshalled onto the UI goroutine through queue; a tick is skipped when the
// previous one has not run yet, so a slow draw never builds a backlog.
type tickScheduler struct {
	queue        func(func())
	tick         func(time.Time)
	frameTime time.Duration
	delays    *latencyRing

	inflight atomic.Bool
	fired    atomic.Uint64
	skipped  atomic.Uint64

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newTickScheduler(queue func(func()), targetFPS int, tick func(time.Time)) *tickScheduler {
	if targetFPS <= 0 {
		targetFPS = 20
	}
	if queue == nil {
		queue = func(fn func()) { fn() }
	}
	return &tickScheduler{
		queue:     queue,
		tick:      tick,
		frameTime: time.Second / time.Duration(targetFPS),
		delays:    newLatencyRing(512),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (s *tickScheduler) Start() {
	go s.run()
}

// Stop halts the ticker and waits briefly for the run loop to exit. Safe to
// call more than once.
func (s *tickScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
	select {
	case <-s.done:
	case <-time.After(200 * time.Millisecond):
	}
}

func (s *tickScheduler) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.frameTime)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			s.fire(now)
		case <-s.quit:
			return
		}
	}
}

// fire queues one tick unless the previous tick is still pending. It reports
// whether the tick was queued.
func (s *tickScheduler) fire(now time.Time) bool {
	if !s.inflight.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		return false
	}
	s.fired.Add(1)
	queuedAt := time.Now()
	s.queue(func() {
		defer s.inflight.Store(false)
		s.delays.observe(time.Since(queuedAt))
		if s.tick != nil {
			s.tick(now)
		}
	})
	return true
}

func (s *tickScheduler) Fired() uint64   { return s.fired.Load() }
func (s *tickScheduler) Skipped() uint64 { return s.skipped.Load() }

// summary reports tick counts and how long queued ticks waited for the UI
// goroutine.
func (s *tickScheduler) summary() string {
	return fmt.Sprintf("ticks=%d skipped=%d delay %s", s.Fired(), s.Skipped(), s.delays)
}
