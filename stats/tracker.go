// Package stats turns the QSO log into immutable statistics snapshots and
// keeps the counters reported in the worker's per-cycle summary line.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker event names.
const (
	EventPoll         = "poll"
	EventRecompute    = "recompute"
	EventNoop         = "noop"
	EventReadError    = "read_error"
	EventRenderOK     = "render_ok"
	EventRenderEmpty  = "render_empty"
	EventRenderFailed = "render_failed"
)

// Tracker counts worker events. Safe for concurrent use; the display side
// reads it while the worker increments.
type Tracker struct {
	counts    sync.Map // string -> *atomic.Uint64
	start     atomic.Int64
	lastCycle atomic.Int64 // nanoseconds
}

// NewTracker creates a new tracker
func NewTracker() *Tracker {
	t := &Tracker{}
	t.start.Store(time.Now().UnixNano())
	return t
}

// Increment adds one to event.
func (t *Tracker) Increment(event string) {
	if t == nil {
		return
	}
	incrementCounter(&t.counts, event)
}

// Count returns the cumulative count for event.
func (t *Tracker) Count(event string) uint64 {
	if t == nil {
		return 0
	}
	if v, ok := t.counts.Load(event); ok {
		return v.(*atomic.Uint64).Load()
	}
	return 0
}

// Counts returns a copy of all counters.
func (t *Tracker) Counts() map[string]uint64 {
	counts := make(map[string]uint64)
	t.counts.Range(func(key, value any) bool {
		counts[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})
	return counts
}

// ObserveCycle records the duration of the latest worker cycle.
func (t *Tracker) ObserveCycle(d time.Duration) {
	if t == nil {
		return
	}
	t.lastCycle.Store(int64(d))
}

// LastCycle returns the duration of the latest worker cycle.
func (t *Tracker) LastCycle() time.Duration {
	return time.Duration(t.lastCycle.Load())
}

// Uptime returns how long the tracker has been running
func (t *Tracker) Uptime() time.Duration {
	return time.Since(time.Unix(0, t.start.Load()))
}

// SummaryLine renders every counter plus the last cycle time on one line.
func (t *Tracker) SummaryLine() string {
	counts := t.Counts()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Worker: ")
	if len(keys) == 0 {
		b.WriteString("(none)")
	}
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%d", k, counts[k])
	}
	fmt.Fprintf(&b, " | cycle=%s", t.LastCycle().Round(time.Millisecond))
	return b.String()
}

func incrementCounter(m *sync.Map, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if value, ok := m.Load(key); ok {
		value.(*atomic.Uint64).Add(1)
		return
	}
	counter := &atomic.Uint64{}
	actual, loaded := m.LoadOrStore(key, counter)
	if loaded {
		actual.(*atomic.Uint64).Add(1)
		return
	}
	counter.Add(1)
}
