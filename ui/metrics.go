package ui

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// latencyRing keeps the most recent durations for a percentile readout.
type latencyRing struct {
	mu     sync.Mutex
	window []time.Duration
	next   int
	full   bool
}

func newLatencyRing(size int) *latencyRing {
	return &latencyRing{window: make([]time.Duration, max(size, 1))}
}

func (r *latencyRing) observe(d time.Duration) {
	r.mu.Lock()
	r.window[r.next] = d
	r.next++
	if r.next == len(r.window) {
		r.next, r.full = 0, true
	}
	r.mu.Unlock()
}

func (r *latencyRing) sorted() []time.Duration {
	r.mu.Lock()
	n := r.next
	if r.full {
		n = len(r.window)
	}
	out := slices.Clone(r.window[:n])
	r.mu.Unlock()
	slices.Sort(out)
	return out
}

// String reports nearest-rank p50/p99 and the max, e.g. "p50=2ms p99=9ms max=12ms n=400".
func (r *latencyRing) String() string {
	v := r.sorted()
	if len(v) == 0 {
		return "n=0"
	}
	rank := func(p float64) time.Duration { return v[int(p*float64(len(v)-1))] }
	return fmt.Sprintf("p50=%s p99=%s max=%s n=%d", rank(0.50), rank(0.99), v[len(v)-1], len(v))
}
