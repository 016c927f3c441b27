package ui

import (
	"context"
	"time"

	"qsoview/display"
)

// Surface is a presentation target driven by the display loop. Run blocks
// until ctx is cancelled or the user quits.
type Surface interface {
	Run(ctx context.Context) error
	Stop()
}

// Headless runs without a terminal. It keeps draining the display loop at a
// slow rate so the pipeline does not accumulate while exports carry the
// output.
type Headless struct {
	loop     *display.Loop
	interval time.Duration
	stop     chan struct{}
	stopped  chan struct{}
}

func NewHeadless(loop *display.Loop, interval time.Duration) *Headless {
	if interval <= 0 {
		interval = time.Second
	}
	return &Headless{loop: loop, interval: interval, stop: make(chan struct{}), stopped: make(chan struct{})}
}

func (h *Headless) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.stop:
			return nil
		case now := <-ticker.C:
			if h.loop != nil && h.loop.Tick(now) {
				return nil
			}
		}
	}
}

func (h *Headless) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
}
