// Package worker runs the background aggregation loop: poll the log, render
// changed snapshots, publish artifacts and ticker updates, then wait for the
// next cycle.
package worker

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime/debug"
	"time"

	"qsoview/pipeline"
	"qsoview/render"
	"qsoview/stats"
)

// Ticker texts owned by the worker.
const (
	TextStarting  = "Chart engine starting..."
	TextFailed    = "Chart engine failed."
	TextReadError = "Log database read error"
)

// Poller is the aggregation side of the worker.
type Poller interface {
	Poll(ctx context.Context, wm stats.Watermark) (stats.Watermark, *stats.Snapshot, stats.Freshness)
}

// CycleReport describes one finished cycle.
type CycleReport struct {
	Watermark stats.Watermark
	Snapshot  *stats.Snapshot
	Freshness stats.Freshness
	Artifacts []*render.Artifact
	Errors    []render.RenderError
	Elapsed   time.Duration
}

// Options configures a Worker.
type Options struct {
	// Dwell is the target cycle period.
	Dwell     time.Duration
	ImageSize image.Point
	Tracker   *stats.Tracker
	Logf      func(string, ...any)
	// AfterCycle runs on the worker goroutine after every cycle.
	AfterCycle func(CycleReport)
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Worker is the single background producer. Run it on its own goroutine.
type Worker struct {
	poller   Poller
	renderer render.Renderer
	pub      pipeline.Publisher
	opts     Options

	wm        stats.Watermark
	dataError bool
}

// New builds a worker.
func New(poller Poller, renderer render.Renderer, pub pipeline.Publisher, opts Options) *Worker {
	if opts.Dwell <= 0 {
		opts.Dwell = time.Minute
	}
	if opts.ImageSize.X <= 0 || opts.ImageSize.Y <= 0 {
		opts.ImageSize = image.Pt(1280, 720)
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Worker{poller: poller, renderer: renderer, pub: pub, opts: opts}
}

// Watermark returns the last aggregated watermark. Only safe to call from
// the worker goroutine or after Run returns.
func (w *Worker) Watermark() stats.Watermark { return w.wm }

// Run loops until ctx is cancelled. A cycle in progress always completes;
// cancellation interrupts only the wait between cycles. A panic inside a
// cycle is recovered, reported on the ticker, and ends the loop with an
// error.
//
// Purpose: the one background actor feeding the display.
// Key aspects: wait is clamp(dwell-elapsed, 0, dwell) and cancellable.
// Upstream: main (dashboard and headless modes).
// Downstream: Poller.Poll, render.RenderAll, Publisher.Publish, AfterCycle.
func (w *Worker) Run(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			w.opts.Logf("worker: panic: %v\n%s", p, debug.Stack())
			w.pub.Publish(pipeline.CrawlMessage{Slot: pipeline.SlotEngine, Text: TextFailed, FG: pipeline.Yellow, BG: pipeline.Red})
			err = fmt.Errorf("worker: panic: %v", p)
		}
	}()

	w.pub.Publish(pipeline.CrawlMessage{Slot: pipeline.SlotEngine, Text: TextStarting, FG: pipeline.White, BG: pipeline.Black})
	first := true
	for {
		start := w.opts.Now()
		w.cycle(ctx)
		if first {
			w.pub.Publish(pipeline.ClearCrawl(pipeline.SlotEngine))
			first = false
		}
		wait := nextWait(w.opts.Dwell, w.opts.Now().Sub(start))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// nextWait returns how long to sleep after a cycle that took elapsed.
func nextWait(dwell, elapsed time.Duration) time.Duration {
	wait := dwell - elapsed
	if wait < 0 {
		return 0
	}
	if wait > dwell {
		return dwell
	}
	return wait
}

// cycle runs one poll and, when the log changed, one render pass.
func (w *Worker) cycle(ctx context.Context) {
	start := w.opts.Now()
	next, snap, fresh := w.poller.Poll(ctx, w.wm)
	report := CycleReport{Watermark: next, Snapshot: snap, Freshness: fresh}

	if fresh.Err != nil {
		w.opts.Logf("worker: log read failed: %v", fresh.Err)
		w.pub.Publish(pipeline.CrawlMessage{Slot: pipeline.SlotData, Text: TextReadError, FG: pipeline.Yellow, BG: pipeline.Red})
		w.dataError = true
		w.finish(report, start)
		return
	}
	if w.dataError {
		w.pub.Publish(pipeline.ClearCrawl(pipeline.SlotData))
		w.dataError = false
	}
	w.wm = next
	if fresh.Changed {
		w.pub.Publish(pipeline.CrawlMessage{Slot: pipeline.SlotLastQSO, Text: fresh.Text, FG: pipeline.Cyan, BG: pipeline.Black})
	}
	if snap != nil {
		res := render.RenderAll(w.renderer, snap, w.opts.ImageSize, func(a *render.Artifact) {
			report.Artifacts = append(report.Artifacts, a)
			w.pub.Publish(pipeline.ImageMessage{Artifact: a})
		}, w.opts.Logf)
		report.Errors = res.Errors
		for i := 0; i < res.Rendered; i++ {
			w.opts.Tracker.Increment(stats.EventRenderOK)
		}
		for i := 0; i < res.Empty; i++ {
			w.opts.Tracker.Increment(stats.EventRenderEmpty)
		}
		for range res.Errors {
			w.opts.Tracker.Increment(stats.EventRenderFailed)
		}
	}
	w.finish(report, start)
}

func (w *Worker) finish(report CycleReport, start time.Time) {
	report.Elapsed = w.opts.Now().Sub(start)
	w.opts.Tracker.ObserveCycle(report.Elapsed)
	if report.Snapshot != nil || report.Freshness.Err != nil {
		if w.opts.Tracker != nil {
			w.opts.Logf("%s", w.opts.Tracker.SummaryLine())
		}
	}
	if w.opts.AfterCycle != nil {
		w.opts.AfterCycle(report)
	}
}
