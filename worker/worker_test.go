package worker

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"qsoview/pipeline"
	"qsoview/render"
	"qsoview/stats"
)

type step struct {
	wm    stats.Watermark
	snap  *stats.Snapshot
	fresh stats.Freshness
	panic bool
}

type scriptedPoller struct {
	steps []step
	seen  []stats.Watermark
}

func (p *scriptedPoller) Poll(_ context.Context, wm stats.Watermark) (stats.Watermark, *stats.Snapshot, stats.Freshness) {
	p.seen = append(p.seen, wm)
	if len(p.steps) == 0 {
		return wm, nil, stats.Freshness{}
	}
	s := p.steps[0]
	p.steps = p.steps[1:]
	if s.panic {
		panic("corrupt row")
	}
	return s.wm, s.snap, s.fresh
}

type solidRenderer struct{}

func (solidRenderer) Render(kind render.Kind, _ *stats.Snapshot, size image.Point) (*render.Artifact, error) {
	if kind != render.KindSummaryTable && kind != render.KindSectionsMap {
		return nil, nil
	}
	return &render.Artifact{Slot: kind.Slot(), Kind: kind, Image: image.NewRGBA(image.Rectangle{Max: size})}, nil
}

func crawlTexts(msgs []pipeline.Message, slot int) []string {
	var out []string
	for _, m := range msgs {
		if c, ok := m.(pipeline.CrawlMessage); ok && c.Slot == slot {
			out = append(out, c.Text)
		}
	}
	return out
}

func runCycles(t *testing.T, p Poller, cycles int) (*pipeline.Queue, []CycleReport, error) {
	t.Helper()
	q := pipeline.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var reports []CycleReport
	w := New(p, solidRenderer{}, q, Options{
		Dwell:     time.Millisecond,
		ImageSize: image.Pt(16, 9),
		Tracker:   stats.NewTracker(),
		Logf:      func(string, ...any) {},
		AfterCycle: func(r CycleReport) {
			reports = append(reports, r)
			if len(reports) == cycles {
				cancel()
			}
		},
	})
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	select {
	case err := <-done:
		return q, reports, err
	case <-time.After(5 * time.Second):
		t.Fatalf("worker did not stop")
	}
	return nil, nil, nil
}

func TestRunPublishesArtifactsAndFreshness(t *testing.T) {
	snap := stats.EmptySnapshot(stats.DefaultParams())
	p := &scriptedPoller{steps: []step{
		{wm: stats.Watermark{Timestamp: 10, Observed: true}, snap: snap, fresh: stats.Freshness{Text: "Last QSO: W1AW", Changed: true}},
		{wm: stats.Watermark{Timestamp: 10, Observed: true}},
	}}
	q, reports, err := runCycles(t, p, 2)
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	msgs := q.Drain()

	engine := crawlTexts(msgs, pipeline.SlotEngine)
	if len(engine) != 2 || engine[0] != TextStarting || engine[1] != "" {
		t.Fatalf("expected starting then cleared engine status, got %q", engine)
	}
	if got := crawlTexts(msgs, pipeline.SlotLastQSO); len(got) != 1 || got[0] != "Last QSO: W1AW" {
		t.Fatalf("unexpected freshness messages %q", got)
	}
	var slots []int
	for _, m := range msgs {
		if im, ok := m.(pipeline.ImageMessage); ok {
			slots = append(slots, im.Artifact.Slot)
		}
	}
	if len(slots) != 2 || slots[0] != render.KindSummaryTable.Slot() || slots[1] != render.KindSectionsMap.Slot() {
		t.Fatalf("unexpected image slots %v", slots)
	}
	if len(reports[0].Artifacts) != 2 || reports[1].Snapshot != nil {
		t.Fatalf("unexpected cycle reports %+v", reports)
	}
	if p.seen[1] != (stats.Watermark{Timestamp: 10, Observed: true}) {
		t.Fatalf("expected second poll from advanced watermark, got %+v", p.seen[1])
	}
}

func TestRunReadErrorKeepsWatermarkAndClears(t *testing.T) {
	p := &scriptedPoller{steps: []step{
		{wm: stats.Watermark{}, fresh: stats.Freshness{Err: errors.New("database is locked")}},
		{wm: stats.Watermark{Timestamp: 5, Observed: true}, fresh: stats.Freshness{Text: "Last QSO: K1ABC", Changed: true}},
	}}
	q, _, err := runCycles(t, p, 2)
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	data := crawlTexts(q.Drain(), pipeline.SlotData)
	if len(data) != 2 || data[0] != TextReadError || data[1] != "" {
		t.Fatalf("expected read error then cleared data status, got %q", data)
	}
	if p.seen[1] != (stats.Watermark{}) {
		t.Fatalf("expected retry from unchanged watermark, got %+v", p.seen[1])
	}
}

func TestRunRecoversPanic(t *testing.T) {
	p := &scriptedPoller{steps: []step{{panic: true}}}
	q := pipeline.NewQueue()
	w := New(p, solidRenderer{}, q, Options{Dwell: time.Millisecond, Logf: func(string, ...any) {}})
	err := w.Run(context.Background())
	if err == nil {
		t.Fatalf("expected error after panic")
	}
	engine := crawlTexts(q.Drain(), pipeline.SlotEngine)
	if len(engine) != 2 || engine[1] != TextFailed {
		t.Fatalf("expected failure on the engine slot, got %q", engine)
	}
}

func TestNextWait(t *testing.T) {
	dwell := time.Minute
	cases := []struct {
		elapsed, want time.Duration
	}{
		{0, time.Minute},
		{20 * time.Second, 40 * time.Second},
		{time.Minute, 0},
		{3 * time.Minute, 0},
		{-time.Second, time.Minute},
	}
	for _, tc := range cases {
		if got := nextWait(dwell, tc.elapsed); got != tc.want {
			t.Fatalf("nextWait(%v) = %v, want %v", tc.elapsed, got, tc.want)
		}
	}
}

func TestRunStopsDuringWait(t *testing.T) {
	p := &scriptedPoller{}
	w := New(p, solidRenderer{}, pipeline.NewQueue(), Options{Dwell: time.Hour, Logf: func(string, ...any) {}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancel did not interrupt the dwell wait")
	}
}
