package render

import (
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"qsoview/contest"
	"qsoview/qsolog"
	"qsoview/stats"
)

var testSize = image.Pt(320, 180)

func populatedSnapshot() *stats.Snapshot {
	agg := qsolog.Aggregates{
		First: 1_750_000_000, HasFirst: true, Total: 12,
		Operators: []qsolog.NameCount{{Name: "KD4X", Count: 7}, {Name: "N1MM", Count: 5}},
		Stations:  []qsolog.NameCount{{Name: "Pos1", Count: 12}},
		BandModes: []qsolog.BandModeCount{
			{BandID: 4, ModeID: 1, Count: 7},
			{BandID: 3, ModeID: 5, Count: 5},
		},
		Sections:      []qsolog.NameCount{{Name: "CT", Count: 250}, {Name: "EMA", Count: 1}},
		OperatorRates: []qsolog.NameCount{{Name: "KD4X", Count: 2}},
		Slices: []qsolog.SliceCount{
			{Index: 0, BandID: 4, Count: 4},
			{Index: 1, BandID: 4, Count: 3},
			{Index: 1, BandID: 3, Count: 5},
		},
	}
	return stats.BuildSnapshot(agg, 1_750_000_000+1200, stats.DefaultParams())
}

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		count int64
		want  int
	}{
		{-5, 0}, {0, 0}, {1, 1}, {2, 2}, {10, 2}, {11, 3}, {20, 3}, {21, 4},
		{50, 4}, {51, 5}, {100, 5}, {101, 6}, {200, 6}, {201, 7}, {1 << 40, 7},
	}
	for _, tc := range cases {
		if got := Bucket(tc.count); got != tc.want {
			t.Fatalf("Bucket(%d) = %d, want %d", tc.count, got, tc.want)
		}
	}
}

func TestKindSlotsAndTitles(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != SlotCount-1 {
		t.Fatalf("expected %d kinds, got %d", SlotCount-1, len(kinds))
	}
	for i, k := range kinds {
		if k.Slot() != i+1 {
			t.Fatalf("kind %s at position %d has slot %d", k, i, k.Slot())
		}
	}
	if KindSectionsMap.Title() != "Sections Worked" || KindRatesTable.Title() != "QSO/Hour Rates" {
		t.Fatalf("unexpected titles %q / %q", KindSectionsMap.Title(), KindRatesTable.Title())
	}
}

func TestSummaryCells(t *testing.T) {
	cells := summaryCells(populatedSnapshot().BandModes())
	if len(cells) != contest.BandCount()+2 {
		t.Fatalf("expected header + %d bands + total, got %d rows", contest.BandCount(), len(cells))
	}
	if strings.Join(cells[0], "|") != "|   CW|Phone| Data|Total" {
		t.Fatalf("unexpected header %q", cells[0])
	}
	row20 := cells[1+contest.BandIndex(4)]
	if strings.Join(row20, "|") != "   20|    7|    0|    0|    7" {
		t.Fatalf("unexpected 20m row %q", row20)
	}
	total := cells[len(cells)-1]
	if strings.Join(total, "|") != "Total|    7|    5|    0|   12" {
		t.Fatalf("unexpected total row %q", total)
	}
	if summaryCells(stats.EmptySnapshot(stats.DefaultParams()).BandModes()) != nil {
		t.Fatalf("expected no summary cells for empty matrix")
	}
}

func TestRatesAndTopOperatorCells(t *testing.T) {
	rates := ratesCells([]stats.OperatorRate{{Name: "KD4X", Rate: 12}, {Name: "N1MM", Rate: 6.5}}, 18.5)
	want := [][]string{{"Operator", "Rate"}, {"KD4X", "  12"}, {"N1MM", "   6"}, {"Total", "  18"}}
	for i := range want {
		if strings.Join(rates[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("rates row %d: want %q got %q", i, want[i], rates[i])
		}
	}
	if ratesCells(nil, 0) != nil {
		t.Fatalf("expected no rate table without operators")
	}

	ops := make([]stats.NameCount, 7)
	for i := range ops {
		ops[i] = stats.NameCount{Name: "OP", Count: int64(10 - i)}
	}
	top := topOperatorCells(ops)
	if len(top) != 6 || top[1][1] != "   10" {
		t.Fatalf("expected header + 5 rows with %%5d counts, got %q", top)
	}
}

func TestEmptySnapshotRendersOnlyMap(t *testing.T) {
	r := NewChartRenderer(nil, time.Time{}, time.Time{})
	var got []Kind
	res := RenderAll(r, stats.EmptySnapshot(stats.DefaultParams()), testSize, func(a *Artifact) {
		got = append(got, a.Kind)
	}, func(string, ...any) {})
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected render errors %v", res.Errors)
	}
	if len(got) != 1 || got[0] != KindSectionsMap {
		t.Fatalf("expected only the sections map, got %v", got)
	}
	if res.Empty != len(Kinds())-1 {
		t.Fatalf("expected %d empty kinds, got %d", len(Kinds())-1, res.Empty)
	}
}

func TestChartRendererPopulated(t *testing.T) {
	start := time.Unix(1_750_000_000, 0).Add(-time.Hour).UTC()
	r := NewChartRenderer(contest.DefaultSections(), start, start.Add(24*time.Hour))
	snap := populatedSnapshot()
	for _, kind := range Kinds() {
		art, err := r.Render(kind, snap, testSize)
		if err != nil {
			t.Fatalf("render %s: %v", kind, err)
		}
		if art == nil {
			t.Fatalf("expected artifact for %s", kind)
		}
		if art.Slot != kind.Slot() || art.Size() != testSize {
			t.Fatalf("%s: slot=%d size=%v", kind, art.Slot, art.Size())
		}
	}
}

type flakyRenderer struct {
	panicOn Kind
	failOn  Kind
	calls   []Kind
}

func (f *flakyRenderer) Render(kind Kind, _ *stats.Snapshot, size image.Point) (*Artifact, error) {
	f.calls = append(f.calls, kind)
	switch kind {
	case f.panicOn:
		panic("boom")
	case f.failOn:
		return nil, errors.New("font missing")
	}
	return newArtifact(kind, image.NewRGBA(image.Rectangle{Max: size})), nil
}

func TestRenderAllIsolatesFailures(t *testing.T) {
	f := &flakyRenderer{panicOn: KindOperatorsPie, failOn: KindRateChart}
	var emitted []int
	var logged []string
	res := RenderAll(f, populatedSnapshot(), testSize, func(a *Artifact) {
		emitted = append(emitted, a.Slot)
	}, func(format string, _ ...any) { logged = append(logged, format) })

	if len(f.calls) != len(Kinds()) {
		t.Fatalf("expected every kind attempted, got %v", f.calls)
	}
	if len(res.Errors) != 2 || len(logged) != 2 {
		t.Fatalf("expected 2 logged failures, got %v", res.Errors)
	}
	if res.Errors[0].Kind != KindOperatorsPie || !strings.Contains(res.Errors[0].Error(), "boom") {
		t.Fatalf("unexpected first error %v", res.Errors[0])
	}
	if res.Rendered != len(Kinds())-2 || len(emitted) != res.Rendered {
		t.Fatalf("expected %d emitted artifacts, got %v", len(Kinds())-2, emitted)
	}
	for i := 1; i < len(emitted); i++ {
		if emitted[i] <= emitted[i-1] {
			t.Fatalf("artifacts emitted out of slot order: %v", emitted)
		}
	}
}

func TestFallbackLogo(t *testing.T) {
	art := FallbackLogo("Field Day", testSize)
	if art.Slot != LogoSlot || art.Size() != testSize {
		t.Fatalf("unexpected fallback logo %+v", art)
	}
	if _, err := LoadLogo("/nonexistent/logo.png", testSize); err == nil {
		t.Fatalf("expected error for missing logo")
	}
}
