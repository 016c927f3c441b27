package stats

import (
	"testing"
	"time"

	"qsoview/contest"
	"qsoview/qsolog"
)

func TestSliceCount(t *testing.T) {
	w := 15 * time.Minute
	cases := []struct {
		first, last int64
		want        int
	}{
		{0, 0, 1},
		{0, 1, 1},
		{0, 900, 1},
		{0, 901, 2},
		{0, 1800, 2},
		{100, 2000, 3},
	}
	for _, tc := range cases {
		if got := SliceCount(tc.first, tc.last, w); got != tc.want {
			t.Fatalf("SliceCount(%d,%d) = %d, want %d", tc.first, tc.last, got, tc.want)
		}
	}
}

func TestBuildSnapshotSeriesContiguous(t *testing.T) {
	b20 := contest.BandIndex(4)
	b40 := contest.BandIndex(3)
	agg := qsolog.Aggregates{
		First: 1000, HasFirst: true, Total: 6,
		Slices: []qsolog.SliceCount{
			{Index: 0, BandID: 4, Count: 3},
			// Slice 1 has no QSOs at all.
			{Index: 2, BandID: 3, Count: 2},
			// Exact boundary at the watermark folds into the final slice.
			{Index: 3, BandID: 3, Count: 1},
		},
	}
	snap := BuildSnapshot(agg, 1000+3*900, DefaultParams())
	series := snap.Series()
	if len(series) != 3 {
		t.Fatalf("expected 3 slices, got %d", len(series))
	}
	for i, s := range series {
		want := time.Unix(1000+int64(i)*900, 0).UTC()
		if !s.Start.Equal(want) {
			t.Fatalf("slice %d starts %v, want %v", i, s.Start, want)
		}
		if len(s.BandRates) != contest.BandCount() {
			t.Fatalf("slice %d has %d bands", i, len(s.BandRates))
		}
	}
	if series[0].BandRates[b20] != 12 {
		t.Fatalf("expected 3 QSOs in 15m to be 12/h, got %v", series[0].BandRates[b20])
	}
	if series[1].Total() != 0 {
		t.Fatalf("expected gap slice to be zero-filled, got %v", series[1].BandRates)
	}
	if series[2].BandRates[b40] != 12 {
		t.Fatalf("expected boundary QSO folded into last slice (3 QSOs => 12/h), got %v", series[2].BandRates[b40])
	}
}

func TestBuildSnapshotCountsAndRates(t *testing.T) {
	agg := qsolog.Aggregates{
		First: 0, HasFirst: true, Total: 9,
		Operators: []qsolog.NameCount{{Name: "N1MM", Count: 3}, {Name: "KD4X", Count: 3}, {Name: "AB1C", Count: 5}},
		Stations:  []qsolog.NameCount{{Name: "", Count: 2}, {Name: "Pos1", Count: 7}},
		BandModes: []qsolog.BandModeCount{
			{BandID: 4, ModeID: 1, Count: 4},  // 20m CW
			{BandID: 4, ModeID: 5, Count: 2},  // 20m USB
			{BandID: 3, ModeID: 10, Count: 3}, // 40m FT8
			{BandID: 99, ModeID: 1, Count: 7}, // unknown band
		},
		Sections:      []qsolog.NameCount{{Name: "ct", Count: 2}, {Name: "ZZZ", Count: 1}, {Name: "", Count: 4}},
		OperatorRates: []qsolog.NameCount{{Name: "KD4X", Count: 5}, {Name: "N1MM", Count: 1}},
	}
	p := DefaultParams()
	p.TopOperators = 1
	snap := BuildSnapshot(agg, 60, p)

	ops := snap.Operators()
	if ops[0].Name != "AB1C" || ops[1].Name != "KD4X" || ops[2].Name != "N1MM" {
		t.Fatalf("unexpected operator order %+v", ops)
	}
	if st := snap.Stations(); st[0].Name != "Pos1" || st[1].Name != "N/A" {
		t.Fatalf("unexpected station order %+v", st)
	}

	m := snap.BandModes()
	row20 := contest.BandIndex(4)
	if m.Cells[row20] != [3]int64{4, 2, 0} || m.RowTotals[row20] != 6 {
		t.Fatalf("unexpected 20m row %+v total %d", m.Cells[row20], m.RowTotals[row20])
	}
	if m.ColTotals != [3]int64{4, 2, 3} || m.Total != 9 {
		t.Fatalf("unexpected column totals %+v grand %d", m.ColTotals, m.Total)
	}

	if snap.SectionCount("CT") != 2 || snap.SectionCount("ZZZ") != 1 || snap.SectionCount("EMA") != 0 {
		t.Fatalf("unexpected section counts %+v", snap.Sections())
	}

	rates := snap.OperatorRates()
	if len(rates) != 1 || rates[0].Name != "KD4X" || rates[0].Rate != 30 {
		t.Fatalf("expected KD4X at 30/h (5 in 10m), got %+v", rates)
	}
	if snap.RateTotal() != 30 {
		t.Fatalf("expected rate total 30, got %v", snap.RateTotal())
	}
}

func TestSnapshotAccessorsReturnCopies(t *testing.T) {
	agg := qsolog.Aggregates{
		HasFirst: true, Total: 1,
		Operators: []qsolog.NameCount{{Name: "KD4X", Count: 1}},
		Sections:  []qsolog.NameCount{{Name: "CT", Count: 1}},
		Slices:    []qsolog.SliceCount{{Index: 0, BandID: 4, Count: 1}},
	}
	snap := BuildSnapshot(agg, 10, DefaultParams())
	snap.Operators()[0].Count = 99
	snap.Sections()["CT"] = 99
	snap.Series()[0].BandRates[0] = 99
	snap.BandModes().Cells[0][0] = 99
	if snap.Operators()[0].Count != 1 || snap.SectionCount("CT") != 1 {
		t.Fatalf("snapshot mutated through accessor")
	}
	if snap.Series()[0].BandRates[0] == 99 || snap.BandModes().Cells[0][0] == 99 {
		t.Fatalf("snapshot series or matrix mutated through accessor")
	}
}

func TestEmptySnapshot(t *testing.T) {
	snap := BuildSnapshot(qsolog.Aggregates{}, 0, DefaultParams())
	if !snap.Empty() || len(snap.Series()) != 0 || snap.BandModes().Total != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
