package stats

import (
	"sort"
	"strings"
	"time"

	"qsoview/contest"
	"qsoview/qsolog"
)

// Watermark is the timestamp of the newest QSO that has been aggregated.
// Observed is false until the first successful poll.
type Watermark struct {
	Timestamp int64
	Observed  bool
}

// NameCount is a grouped QSO count.
type NameCount struct {
	Name  string
	Count int64
}

// OperatorRate is one operator's hourly rate over the trailing window.
type OperatorRate struct {
	Name string
	Rate float64
}

// RateSlice is one time slice of the per-band rate series. BandRates is
// indexed like contest.Bands().
type RateSlice struct {
	Start     time.Time
	BandRates []float64
}

// Total returns the summed rate across bands.
func (r RateSlice) Total() float64 {
	var sum float64
	for _, v := range r.BandRates {
		sum += v
	}
	return sum
}

// BandModeMatrix counts QSOs by band row and simple-mode column
// (contest.SimpleModes order).
type BandModeMatrix struct {
	Bands     []contest.Band
	Cells     [][3]int64
	RowTotals []int64
	ColTotals [3]int64
	Total     int64
}

func (m BandModeMatrix) clone() BandModeMatrix {
	out := m
	out.Bands = append([]contest.Band(nil), m.Bands...)
	out.Cells = append([][3]int64(nil), m.Cells...)
	out.RowTotals = append([]int64(nil), m.RowTotals...)
	return out
}

// Snapshot is an immutable statistics set derived from the log at one
// watermark. Accessors return copies.
type Snapshot struct {
	watermark     int64
	empty         bool
	total         int64
	operators     []NameCount
	stations      []NameCount
	bandModes     BandModeMatrix
	sections      map[string]int64
	operatorRates []OperatorRate
	rateTotal     float64
	rateWindow    time.Duration
	series        []RateSlice
	sliceWidth    time.Duration
}

// Params shapes a snapshot.
type Params struct {
	SliceWidth   time.Duration
	RateWindow   time.Duration
	TopOperators int
}

// DefaultParams returns 15 minute slices, a 10 minute rate window and
// the top 10 operators.
func DefaultParams() Params {
	return Params{SliceWidth: 15 * time.Minute, RateWindow: 10 * time.Minute, TopOperators: 10}
}

func (p Params) normalized() Params {
	d := DefaultParams()
	if p.SliceWidth < time.Minute {
		p.SliceWidth = d.SliceWidth
	}
	if p.RateWindow < time.Minute {
		p.RateWindow = d.RateWindow
	}
	if p.TopOperators <= 0 {
		p.TopOperators = d.TopOperators
	}
	return p
}

// EmptySnapshot returns a snapshot for a log with no QSOs.
func EmptySnapshot(params Params) *Snapshot {
	params = params.normalized()
	return &Snapshot{
		empty:      true,
		bandModes:  newMatrix(),
		sections:   map[string]int64{},
		rateWindow: params.RateWindow,
		sliceWidth: params.SliceWidth,
	}
}

// BuildSnapshot converts one consistent set of aggregate rows pinned at
// watermark into a Snapshot.
//
// Purpose: all ordering, gap filling and rate scaling in one pure step.
// Key aspects: operators and stations sort by count desc then name; the
// slice series is contiguous from the first QSO through the watermark.
// Upstream: Engine.Poll.
// Downstream: render.Renderer implementations via accessors.
func BuildSnapshot(agg qsolog.Aggregates, watermark int64, params Params) *Snapshot {
	params = params.normalized()
	if !agg.HasFirst || agg.Total == 0 {
		s := EmptySnapshot(params)
		s.watermark = watermark
		return s
	}
	s := &Snapshot{
		watermark:  watermark,
		total:      agg.Total,
		operators:  sortedCounts(agg.Operators),
		stations:   sortedCounts(agg.Stations),
		bandModes:  buildMatrix(agg.BandModes),
		sections:   make(map[string]int64, len(agg.Sections)),
		rateWindow: params.RateWindow,
		sliceWidth: params.SliceWidth,
	}
	for _, sc := range agg.Sections {
		code := contest.NormalizeSection(sc.Name)
		if code == "" {
			continue
		}
		s.sections[code] += sc.Count
	}

	windowMinutes := params.RateWindow.Minutes()
	rates := sortedCounts(agg.OperatorRates)
	if len(rates) > params.TopOperators {
		rates = rates[:params.TopOperators]
	}
	for _, r := range rates {
		rate := float64(r.Count) * 60 / windowMinutes
		s.operatorRates = append(s.operatorRates, OperatorRate{Name: r.Name, Rate: rate})
		s.rateTotal += rate
	}

	s.series = buildSeries(agg.First, watermark, agg.Slices, params.SliceWidth)
	return s
}

// SliceCount returns the number of slices covering [first, watermark]:
// ceil((watermark-first)/width) with a minimum of one.
func SliceCount(first, watermark int64, width time.Duration) int {
	w := int64(width / time.Second)
	if w <= 0 {
		return 1
	}
	span := watermark - first
	if span <= 0 {
		return 1
	}
	return int((span + w - 1) / w)
}

func buildSeries(first, watermark int64, rows []qsolog.SliceCount, width time.Duration) []RateSlice {
	n := SliceCount(first, watermark, width)
	widthSec := int64(width / time.Second)
	bandCount := contest.BandCount()
	series := make([]RateSlice, n)
	for i := range series {
		series[i] = RateSlice{
			Start:     time.Unix(first+int64(i)*widthSec, 0).UTC(),
			BandRates: make([]float64, bandCount),
		}
	}
	scale := 60 / width.Minutes()
	for _, row := range rows {
		idx := contest.BandIndex(row.BandID)
		if idx < 0 || row.Index < 0 {
			continue
		}
		slot := row.Index
		// A watermark on an exact slice boundary belongs to the final slice.
		if slot >= int64(n) {
			slot = int64(n) - 1
		}
		series[slot].BandRates[idx] += float64(row.Count) * scale
	}
	return series
}

func newMatrix() BandModeMatrix {
	bands := contest.Bands()
	return BandModeMatrix{
		Bands:     bands,
		Cells:     make([][3]int64, len(bands)),
		RowTotals: make([]int64, len(bands)),
	}
}

func buildMatrix(rows []qsolog.BandModeCount) BandModeMatrix {
	m := newMatrix()
	for _, r := range rows {
		row := contest.BandIndex(r.BandID)
		col := contest.SimpleModeOf(r.ModeID).Column()
		if row < 0 || col < 0 {
			continue
		}
		m.Cells[row][col] += r.Count
		m.RowTotals[row] += r.Count
		m.ColTotals[col] += r.Count
		m.Total += r.Count
	}
	return m
}

func sortedCounts(rows []qsolog.NameCount) []NameCount {
	out := make([]NameCount, 0, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = "N/A"
		}
		out = append(out, NameCount{Name: name, Count: r.Count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Watermark returns the timestamp the snapshot was built at.
func (s *Snapshot) Watermark() int64 { return s.watermark }

// Empty reports whether the log had no QSOs.
func (s *Snapshot) Empty() bool { return s.empty }

// Total returns the QSO count.
func (s *Snapshot) Total() int64 { return s.total }

// Operators returns QSO counts per operator, count desc.
func (s *Snapshot) Operators() []NameCount { return append([]NameCount(nil), s.operators...) }

// Stations returns QSO counts per station, count desc.
func (s *Snapshot) Stations() []NameCount { return append([]NameCount(nil), s.stations...) }

// BandModes returns the band by simple mode matrix.
func (s *Snapshot) BandModes() BandModeMatrix { return s.bandModes.clone() }

// SectionCount returns the QSOs worked in code; absent sections are 0.
func (s *Snapshot) SectionCount(code string) int64 {
	return s.sections[contest.NormalizeSection(code)]
}

// Sections returns a copy of the sparse section counts.
func (s *Snapshot) Sections() map[string]int64 {
	out := make(map[string]int64, len(s.sections))
	for k, v := range s.sections {
		out[k] = v
	}
	return out
}

// OperatorRates returns the top operators' hourly rates over the trailing
// window.
func (s *Snapshot) OperatorRates() []OperatorRate {
	return append([]OperatorRate(nil), s.operatorRates...)
}

// RateTotal returns the summed hourly rate of OperatorRates.
func (s *Snapshot) RateTotal() float64 { return s.rateTotal }

// RateWindow returns the trailing rate window.
func (s *Snapshot) RateWindow() time.Duration { return s.rateWindow }

// Series returns the per-band rate slices.
func (s *Snapshot) Series() []RateSlice {
	out := make([]RateSlice, len(s.series))
	for i, r := range s.series {
		out[i] = RateSlice{Start: r.Start, BandRates: append([]float64(nil), r.BandRates...)}
	}
	return out
}

// SliceWidth returns the width of each series slice.
func (s *Snapshot) SliceWidth() time.Duration { return s.sliceWidth }
