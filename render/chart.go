package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sort"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"qsoview/contest"
	"qsoview/stats"
)

var piePalette = []drawing.Color{
	{R: 230, G: 25, B: 75, A: 255},
	{R: 60, G: 180, B: 75, A: 255},
	{R: 0, G: 130, B: 200, A: 255},
	{R: 245, G: 130, B: 48, A: 255},
	{R: 145, G: 30, B: 180, A: 255},
	{R: 70, G: 240, B: 240, A: 255},
	{R: 240, G: 50, B: 230, A: 255},
	{R: 210, G: 245, B: 60, A: 255},
	{R: 250, G: 190, B: 190, A: 255},
	{R: 0, G: 128, B: 128, A: 255},
	{R: 170, G: 110, B: 40, A: 255},
	{R: 128, G: 128, B: 128, A: 255},
}

// bandPalette follows band order (160m first).
var bandPalette = []drawing.Color{
	{R: 255, A: 255},
	{G: 160, A: 255},
	{B: 255, A: 255},
	{G: 191, B: 191, A: 255},
	{R: 191, B: 191, A: 255},
	{R: 191, G: 191, A: 255},
	{R: 255, G: 153, A: 255},
	{G: 255, A: 255},
	{R: 102, G: 51, A: 255},
}

var (
	chartTitleStyle = chart.Style{FontColor: drawing.ColorWhite, FontSize: 20}
	chartBackground = chart.Style{FillColor: drawing.ColorBlack, Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
	chartCanvas     = chart.Style{FillColor: drawing.ColorBlack}
	axisStyle       = chart.Style{FontColor: drawing.ColorWhite, StrokeColor: drawing.ColorWhite}
)

func decodePNG(buf *bytes.Buffer) (*image.RGBA, error) {
	img, err := png.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart png: %w", err)
	}
	return toRGBA(img), nil
}

type pieSlice struct {
	label string
	value int64
}

// pieImage draws a pie of the non-zero slices. It returns nil when every
// slice is zero.
func pieImage(title string, slices []pieSlice, colors []drawing.Color, size image.Point) (*image.RGBA, error) {
	values := make([]chart.Value, 0, len(slices))
	for i, s := range slices {
		if s.value <= 0 {
			continue
		}
		c := colors[i%len(colors)]
		values = append(values, chart.Value{
			Value: float64(s.value),
			Label: s.label,
			Style: chart.Style{FillColor: c, StrokeColor: drawing.ColorBlack, StrokeWidth: 1, FontColor: drawing.ColorBlack},
		})
	}
	if len(values) == 0 {
		return nil, nil
	}
	pie := chart.PieChart{
		Title:      title,
		TitleStyle: chartTitleStyle,
		Width:      size.X,
		Height:     size.Y,
		Background: chartBackground,
		Canvas:     chartCanvas,
		Values:     values,
	}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("pie %q: %w", title, err)
	}
	return decodePNG(&buf)
}

func nameSlices(counts []stats.NameCount) []pieSlice {
	out := make([]pieSlice, 0, len(counts))
	for _, c := range counts {
		out = append(out, pieSlice{label: c.Name, value: c.Count})
	}
	return out
}

// bandSlices sums each band row, largest first, keeping band colors.
func bandSlices(m stats.BandModeMatrix) ([]pieSlice, []drawing.Color) {
	type row struct {
		slice pieSlice
		color drawing.Color
	}
	rows := make([]row, 0, len(m.Bands))
	for i, b := range m.Bands {
		rows = append(rows, row{pieSlice{label: b.Title, value: m.RowTotals[i]}, bandPalette[i%len(bandPalette)]})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].slice.value > rows[j].slice.value })
	slices := make([]pieSlice, len(rows))
	colors := make([]drawing.Color, len(rows))
	for i, r := range rows {
		slices[i] = r.slice
		colors[i] = r.color
	}
	return slices, colors
}

func modeSlices(m stats.BandModeMatrix) []pieSlice {
	labels := modeLabels()
	out := make([]pieSlice, 0, len(labels))
	for i, label := range labels {
		out = append(out, pieSlice{label: label, value: m.ColTotals[i]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].value > out[j].value })
	return out
}

// rateChartImage draws the per-band rate series stacked: bands are summed
// cumulatively and drawn largest-first so each filled area sits on top of
// the previous ones.
func rateChartImage(series []stats.RateSlice, width time.Duration, eventStart, eventEnd time.Time, size image.Point) (*image.RGBA, error) {
	if len(series) == 0 {
		return nil, nil
	}
	bands := contest.Bands()
	xs := make([]time.Time, 0, len(series)+1)
	for _, s := range series {
		xs = append(xs, s.Start)
	}
	// A single slice would collapse the x range; extend it to the slice end.
	single := len(series) == 1
	if single {
		xs = append(xs, series[0].Start.Add(width))
	}

	var active []int
	for b := range bands {
		for _, s := range series {
			if s.BandRates[b] > 0 {
				active = append(active, b)
				break
			}
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	cum := make([][]float64, len(active))
	running := make([]float64, len(series))
	ymax := 0.0
	for k, b := range active {
		ys := make([]float64, 0, len(xs))
		for i, s := range series {
			running[i] += s.BandRates[b]
			ys = append(ys, running[i])
			ymax = max(ymax, running[i])
		}
		if single {
			ys = append(ys, ys[0])
		}
		cum[k] = ys
	}

	chartSeries := make([]chart.Series, 0, len(active))
	for k := len(active) - 1; k >= 0; k-- {
		c := bandPalette[active[k]%len(bandPalette)]
		chartSeries = append(chartSeries, chart.TimeSeries{
			Name:    bands[active[k]].Title,
			XValues: xs,
			YValues: cum[k],
			Style:   chart.Style{StrokeColor: c, FillColor: c, StrokeWidth: 1},
		})
	}

	minX, maxX := xs[0], xs[len(xs)-1]
	if !eventStart.IsZero() && !eventEnd.IsZero() && !minX.Before(eventStart) && !maxX.After(eventEnd) {
		minX, maxX = eventStart, eventEnd
	}
	if ymax <= 0 {
		ymax = 1
	}

	ch := chart.Chart{
		Title:      KindRateChart.Title(),
		TitleStyle: chartTitleStyle,
		Width:      size.X,
		Height:     size.Y,
		Background: chartBackground,
		Canvas:     chartCanvas,
		XAxis: chart.XAxis{
			Name:           "UTC Hour",
			NameStyle:      axisStyle,
			Style:          axisStyle,
			ValueFormatter: chart.TimeHourValueFormatter,
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(minX), Max: chart.TimeToFloat64(maxX)},
		},
		YAxis: chart.YAxis{
			Name:      "QSO Rate/Hour",
			NameStyle: axisStyle,
			Style:     axisStyle,
			Range:     &chart.ContinuousRange{Min: 0, Max: ymax * 1.1},
		},
		Series: chartSeries,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rate chart: %w", err)
	}
	return decodePNG(&buf)
}

// ChartRenderer is the default Renderer: go-chart pies and rate chart,
// bitmap-font tables, and a tile cartogram for sections.
type ChartRenderer struct {
	sections   []contest.Section
	eventStart time.Time
	eventEnd   time.Time
}

// NewChartRenderer builds a renderer. An empty sections list falls back to
// contest.DefaultSections.
func NewChartRenderer(sections []contest.Section, eventStart, eventEnd time.Time) *ChartRenderer {
	if len(sections) == 0 {
		sections = contest.DefaultSections()
	}
	return &ChartRenderer{sections: sections, eventStart: eventStart, eventEnd: eventEnd}
}

var errNilSnapshot = errors.New("nil snapshot")

// Render implements Renderer.
func (r *ChartRenderer) Render(kind Kind, snap *stats.Snapshot, size image.Point) (*Artifact, error) {
	if snap == nil {
		return nil, errNilSnapshot
	}
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid image size %v", size)
	}
	var (
		img *image.RGBA
		err error
	)
	switch kind {
	case KindSummaryTable:
		if cells := summaryCells(snap.BandModes()); cells != nil {
			img = table{title: kind.Title(), cells: cells, totalRow: true}.image(size)
		}
	case KindRatesTable:
		if cells := ratesCells(snap.OperatorRates(), snap.RateTotal()); cells != nil {
			img = table{title: kind.Title(), cells: cells, totalRow: true}.image(size)
		}
	case KindOperatorsTable:
		if cells := topOperatorCells(snap.Operators()); cells != nil {
			img = table{title: kind.Title(), cells: cells}.image(size)
		}
	case KindOperatorsPie:
		img, err = pieImage(kind.Title(), nameSlices(snap.Operators()), piePalette, size)
	case KindStationsPie:
		img, err = pieImage(kind.Title(), nameSlices(snap.Stations()), piePalette, size)
	case KindBandsPie:
		slices, colors := bandSlices(snap.BandModes())
		img, err = pieImage(kind.Title(), slices, colors, size)
	case KindModesPie:
		img, err = pieImage(kind.Title(), modeSlices(snap.BandModes()), piePalette, size)
	case KindRateChart:
		img, err = rateChartImage(snap.Series(), snap.SliceWidth(), r.eventStart, r.eventEnd, size)
	case KindSectionsMap:
		img = sectionMap{sections: r.sections}.image(snap, size)
	default:
		return nil, fmt.Errorf("unsupported kind %d", int(kind))
	}
	if err != nil || img == nil {
		return nil, err
	}
	return newArtifact(kind, img), nil
}
