package render

import (
	"fmt"
	"image"

	"qsoview/contest"
	"qsoview/stats"
)

// table is a grid of pre-formatted cells. Row 0 is the header; when
// totalRow is set the last row is highlighted as a total.
type table struct {
	title    string
	cells    [][]string
	totalRow bool
}

const cellPad = 2 // characters either side of a cell

func (t table) columnWidths() []int {
	var widths []int
	for _, row := range t.cells {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len(cell))
		}
	}
	return widths
}

// image rasterises the table at native glyph size and fits it to size.
func (t table) image(size image.Point) *image.RGBA {
	widths := t.columnWidths()
	gridW := 0
	for _, w := range widths {
		gridW += (w + 2*cellPad) * glyphW
	}
	nativeW := max(gridW, textWidth(t.title)) + 2*glyphW
	nativeH := (len(t.cells)+2)*lineHeight + lineHeight/2
	img := newCanvas(nativeW, nativeH)

	drawCentered(img, nativeW/2, lineHeight-3, t.title, colorTitle)

	left := (nativeW - gridW) / 2
	for r, row := range t.cells {
		top := (r+1)*lineHeight + lineHeight/2
		bg := colorRowBG
		switch {
		case r == 0:
			bg = colorHeaderBG
		case t.totalRow && r == len(t.cells)-1:
			bg = colorTotalBG
		case r%2 == 0:
			bg = colorRowAltBG
		}
		fill(img, image.Rect(left, top, left+gridW, top+lineHeight), bg)
		x := left
		for c, cell := range row {
			colW := (widths[c] + 2*cellPad) * glyphW
			// Right-align so fixed-width numbers line up.
			tx := x + colW - cellPad*glyphW - textWidth(cell)
			if c == 0 {
				tx = x + cellPad*glyphW
			}
			drawString(img, tx, top+lineHeight-4, cell, colorText)
			x += colW
		}
	}
	return fitNearest(img, size)
}

// summaryCells builds the band by mode table with row and column totals.
// It returns nil when there are no QSOs in any simple mode.
func summaryCells(m stats.BandModeMatrix) [][]string {
	if m.Total == 0 {
		return nil
	}
	cells := [][]string{{"", "   CW", "Phone", " Data", "Total"}}
	for i, band := range m.Bands {
		row := []string{fmt.Sprintf("%5s", band.Title)}
		for _, v := range m.Cells[i] {
			row = append(row, fmt.Sprintf("%5d", v))
		}
		row = append(row, fmt.Sprintf("%5d", m.RowTotals[i]))
		cells = append(cells, row)
	}
	total := []string{"Total"}
	for _, v := range m.ColTotals {
		total = append(total, fmt.Sprintf("%5d", v))
	}
	total = append(total, fmt.Sprintf("%5d", m.Total))
	return append(cells, total)
}

// ratesCells builds the trailing-window operator rate table.
func ratesCells(rates []stats.OperatorRate, total float64) [][]string {
	if len(rates) == 0 {
		return nil
	}
	cells := [][]string{{"Operator", "Rate"}}
	for _, r := range rates {
		cells = append(cells, []string{r.Name, fmt.Sprintf("%4d", int64(r.Rate))})
	}
	return append(cells, []string{"Total", fmt.Sprintf("%4d", int64(total))})
}

// topOperatorCells builds the top five operators table.
func topOperatorCells(ops []stats.NameCount) [][]string {
	if len(ops) == 0 {
		return nil
	}
	cells := [][]string{{"Operator", "QSOs"}}
	for i, op := range ops {
		if i == 5 {
			break
		}
		cells = append(cells, []string{op.Name, fmt.Sprintf("%5d", op.Count)})
	}
	return cells
}

func modeLabels() []string {
	labels := make([]string, 0, len(contest.SimpleModes))
	for _, m := range contest.SimpleModes {
		labels = append(labels, m.String())
	}
	return labels
}
