package render

import (
	"fmt"
	"image"
	"image/color"

	"qsoview/contest"
	"qsoview/stats"
)

// bucketBounds are the inclusive upper bounds of buckets 0..6; counts above
// the last bound fall into bucket 7.
var bucketBounds = [...]int64{0, 1, 10, 20, 50, 100, 200}

// BucketCount is the number of choropleth color buckets.
const BucketCount = len(bucketBounds) + 1

// Bucket maps a QSO count to its color bucket: the first bound the count
// does not exceed. Negative counts clamp to bucket 0.
func Bucket(count int64) int {
	if count < 0 {
		count = 0
	}
	for i, b := range bucketBounds {
		if count <= b {
			return i
		}
	}
	return BucketCount - 1
}

var bucketLabels = [BucketCount]string{"0", "1", "2-10", "11-20", "21-50", "51-100", "101-200", "200+"}

var bucketPalette = [BucketCount]color.RGBA{
	{R: 48, G: 48, B: 48, A: 255},
	{R: 0, G: 90, B: 200, A: 255},
	{R: 0, G: 160, B: 200, A: 255},
	{R: 0, G: 180, B: 90, A: 255},
	{R: 150, G: 200, B: 0, A: 255},
	{R: 240, G: 200, B: 0, A: 255},
	{R: 250, G: 120, B: 0, A: 255},
	{R: 230, G: 0, B: 0, A: 255},
}

// BucketColor returns the fill color for a bucket index.
func BucketColor(bucket int) color.RGBA {
	if bucket < 0 {
		bucket = 0
	}
	if bucket >= BucketCount {
		bucket = BucketCount - 1
	}
	return bucketPalette[bucket]
}

type sectionMap struct {
	sections []contest.Section
}

type areaRow struct {
	area  string
	codes []string
}

func (m sectionMap) rows() []areaRow {
	var rows []areaRow
	index := map[string]int{}
	for _, s := range m.sections {
		i, ok := index[s.Area]
		if !ok {
			i = len(rows)
			index[s.Area] = i
			rows = append(rows, areaRow{area: s.Area})
		}
		rows[i].codes = append(rows[i].codes, s.Code)
	}
	return rows
}

const (
	tileW   = 5 * glyphW
	tileH   = 22
	tileGap = 3
	labelW  = 4 * glyphW
)

// image draws one tile per known section, grouped in rows by call area and
// colored by bucket, with a legend. Always renders, even for an empty log.
func (m sectionMap) image(snap *stats.Snapshot, size image.Point) *image.RGBA {
	rows := m.rows()
	widest := 0
	for _, r := range rows {
		widest = max(widest, len(r.codes))
	}
	gridW := labelW + widest*(tileW+tileGap)
	legendW := BucketCount * (tileW + 4*glyphW)
	nativeW := max(gridW, legendW, textWidth(KindSectionsMap.Title())) + 2*glyphW
	top := 2 * lineHeight
	nativeH := top + len(rows)*(tileH+tileGap) + 3*lineHeight
	img := newCanvas(nativeW, nativeH)

	drawCentered(img, nativeW/2, lineHeight, KindSectionsMap.Title(), colorTitle)

	left := (nativeW - gridW) / 2
	worked := 0
	for r, row := range rows {
		y := top + r*(tileH+tileGap)
		drawString(img, left, y+tileH-7, row.area, colorText)
		for c, code := range row.codes {
			x := left + labelW + c*(tileW+tileGap)
			count := snap.SectionCount(code)
			if count > 0 {
				worked++
			}
			bucket := Bucket(count)
			fill(img, image.Rect(x, y, x+tileW, y+tileH), BucketColor(bucket))
			fg := colorText
			if bucket >= 4 && bucket <= 5 {
				fg = colorBackground
			}
			drawCentered(img, x+tileW/2, y+tileH-7, code, fg)
		}
	}

	ly := top + len(rows)*(tileH+tileGap) + lineHeight/2
	lx := (nativeW - legendW) / 2
	for b := 0; b < BucketCount; b++ {
		x := lx + b*(tileW+4*glyphW)
		fill(img, image.Rect(x, ly, x+glyphW*2, ly+lineHeight-4), BucketColor(b))
		drawString(img, x+glyphW*2+3, ly+lineHeight-5, bucketLabels[b], colorText)
	}
	summary := fmt.Sprintf("%d of %d sections worked", worked, len(m.sections))
	drawCentered(img, nativeW/2, ly+2*lineHeight, summary, colorText)
	return fitNearest(img, size)
}
