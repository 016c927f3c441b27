package ui

import (
	"image"
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
	xdraw "golang.org/x/image/draw"

	"qsoview/display"
	"qsoview/render"
)

const halfBlock = '▀'

// slideView draws the current artifact with half-block cells (two image rows
// per terminal row) and the crawl on the bottom line.
type slideView struct {
	*tview.Box
	loop  *display.Loop
	draws *latencyRing

	cached     *render.Artifact
	cachedW    int
	cachedH    int
	cachedView *image.RGBA
}

func newSlideView(loop *display.Loop) *slideView {
	box := tview.NewBox()
	box.SetBackgroundColor(tcell.ColorBlack)
	return &slideView{Box: box, loop: loop, draws: newLatencyRing(512)}
}

func (v *slideView) Draw(screen tcell.Screen) {
	started := time.Now()
	v.Box.DrawForSubclass(screen, v)
	x, y, width, height := v.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	crawl := v.loop.Crawl()
	if crawl.Width() != width {
		crawl.Resize(width)
	}

	imageRows := height - 1
	rot := v.loop.Rotator()
	if _, art := rot.Current(); art != nil && imageRows > 0 {
		drawHalfBlocks(screen, x, y, v.scaled(art, width, imageRows*2))
	}
	if rot.Paused() {
		label := " PAUSED "
		drawText(screen, x+width-runewidth.StringWidth(label), y, width, label, tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow))
	}
	drawCrawl(screen, x, y+height-1, width, crawl)
	v.draws.observe(time.Since(started))
}

// scaled fits the artifact into a w x h pixel grid, preserving aspect and
// centering on black. Results are cached per artifact and size.
func (v *slideView) scaled(art *render.Artifact, w, h int) *image.RGBA {
	if art == v.cached && w == v.cachedW && h == v.cachedH && v.cachedView != nil {
		return v.cachedView
	}
	v.cached, v.cachedW, v.cachedH = art, w, h
	v.cachedView = fitImage(art.Image, w, h)
	return v.cachedView
}

func fitImage(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	fillBlack(dst)
	if src == nil {
		return dst
	}
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return dst
	}
	scale := float64(w) / float64(sb.Dx())
	if s := float64(h) / float64(sb.Dy()); s < scale {
		scale = s
	}
	tw := int(float64(sb.Dx()) * scale)
	th := int(float64(sb.Dy()) * scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	ox := (w - tw) / 2
	oy := (h - th) / 2
	xdraw.ApproxBiLinear.Scale(dst, image.Rect(ox, oy, ox+tw, oy+th), src, sb, xdraw.Src, nil)
	return dst
}

func fillBlack(img *image.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 0xff
	}
}

// drawHalfBlocks paints img at (x, y). Each cell takes its foreground from
// the upper pixel and its background from the lower one.
func drawHalfBlocks(screen tcell.Screen, x, y int, img *image.RGBA) {
	b := img.Bounds()
	for row := 0; row*2 < b.Dy(); row++ {
		for col := 0; col < b.Dx(); col++ {
			screen.SetContent(x+col, y+row, halfBlock, nil, halfBlockStyle(img, col, row))
		}
	}
}

func halfBlockStyle(img *image.RGBA, col, row int) tcell.Style {
	top := img.RGBAAt(col, row*2)
	bottom := color.RGBA{A: 0xff}
	if row*2+1 < img.Bounds().Dy() {
		bottom = img.RGBAAt(col, row*2+1)
	}
	return tcell.StyleDefault.Foreground(tcellColor(top)).Background(tcellColor(bottom))
}

func tcellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// drawCrawl paints the visible ticker segments on one row, clipping at both
// edges.
func drawCrawl(screen tcell.Screen, x, y, width int, crawl *display.Crawl) {
	cx, segments := crawl.Visible()
	for _, seg := range segments {
		if cx >= width {
			return
		}
		style := tcell.StyleDefault.Foreground(tcellColor(seg.FG)).Background(tcellColor(seg.BG))
		for _, r := range seg.Text {
			rw := runewidth.RuneWidth(r)
			if cx >= 0 && cx+rw <= width {
				screen.SetContent(x+cx, y, r, nil, style)
			}
			cx += rw
		}
	}
}

func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= maxWidth {
			return
		}
		screen.SetContent(x+col, y, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
}
