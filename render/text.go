package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	colorBackground = color.RGBA{A: 255}
	colorText       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorTitle      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorHeaderBG   = color.RGBA{R: 40, G: 40, B: 110, A: 255}
	colorRowBG      = color.RGBA{R: 24, G: 24, B: 24, A: 255}
	colorRowAltBG   = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorTotalBG    = color.RGBA{R: 70, G: 50, B: 0, A: 255}
)

var face = basicfont.Face7x13

const (
	glyphW     = 7
	lineHeight = 16
)

func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// drawString draws s with its baseline at y.
func drawString(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

func drawCentered(dst draw.Image, cx, y int, s string, c color.Color) {
	drawString(dst, cx-textWidth(s)/2, y, s, c)
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), colorBackground)
	return img
}

// fitNearest scales src into a size canvas, preserving aspect ratio and
// centering on the background color. Bitmap text stays crisp with
// nearest-neighbour sampling.
func fitNearest(src image.Image, size image.Point) *image.RGBA {
	dst := newCanvas(size.X, size.Y)
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 || size.X <= 0 || size.Y <= 0 {
		return dst
	}
	scale := min(float64(size.X)/float64(sb.Dx()), float64(size.Y)/float64(sb.Dy()))
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	x0 := (size.X - w) / 2
	y0 := (size.Y - h) / 2
	xdraw.NearestNeighbor.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), src, sb, xdraw.Over, nil)
	return dst
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Src)
	return out
}
