package ui

import (
	"image"
	"image/color"
	"testing"

	"github.com/gdamore/tcell/v2"

	"qsoview/display"
	"qsoview/pipeline"
)

func TestHalfBlockStyleUsesUpperAndLowerPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(0, 1, color.RGBA{B: 255, A: 255})
	img.SetRGBA(0, 2, color.RGBA{G: 255, A: 255})

	fg, bg, _ := halfBlockStyle(img, 0, 0).Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) || bg != tcell.NewRGBColor(0, 0, 255) {
		t.Fatalf("unexpected colors fg=%v bg=%v", fg, bg)
	}
	// Odd height: the last row pairs with black.
	fg, bg, _ = halfBlockStyle(img, 0, 1).Decompose()
	if fg != tcell.NewRGBColor(0, 255, 0) || bg != tcell.NewRGBColor(0, 0, 0) {
		t.Fatalf("unexpected colors on last row fg=%v bg=%v", fg, bg)
	}
}

func TestFitImagePreservesAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+3] = 255, 255
	}
	dst := fitImage(src, 40, 40)
	if dst.Bounds().Dx() != 40 || dst.Bounds().Dy() != 40 {
		t.Fatalf("unexpected bounds %v", dst.Bounds())
	}
	// 100x50 into 40x40 is 40x20 centered vertically.
	if c := dst.RGBAAt(20, 5); c.R != 0 || c.A != 255 {
		t.Fatalf("expected black letterbox at top, got %v", c)
	}
	if c := dst.RGBAAt(20, 20); c.R != 255 {
		t.Fatalf("expected image pixel in the middle, got %v", c)
	}
}

func TestDrawCrawlClipsToWidth(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(10, 2)

	crawl := display.NewCrawl(10, 1, nil)
	crawl.Set(pipeline.SlotEngine, display.Entry{Text: "HELLO", FG: pipeline.White, BG: pipeline.Black})
	for i := 0; i < 8; i++ {
		crawl.Advance()
	}
	drawCrawl(screen, 0, 1, 10, crawl)

	firstX, _ := crawl.Visible()
	// Segment text is padded with one space on each side.
	col := firstX + 1
	if col < 0 || col >= 10 {
		t.Fatalf("expected first letter on screen, firstX=%d", firstX)
	}
	r, _, _, _ := screen.GetContent(col, 1)
	if r != 'H' {
		t.Fatalf("expected H at column %d, got %q", col, r)
	}
}
