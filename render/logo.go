package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// LoadLogo reads a PNG or JPEG logo and scales it to fit size.
func LoadLogo(path string, size image.Point) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("render: open logo: %w", err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("render: decode logo %s: %w", path, err)
	}
	dst := newCanvas(size.X, size.Y)
	sb := src.Bounds()
	scale := min(float64(size.X)/float64(sb.Dx()), float64(size.Y)/float64(sb.Dy()))
	w, h := int(float64(sb.Dx())*scale), int(float64(sb.Dy())*scale)
	x0, y0 := (size.X-w)/2, (size.Y-h)/2
	xdraw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), src, sb, xdraw.Over, nil)
	return newArtifact(KindLogo, dst), nil
}

var fallbackBorder = color.RGBA{R: 0, G: 90, B: 200, A: 255}

// FallbackLogo draws the event name in a bordered panel, used when no logo
// file is available.
func FallbackLogo(eventName string, size image.Point) *Artifact {
	if eventName == "" {
		eventName = "qsoview"
	}
	nativeW := textWidth(eventName) + 8*glyphW
	nativeH := 5 * lineHeight
	img := newCanvas(nativeW, nativeH)
	fill(img, image.Rect(0, 0, nativeW, 2), fallbackBorder)
	fill(img, image.Rect(0, nativeH-2, nativeW, nativeH), fallbackBorder)
	fill(img, image.Rect(0, 0, 2, nativeH), fallbackBorder)
	fill(img, image.Rect(nativeW-2, 0, nativeW, nativeH), fallbackBorder)
	drawCentered(img, nativeW/2, nativeH/2+4, eventName, colorTitle)
	return newArtifact(KindLogo, fitNearest(img, size))
}
