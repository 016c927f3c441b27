// Package render turns statistics snapshots into addressable images. Each
// Kind owns one display slot; slot 0 is reserved for the logo.
package render

import (
	"fmt"
	"image"
	"log"
	"runtime/debug"

	"qsoview/stats"
)

// Kind identifies one rendered artifact.
type Kind int

const (
	KindLogo Kind = iota
	KindSummaryTable
	KindRatesTable
	KindOperatorsPie
	KindOperatorsTable
	KindStationsPie
	KindBandsPie
	KindModesPie
	KindRateChart
	KindSectionsMap
)

// SlotCount is the number of display slots, logo included.
const SlotCount = 10

// LogoSlot is the slot the rotation falls back to.
const LogoSlot = int(KindLogo)

var kindTitles = [...]string{
	KindLogo:           "Logo",
	KindSummaryTable:   "QSOs Summary",
	KindRatesTable:     "QSO/Hour Rates",
	KindOperatorsPie:   "QSOs by Operator",
	KindOperatorsTable: "Top 5 Operators",
	KindStationsPie:    "QSOs by Station",
	KindBandsPie:       "QSOs by Band",
	KindModesPie:       "QSOs by Mode",
	KindRateChart:      "QSOs per Hour by Band",
	KindSectionsMap:    "Sections Worked",
}

// Kinds returns the statistic kinds in slot order (logo excluded).
func Kinds() []Kind {
	return []Kind{
		KindSummaryTable, KindRatesTable, KindOperatorsPie, KindOperatorsTable,
		KindStationsPie, KindBandsPie, KindModesPie, KindRateChart, KindSectionsMap,
	}
}

// Slot returns the display slot owned by k.
func (k Kind) Slot() int { return int(k) }

// Title returns the human title used on screen and in export file names.
func (k Kind) Title() string {
	if k < 0 || int(k) >= len(kindTitles) {
		return fmt.Sprintf("Kind %d", int(k))
	}
	return kindTitles[k]
}

func (k Kind) String() string { return k.Title() }

// Artifact is one rendered image bound to a slot.
type Artifact struct {
	Slot  int
	Kind  Kind
	Title string
	Image *image.RGBA
}

// Size returns the artifact dimensions.
func (a *Artifact) Size() image.Point {
	if a == nil || a.Image == nil {
		return image.Point{}
	}
	return a.Image.Bounds().Size()
}

func newArtifact(k Kind, img *image.RGBA) *Artifact {
	return &Artifact{Slot: k.Slot(), Kind: k, Title: k.Title(), Image: img}
}

// Renderer draws one kind from a snapshot. A nil artifact with a nil error
// means the snapshot has no data for that kind.
type Renderer interface {
	Render(kind Kind, snap *stats.Snapshot, size image.Point) (*Artifact, error)
}

// RenderError records a failed kind.
type RenderError struct {
	Kind Kind
	Err  error
}

func (e RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Kind, e.Err)
}

func (e RenderError) Unwrap() error { return e.Err }

// Result summarises one RenderAll pass.
type Result struct {
	Rendered int
	Empty    int
	Errors   []RenderError
}

// RenderAll renders every kind in slot order and hands each artifact to
// emit as soon as it completes. A failure or panic in one kind is logged
// and recorded; the remaining kinds still render.
//
// Purpose: isolate artifact failures from each other and from the worker.
// Key aspects: sequential; emit is never called with nil.
// Upstream: worker cycle.
// Downstream: Renderer.Render, pipeline publish via emit.
func RenderAll(r Renderer, snap *stats.Snapshot, size image.Point, emit func(*Artifact), logf func(string, ...any)) Result {
	if logf == nil {
		logf = log.Printf
	}
	var res Result
	for _, kind := range Kinds() {
		art, err := renderOne(r, kind, snap, size)
		switch {
		case err != nil:
			rerr := RenderError{Kind: kind, Err: err}
			res.Errors = append(res.Errors, rerr)
			logf("render: %v", rerr)
		case art == nil:
			res.Empty++
		default:
			res.Rendered++
			if emit != nil {
				emit(art)
			}
		}
	}
	return res
}

func renderOne(r Renderer, kind Kind, snap *stats.Snapshot, size image.Point) (art *Artifact, err error) {
	defer func() {
		if p := recover(); p != nil {
			art = nil
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	art, err = r.Render(kind, snap, size)
	if err != nil {
		return nil, err
	}
	if art != nil && art.Image == nil {
		return nil, nil
	}
	return art, nil
}
