package display

import (
	"image/color"

	"github.com/mattn/go-runewidth"

	"qsoview/pipeline"
)

// Entry is the text and colors of one ticker slot. Empty text is skipped.
type Entry struct {
	Text string
	FG   color.RGBA
	BG   color.RGBA
}

// Segment is one rendered entry scrolling across the ticker.
type Segment struct {
	Slot  int
	Text  string
	FG    color.RGBA
	BG    color.RGBA
	Width int
}

// Crawl is a left-scrolling marquee built from the ticker slots. Segments
// are rendered from a slot when appended; later slot updates affect only
// future segments.
type Crawl struct {
	entries  [pipeline.CrawlSlots]Entry
	segments []Segment
	firstX   int
	width    int
	step     int
	next     int
	measure  func(string) int
}

// NewCrawl builds a ticker width cells wide that moves step cells per
// Advance. measure defaults to terminal cell width.
func NewCrawl(width, step int, measure func(string) int) *Crawl {
	if step <= 0 {
		step = 1
	}
	if measure == nil {
		measure = runewidth.StringWidth
	}
	c := &Crawl{width: max(width, 0), step: step, measure: measure, firstX: max(width, 0)}
	for i := range c.entries {
		c.entries[i] = Entry{FG: pipeline.Green, BG: pipeline.Black}
	}
	return c
}

// Set replaces the text and colors of slot. Out-of-range slots are ignored.
func (c *Crawl) Set(slot int, e Entry) {
	if slot < 0 || slot >= len(c.entries) {
		return
	}
	c.entries[slot] = e
}

// SetText replaces the text of slot, keeping its colors.
func (c *Crawl) SetText(slot int, text string) {
	if slot < 0 || slot >= len(c.entries) {
		return
	}
	c.entries[slot].Text = text
}

// Entry returns the current contents of slot.
func (c *Crawl) Entry(slot int) Entry {
	if slot < 0 || slot >= len(c.entries) {
		return Entry{}
	}
	return c.entries[slot]
}

// Width returns the ticker width in cells.
func (c *Crawl) Width() int { return c.width }

// Resize changes the ticker width, keeping the segments in flight.
func (c *Crawl) Resize(width int) {
	width = max(width, 0)
	if width == c.width {
		return
	}
	c.width = width
	if len(c.segments) == 0 {
		c.firstX = width
	}
	c.fill()
}

// Advance scrolls one step, evicts segments that have fully left the
// ticker, and appends new ones until the ticker is covered.
//
// Purpose: lazy, gap-free marquee independent of slot rotation.
// Key aspects: eviction shifts firstX by the evicted width so the
// remaining segments keep their position; empty slots are skipped and the
// ticker stops appending when every slot is empty.
// Upstream: Loop.Tick.
// Downstream: fill.
func (c *Crawl) Advance() {
	c.firstX -= c.step
	for len(c.segments) > 0 && c.firstX+c.segments[0].Width <= 0 {
		c.firstX += c.segments[0].Width
		c.segments = c.segments[1:]
	}
	if len(c.segments) == 0 && c.firstX < 0 {
		c.firstX = c.width
	}
	c.fill()
}

// Visible returns the x offset of the leading segment and the segments in
// flight, left to right.
func (c *Crawl) Visible() (int, []Segment) {
	return c.firstX, append([]Segment(nil), c.segments...)
}

func (c *Crawl) fill() {
	x := c.firstX
	for _, s := range c.segments {
		x += s.Width
	}
	for x < c.width {
		seg, ok := c.nextSegment()
		if !ok {
			return
		}
		c.segments = append(c.segments, seg)
		x += seg.Width
	}
}

// nextSegment renders the next non-empty slot after the last appended one.
func (c *Crawl) nextSegment() (Segment, bool) {
	n := len(c.entries)
	for i := 0; i < n; i++ {
		slot := (c.next + i) % n
		e := c.entries[slot]
		if e.Text == "" {
			continue
		}
		c.next = (slot + 1) % n
		text := " " + e.Text + " "
		return Segment{Slot: slot, Text: text, FG: e.FG, BG: e.BG, Width: c.measure(text)}, true
	}
	return Segment{}, false
}
