// Package pipeline carries rendered artifacts and ticker updates from the
// worker to the display loop.
package pipeline

import (
	"image/color"
	"sync"

	"qsoview/render"
)

// Message is either an ImageMessage or a CrawlMessage.
type Message interface {
	isMessage()
}

// ImageMessage replaces the artifact held in Artifact.Slot.
type ImageMessage struct {
	Artifact *render.Artifact
}

// CrawlMessage replaces one ticker entry. An empty Text clears the slot.
type CrawlMessage struct {
	Slot int
	Text string
	FG   color.RGBA
	BG   color.RGBA
}

func (ImageMessage) isMessage() {}
func (CrawlMessage) isMessage() {}

// Publisher accepts messages without blocking the caller.
type Publisher interface {
	Publish(Message)
}

// Queue is an unbounded FIFO. Publish never blocks; Drain never waits.
type Queue struct {
	mu    sync.Mutex
	items []Message
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Publish appends m.
func (q *Queue) Publish(m Message) {
	if m == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain removes and returns everything queued, in publish order. It returns
// nil immediately when the queue is empty.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Fanout publishes every message to each sink in order.
type Fanout []Publisher

// Publish forwards m to every non-nil sink.
func (f Fanout) Publish(m Message) {
	for _, p := range f {
		if p != nil {
			p.Publish(m)
		}
	}
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Message)

// Publish calls f(m).
func (f PublisherFunc) Publish(m Message) { f(m) }
