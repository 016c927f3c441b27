package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"qsoview/display"
)

// SlideshowOptions configures the terminal surface.
type SlideshowOptions struct {
	TargetFPS int
	Logf      func(format string, args ...any)
}

// Slideshow is the full-screen terminal surface built on tview.
type Slideshow struct {
	app   *tview.Application
	loop  *display.Loop
	view  *slideView
	sched *tickScheduler
	logf  func(format string, args ...any)

	// slides counts rotations; touched only on the tview goroutine.
	slides int

	readyOnce sync.Once
	ready     chan struct{}
	stopOnce  sync.Once
}

func NewSlideshow(loop *display.Loop, opts SlideshowOptions) *Slideshow {
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	s := &Slideshow{
		app:   tview.NewApplication(),
		loop:  loop,
		logf:  logf,
		ready: make(chan struct{}),
	}
	s.view = newSlideView(loop)
	s.sched = newTickScheduler(func(fn func()) { s.app.QueueUpdateDraw(fn) }, opts.TargetFPS, s.tick)
	s.app.SetRoot(s.view, true)
	s.app.SetInputCapture(s.handleKey)
	s.app.SetBeforeDrawFunc(func(tcell.Screen) bool {
		s.readyOnce.Do(func() { close(s.ready) })
		return false
	})
	return s
}

// Run starts the tick scheduler and blocks in the tview event loop. A
// cancelled ctx stops the application.
func (s *Slideshow) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}()
	go func() {
		<-s.ready
		s.sched.Start()
	}()
	err := s.app.Run()
	s.sched.Stop()
	s.logf("UI: slides=%d %s draw %s", s.slides, s.sched.summary(), s.view.draws)
	if err != nil {
		return fmt.Errorf("ui: terminal: %w", err)
	}
	return nil
}

func (s *Slideshow) Stop() {
	s.stopOnce.Do(func() { s.app.Stop() })
}

// tick runs on the tview goroutine via QueueUpdateDraw.
func (s *Slideshow) tick(now time.Time) {
	before, _ := s.loop.Rotator().Current()
	if s.loop.Tick(now) {
		s.Stop()
		return
	}
	if after, _ := s.loop.Rotator().Current(); after != before {
		s.slides++
	}
}

func (s *Slideshow) handleKey(event *tcell.EventKey) *tcell.EventKey {
	action := KeyAction(event)
	switch action {
	case display.ActionNone:
		return event
	case display.ActionQuit:
		s.Stop()
	default:
		s.loop.Queue(action)
	}
	return nil
}

// KeyAction maps a terminal key to a display action.
func KeyAction(event *tcell.EventKey) display.Action {
	if event == nil {
		return display.ActionNone
	}
	switch event.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return display.ActionQuit
	case tcell.KeyRight:
		return display.ActionNext
	case tcell.KeyLeft:
		return display.ActionPrev
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q', 'Q':
			return display.ActionQuit
		case 'n', 'N':
			return display.ActionNext
		case 'p', 'P':
			return display.ActionPrev
		case ' ', 's', 'S':
			return display.ActionTogglePause
		}
	}
	return display.ActionNone
}
