package display

import (
	"image"
	"testing"

	"qsoview/render"
)

func art(slot int) *render.Artifact {
	return &render.Artifact{Slot: slot, Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}
}

func TestRotatorAllEmptyStaysOnLogo(t *testing.T) {
	r := NewRotator(10, 0, 1)
	for i := 0; i < 5; i++ {
		r.Tick()
	}
	r.Next()
	r.Prev()
	if cur, a := r.Current(); cur != 0 || a != nil {
		t.Fatalf("expected to remain on empty logo slot, got %d", cur)
	}
}

func TestRotatorSkipsEmptySlotsAndWraps(t *testing.T) {
	r := NewRotator(10, 0, 2)
	r.Set(art(0))
	r.Set(art(3))
	r.Set(art(8))

	var visited []int
	for i := 0; i < 8; i++ {
		if r.Tick() {
			cur, _ := r.Current()
			visited = append(visited, cur)
		}
	}
	want := []int{3, 8, 0, 3}
	if len(visited) != len(want) {
		t.Fatalf("expected visits %v, got %v", want, visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("expected visits %v, got %v", want, visited)
		}
	}
}

func TestRotatorManualStepResetsDwell(t *testing.T) {
	r := NewRotator(10, 0, 3)
	r.Set(art(0))
	r.Set(art(2))
	r.Set(art(9))

	r.Tick()
	r.Tick()
	r.Prev()
	if cur, _ := r.Current(); cur != 9 {
		t.Fatalf("expected previous to wrap to slot 9, got %d", cur)
	}
	if r.State().TicksLeft != 3 {
		t.Fatalf("expected dwell reset, got %d", r.State().TicksLeft)
	}
	r.Next()
	if cur, _ := r.Current(); cur != 0 {
		t.Fatalf("expected next to wrap to slot 0, got %d", cur)
	}
}

func TestRotatorPause(t *testing.T) {
	r := NewRotator(10, 0, 1)
	r.Set(art(0))
	r.Set(art(1))
	if !r.TogglePause() {
		t.Fatalf("expected paused")
	}
	for i := 0; i < 5; i++ {
		if r.Tick() {
			t.Fatalf("paused rotator advanced")
		}
	}
	// Manual navigation still works while paused.
	r.Next()
	if cur, _ := r.Current(); cur != 1 {
		t.Fatalf("expected manual next while paused, got %d", cur)
	}
	if r.TogglePause() {
		t.Fatalf("expected resumed")
	}
	if cur, _ := r.Current(); cur != 1 {
		t.Fatalf("resume must hold the current slot, got %d", cur)
	}
	if !r.Tick() {
		t.Fatalf("expected rotation after resume dwell")
	}
}

func TestRotatorSetIgnoresInvalid(t *testing.T) {
	r := NewRotator(10, 0, 1)
	if r.Set(nil) || r.Set(&render.Artifact{Slot: 2}) || r.Set(art(10)) || r.Set(art(-1)) {
		t.Fatalf("expected invalid artifacts to be ignored")
	}
	r.Set(art(4))
	keep := r.Slot(4)
	r.Set(nil)
	if r.Slot(4) != keep {
		t.Fatalf("expected last good artifact retained")
	}
}
