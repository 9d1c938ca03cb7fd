package clock

import (
	"math"
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFixedTick(t *testing.T) {
	src := NewMockTimeSource(epoch)
	c := New(Fixed(0.02), WithTimeSource(src))

	for i := 0; i < 5; i++ {
		src.Advance(time.Duration(i+1) * 7 * time.Millisecond)
		if dt := c.Tick(); dt != 0.02 {
			t.Errorf("Tick %d: expected 0.02, got %f", i, dt)
		}
	}
	if c.Mode() != ModeFixed {
		t.Errorf("Expected fixed mode, got %s", c.Mode())
	}
}

func TestDefaultTimestep(t *testing.T) {
	c := New(WithTimeSource(NewMockTimeSource(epoch)))
	if dt := c.Tick(); dt != DefaultTimestep {
		t.Errorf("Expected %f, got %f", DefaultTimestep, dt)
	}
}

func TestVariableTickClamped(t *testing.T) {
	src := NewMockTimeSource(epoch)
	c := New(Variable(0.05), WithTimeSource(src))

	src.Advance(10 * time.Millisecond)
	if dt := c.Tick(); math.Abs(dt-0.01) > 1e-12 {
		t.Errorf("Expected 0.01, got %f", dt)
	}

	// A stall longer than maxDt is clamped
	src.Advance(2 * time.Second)
	if dt := c.Tick(); dt != 0.05 {
		t.Errorf("Expected clamp to 0.05, got %f", dt)
	}

	// Time going backwards yields no step
	src.Set(epoch)
	if dt := c.Tick(); dt != 0 {
		t.Errorf("Expected 0 after backwards jump, got %f", dt)
	}
}

func TestPausedTickReturnsZero(t *testing.T) {
	src := NewMockTimeSource(epoch)
	c := New(Variable(1), WithTimeSource(src))

	c.Pause()
	if !c.IsPaused() {
		t.Fatal("Expected clock to be paused")
	}
	src.Advance(300 * time.Millisecond)
	if dt := c.Tick(); dt != 0 {
		t.Errorf("Expected 0 while paused, got %f", dt)
	}

	c.Resume()
	src.Advance(20 * time.Millisecond)
	// Time spent paused must not leak into the first tick after resume
	if dt := c.Tick(); math.Abs(dt-0.02) > 1e-12 {
		t.Errorf("Expected 0.02 after resume, got %f", dt)
	}

	fixed := New(WithTimeSource(src))
	fixed.Pause()
	if dt := fixed.Tick(); dt != 0 {
		t.Errorf("Expected fixed clock to return 0 while paused, got %f", dt)
	}
}

func TestPauseAccounting(t *testing.T) {
	src := NewMockTimeSource(epoch)
	c := New(WithTimeSource(src))

	c.Pause()
	c.Pause() // Idempotent
	src.Advance(time.Second)
	if got := c.TotalPaused(); got != time.Second {
		t.Errorf("Expected 1s in-progress pause, got %v", got)
	}
	c.Resume()
	c.Resume()
	src.Advance(time.Second)

	if !c.Toggle() {
		t.Error("Expected Toggle to pause")
	}
	src.Advance(500 * time.Millisecond)
	if c.Toggle() {
		t.Error("Expected Toggle to resume")
	}

	if got := c.TotalPaused(); got != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s total pause, got %v", got)
	}
}

func TestConcurrentPauseToggle(t *testing.T) {
	c := New(WithTimeSource(NewMockTimeSource(epoch)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Toggle()
				_ = c.Tick()
				_ = c.TotalPaused()
			}
		}()
	}
	wg.Wait()
}

func TestMockTimeSource(t *testing.T) {
	src := NewMockTimeSource(epoch)
	if !src.Now().Equal(epoch) {
		t.Errorf("Expected %v, got %v", epoch, src.Now())
	}
	src.Advance(time.Hour)
	if want := epoch.Add(time.Hour); !src.Now().Equal(want) {
		t.Errorf("Expected %v, got %v", want, src.Now())
	}
}
