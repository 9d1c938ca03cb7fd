package main

import (
	"math"
	"testing"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/config"
	"github.com/lixenwraith/gravfield/engine"
	"github.com/lixenwraith/gravfield/render"
)

func newTestApp(t *testing.T) (*app, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Screen init failed: %v", err)
	}
	screen.SetSize(20, 10)
	t.Cleanup(screen.Fini)

	cfg := config.Default()
	cfg.Particles = 64
	cfg.Seed = 1
	cfg.Workers = 2

	a, err := newApp(cfg, zap.NewNop(), screen, nil)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	t.Cleanup(a.close)
	return a, screen
}

func TestAppStartsCentered(t *testing.T) {
	a, _ := newTestApp(t)
	if w, h := a.device.DrawableSize(); w != 20 || h != 20 {
		t.Fatalf("Expected 20x20 drawable, got %dx%d", w, h)
	}
	if a.attractorX != 10 || a.attractorY != 10 {
		t.Errorf("Expected attractor at (10, 10), got (%f, %f)", a.attractorX, a.attractorY)
	}
	if a.eng.ParticleCount() != 64 {
		t.Errorf("Expected 64 particles, got %d", a.eng.ParticleCount())
	}
}

func TestMouseMovesAttractor(t *testing.T) {
	a, _ := newTestApp(t)

	a.handleEvent(tcell.NewEventMouse(3, 0, tcell.Button1, tcell.ModNone))
	if a.attractorX != 3.5 || a.attractorY != 19 {
		t.Errorf("Expected attractor at (3.5, 19), got (%f, %f)", a.attractorX, a.attractorY)
	}

	// Motion without a button held leaves it in place
	a.handleEvent(tcell.NewEventMouse(10, 5, tcell.ButtonNone, tcell.ModNone))
	if a.attractorX != 3.5 || a.attractorY != 19 {
		t.Errorf("Expected attractor unchanged, got (%f, %f)", a.attractorX, a.attractorY)
	}

	if err := a.frame(); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	want := a.eng.ScreenToWorld(3.5, 19)
	if a.eng.Attractor() != want {
		t.Errorf("Expected engine attractor %+v, got %+v", want, a.eng.Attractor())
	}
}

func TestQuitKeys(t *testing.T) {
	a, _ := newTestApp(t)
	tests := []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl),
	}
	for _, ev := range tests {
		if !a.handleEvent(ev) {
			t.Errorf("Expected %v to quit", ev.Name())
		}
	}
	if a.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("Expected unbound key to be ignored")
	}
}

func TestPauseSkipsSteps(t *testing.T) {
	a, _ := newTestApp(t)

	if err := a.frame(); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if a.eng.Steps() != 1 {
		t.Fatalf("Expected 1 step, got %d", a.eng.Steps())
	}

	a.handleEvent(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	for i := 0; i < 3; i++ {
		if err := a.frame(); err != nil {
			t.Fatalf("Frame failed: %v", err)
		}
	}
	if a.eng.Steps() != 1 {
		t.Errorf("Expected no steps while paused, got %d", a.eng.Steps())
	}

	a.handleEvent(tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone))
	if err := a.frame(); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}
	if a.eng.Steps() != 2 {
		t.Errorf("Expected stepping to resume, got %d steps", a.eng.Steps())
	}
}

func TestGravityKeysAndReseed(t *testing.T) {
	a, _ := newTestApp(t)

	a.handleEvent(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone))
	want := engine.DefaultGravityStrength * gravityFactor
	if got := a.eng.GravityStrength(); got != want {
		t.Errorf("Expected gravity %f, got %f", want, got)
	}

	old := a.eng
	a.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	if a.eng == old {
		t.Fatal("Expected reseed to rebuild the engine")
	}
	if a.eng.GravityStrength() != want {
		t.Errorf("Expected gravity to survive reseed, got %f", a.eng.GravityStrength())
	}

	a.handleEvent(tcell.NewEventKey(tcell.KeyRune, '-', tcell.ModNone))
	if got := a.eng.GravityStrength(); math.Abs(got-engine.DefaultGravityStrength) > 1e-15 {
		t.Errorf("Expected gravity back to default, got %f", got)
	}
}

func TestFramePresentsParticles(t *testing.T) {
	a, screen := newTestApp(t)
	a.showHUD = false

	if err := a.frame(); err != nil {
		t.Fatalf("Frame failed: %v", err)
	}

	lit := 0
	cols, rows := screen.Size()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			mainc, _, style, _ := screen.GetContent(col, row)
			if mainc != render.HalfBlock {
				t.Fatalf("Cell (%d, %d): expected half block, got %q", col, row, mainc)
			}
			fg, bg, _ := style.Decompose()
			if render.TcellToRGB(fg) != render.RGBBlack || render.TcellToRGB(bg) != render.RGBBlack {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("Expected some cells to show particles")
	}
}

func TestEmptyTerminalSkipsFrames(t *testing.T) {
	a, _ := newTestApp(t)

	a.handleEvent(tcell.NewEventResize(0, 0))
	for i := 0; i < 3; i++ {
		if err := a.frame(); err != nil {
			t.Fatalf("Frame on empty terminal failed: %v", err)
		}
	}
	if a.eng.Steps() != 0 {
		t.Errorf("Expected no steps while empty, got %d", a.eng.Steps())
	}

	a.handleEvent(tcell.NewEventResize(20, 10))
	if err := a.frame(); err != nil {
		t.Fatalf("Frame after restore failed: %v", err)
	}
	if a.eng.Steps() != 1 {
		t.Errorf("Expected stepping to resume, got %d steps", a.eng.Steps())
	}
}

func TestResizeUpdatesDrawable(t *testing.T) {
	a, screen := newTestApp(t)
	scale := a.eng.WorldScale()

	screen.SetSize(30, 5)
	a.handleEvent(tcell.NewEventResize(30, 5))
	if w, h := a.device.DrawableSize(); w != 30 || h != 10 {
		t.Errorf("Expected 30x10 drawable, got %dx%d", w, h)
	}
	if a.attractorY > 10 {
		t.Errorf("Expected attractor clamped inside drawable, got y=%f", a.attractorY)
	}
	if a.eng.WorldScale() != scale {
		t.Error("Expected world scale fixed across resize")
	}
	if err := a.frame(); err != nil {
		t.Fatalf("Frame after resize failed: %v", err)
	}
}
