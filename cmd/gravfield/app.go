package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/audio"
	"github.com/lixenwraith/gravfield/clock"
	"github.com/lixenwraith/gravfield/config"
	"github.com/lixenwraith/gravfield/device"
	"github.com/lixenwraith/gravfield/device/soft"
	"github.com/lixenwraith/gravfield/engine"
	"github.com/lixenwraith/gravfield/metrics"
	"github.com/lixenwraith/gravfield/render"
	"github.com/lixenwraith/gravfield/shader"
)

// gravityFactor scales k per +/- key press
const gravityFactor = 1.25

// app is the interactive shell around one engine
// Everything below runs on the frame loop goroutine
type app struct {
	cfg    config.Config
	log    *zap.Logger
	screen tcell.Screen

	device    *soft.Context
	eng       *engine.Engine
	clk       *clock.Clock
	presenter *render.Presenter
	metrics   *metrics.Collector
	feedback  *audio.Feedback
	rng       *rand.Rand

	// Attractor in drawable pixels, origin bottom-left
	attractorX, attractorY float64
	showHUD                bool
}

func newApp(cfg config.Config, log *zap.Logger, screen tcell.Screen, collector *metrics.Collector) (*app, error) {
	cols, rows := screen.Size()
	w, h := render.DrawableSize(cols, rows)

	dev := soft.New(soft.Config{
		Width:          w,
		Height:         h,
		MaxTextureSize: 4096,
		Extensions:     []string{device.ExtColorBufferFloat},
		Workers:        cfg.Workers,
		Library:        shader.NewLibrary(),
		Logger:         log.Named("device"),
	})

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if collector == nil {
		collector = metrics.New()
	}
	collector.Attach(dev)

	a := &app{
		cfg:        cfg,
		log:        log,
		screen:     screen,
		device:     dev,
		clk:        clock.New(cfg.ClockOptions()...),
		presenter:  render.NewPresenter(screen),
		metrics:    collector,
		feedback:   audio.NewFeedback(log.Named("audio"), nil),
		rng:        rand.New(rand.NewSource(seed)),
		attractorX: float64(w) / 2,
		attractorY: float64(h) / 2,
		showHUD:    true,
	}
	if err := a.rebuild(); err != nil {
		return nil, err
	}
	return a, nil
}

// rebuild replaces the engine with a freshly seeded one, keeping the current gravity
func (a *app) rebuild() error {
	gravity := a.cfg.Gravity
	if a.eng != nil {
		gravity = a.eng.GravityStrength()
		a.eng.Close()
		a.eng = nil
	}

	opts := append(a.cfg.EngineOptions(),
		engine.WithGravity(gravity),
		engine.WithRand(a.rng),
		engine.WithLogger(a.log.Named("engine")),
		engine.WithObserver(a.metrics),
	)
	eng, err := engine.New(a.device, a.cfg.Particles, opts...)
	if err != nil {
		return errors.Wrap(err, "create engine")
	}
	a.eng = eng
	a.metrics.SetParticles(eng.ParticleCount())
	return nil
}

// handleEvent applies one input event and reports whether the app should quit
func (a *app) handleEvent(ev tcell.Event) (quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			return a.handleRune(ev.Rune())
		}

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			col, row := ev.Position()
			a.moveAttractor(col, row)
		}

	case *tcell.EventResize:
		cols, rows := ev.Size()
		w, h := render.DrawableSize(cols, rows)
		a.device.Resize(w, h)
		a.attractorX = min(a.attractorX, float64(w))
		a.attractorY = min(a.attractorY, float64(h))
		a.screen.Sync()
		a.log.Debug("resized", zap.Int("width", w), zap.Int("height", h))
	}
	return false
}

func (a *app) handleRune(r rune) (quit bool) {
	switch r {
	case 'q':
		return true
	case ' ':
		paused := a.clk.Toggle()
		a.log.Debug("pause toggled", zap.Bool("paused", paused))
	case 'r':
		if err := a.rebuild(); err != nil {
			a.log.Error("reseed failed", zap.Error(err))
		}
	case '+', '=':
		a.eng.SetGravityStrength(a.eng.GravityStrength() * gravityFactor)
	case '-', '_':
		a.eng.SetGravityStrength(a.eng.GravityStrength() / gravityFactor)
	case 'h':
		a.showHUD = !a.showHUD
	}
	return false
}

// moveAttractor places the attractor at the centre of a terminal cell
func (a *app) moveAttractor(col, row int) {
	_, h := a.device.DrawableSize()
	x, top := render.CellToPixel(col, row, h)
	// The boundary between the cell's two pixels
	a.attractorX = float64(x) + 0.5
	a.attractorY = float64(top)
	a.feedback.PlayMove()
}

// frame steps, renders and presents once; nothing runs while the terminal has no cells
func (a *app) frame() error {
	if w, h := a.device.DrawableSize(); w == 0 || h == 0 {
		return nil
	}
	start := time.Now()

	a.device.BindFramebuffer(nil)
	a.device.ClearColor(0, 0, 0, 1)
	a.device.Clear()

	if dt := a.clk.Tick(); dt > 0 {
		if err := a.eng.Step(dt, a.attractorX, a.attractorY); err != nil {
			return err
		}
	}
	if err := a.eng.Render(); err != nil {
		return err
	}

	a.presenter.Present(a.device)
	if a.showHUD {
		a.presenter.DrawText(0, 0, a.status(), render.RGB{R: 200, G: 200, B: 200}, render.RGBBlack)
	}
	a.presenter.Show()

	a.metrics.Sync()
	a.metrics.ObserveFrame(time.Since(start))
	return nil
}

func (a *app) status() string {
	state := "running"
	if a.clk.IsPaused() {
		state = "paused"
	}
	return fmt.Sprintf(" %d particles  k=%.4f  %s  [space] pause [r] reseed [+/-] gravity [h] hud [q] quit ",
		a.eng.ParticleCount(), a.eng.GravityStrength(), state)
}

// run drives frames at MaxFPS until quit or a device error
func (a *app) run(events <-chan tcell.Event) error {
	ticker := time.NewTicker(time.Second / time.Duration(a.cfg.MaxFPS))
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok || a.handleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			if err := a.frame(); err != nil {
				return err
			}
		}
	}
}

func (a *app) close() {
	if a.eng != nil {
		a.eng.Close()
	}
	a.feedback.Cleanup()
}
