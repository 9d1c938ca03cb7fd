package engine

import (
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/particle"
	"github.com/lixenwraith/gravfield/shader"
)

// Simulation defaults from the reference tuning
const (
	DefaultGravityStrength = 0.05
	DefaultAccelerationCap = 0.1
	DefaultPointSize       = 1.0
	DefaultSpinTimestep    = 1.0 / 60
)

// Observer receives per-frame notifications, e.g. a metrics collector
type Observer interface {
	StepCompleted()
	FrameRendered()
}

type noopObserver struct{}

func (noopObserver) StepCompleted() {}
func (noopObserver) FrameRendered() {}

// Sources names the kernel pairs compiled at construction
type Sources struct {
	IntegrateVertex   string
	IntegrateFragment string
	RenderVertex      string
	RenderFragment    string
}

// DefaultSources returns the kernels registered by package shader
func DefaultSources() Sources {
	return Sources{
		IntegrateVertex:   shader.FullscreenVertex,
		IntegrateFragment: shader.IntegrateFragment,
		RenderVertex:      shader.ParticleVertex,
		RenderFragment:    shader.ParticleFragment,
	}
}

type options struct {
	rng       particle.Rand
	colorFn   particle.ColorFunc
	seed      *particle.Seed
	gravity   float64
	accelCap  float64
	maxRadius float64
	pointSize float64
	spin      float64
	spinDt    float64
	sources   Sources
	log       *zap.Logger
	observer  Observer
}

func defaultOptions() options {
	return options{
		colorFn:   particle.DefaultColor,
		gravity:   DefaultGravityStrength,
		accelCap:  DefaultAccelerationCap,
		pointSize: DefaultPointSize,
		spinDt:    DefaultSpinTimestep,
		sources:   DefaultSources(),
		log:       zap.NewNop(),
		observer:  noopObserver{},
	}
}

// Option configures an Engine at construction
type Option func(*options)

// WithRand sets the random source used for seeding positions
func WithRand(rng particle.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithColorFunc sets the radius-to-color mapping
func WithColorFunc(fn particle.ColorFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.colorFn = fn
		}
	}
}

// WithSeed supplies the full initial state, bypassing random seeding
func WithSeed(seed particle.Seed) Option {
	return func(o *options) { o.seed = &seed }
}

// WithGravity sets the attractor strength k
func WithGravity(k float64) Option {
	return func(o *options) { o.gravity = k }
}

// WithAccelerationCap sets the hard limit on acceleration magnitude
func WithAccelerationCap(a float64) Option {
	return func(o *options) { o.accelCap = a }
}

// WithMaxRadius overrides the seeding disk radius, default is the world half-diagonal
func WithMaxRadius(r float64) Option {
	return func(o *options) { o.maxRadius = r }
}

// WithPointSize sets the rendered point size in pixels
func WithPointSize(px float64) Option {
	return func(o *options) { o.pointSize = px }
}

// WithSpin starts particles orbiting the origin at omega rad/s, for a simulation
// stepped at dt
func WithSpin(omega, dt float64) Option {
	return func(o *options) {
		o.spin = omega
		if dt > 0 {
			o.spinDt = dt
		}
	}
}

// WithSources overrides the kernel source names
func WithSources(s Sources) Option {
	return func(o *options) { o.sources = s }
}

// WithLogger sets the engine logger
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithObserver registers per-frame callbacks
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
