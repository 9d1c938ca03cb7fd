// Package engine runs the GPU-resident particle simulation: one integration
// pass and one point-render pass per frame over device textures, rotating
// three position generations so no pass reads the buffer it writes.
package engine

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/device"
	"github.com/lixenwraith/gravfield/particle"
	"github.com/lixenwraith/gravfield/shader"
	"github.com/lixenwraith/gravfield/vmath"
)

var (
	ErrNoContext            = errors.New("engine: no graphics context")
	ErrInvalidParticleCount = errors.New("engine: particle count must be positive")
	ErrParticleCapacity     = errors.New("engine: particle count exceeds device texture capacity")
	ErrEmptyDrawable        = errors.New("engine: drawable has zero size")
)

// fullscreenVertices is the vertex count of the integration quad
const fullscreenVertices = 6

// Engine owns the particle store and the two kernel programs
// Not safe for concurrent use; Step and Render must be called from the
// goroutine that owns the device context
type Engine struct {
	ctx      device.Context
	log      *zap.Logger
	observer Observer

	store      *particle.Store
	integrate  device.Program
	draw       device.Program
	computeVAO device.VertexArray
	renderVAO  device.VertexArray

	worldScale vmath.Vec2F
	maxRadius  float64
	gravity    float64
	accelCap   float64
	pointSize  float64

	attractor vmath.Vec2F
	steps     uint64
}

// New creates an engine for particleCount particles on ctx
// World scale is fixed from the drawable aspect ratio at this point
func New(ctx device.Context, particleCount int, opts ...Option) (*Engine, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	if particleCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidParticleCount, "got %d", particleCount)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !ctx.Extension(device.ExtColorBufferFloat) {
		return nil, errors.Wrap(device.ErrMissingCapability, device.ExtColorBufferFloat)
	}

	layout := particle.NewLayout(particleCount)
	if layout.Height > ctx.MaxTextureSize() {
		return nil, errors.Wrapf(ErrParticleCapacity, "%d particles need %d rows, device allows %d",
			particleCount, layout.Height, ctx.MaxTextureSize())
	}

	w, h := ctx.DrawableSize()
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(ErrEmptyDrawable, "%dx%d", w, h)
	}

	e := &Engine{
		ctx:        ctx,
		log:        o.log,
		observer:   o.observer,
		worldScale: WorldScale(w, h),
		gravity:    o.gravity,
		accelCap:   o.accelCap,
		pointSize:  o.pointSize,
	}
	e.maxRadius = o.maxRadius
	if e.maxRadius <= 0 {
		e.maxRadius = vmath.V2FMag(e.worldScale)
	}

	var seed particle.Seed
	if o.seed != nil {
		seed = *o.seed
	} else {
		rng := o.rng
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		seed = particle.NewSeed(particleCount, e.maxRadius, o.colorFn, rng)
	}
	if o.spin != 0 {
		seed = seed.WithSpin(o.spin, o.spinDt)
	}

	store, err := particle.NewStore(ctx, layout, seed)
	if err != nil {
		return nil, errors.Wrap(err, "create particle store")
	}
	e.store = store

	if e.integrate, err = e.buildProgram(o.sources.IntegrateVertex, o.sources.IntegrateFragment); err != nil {
		e.Close()
		return nil, errors.Wrap(err, "build integration program")
	}
	if e.draw, err = e.buildProgram(o.sources.RenderVertex, o.sources.RenderFragment); err != nil {
		e.Close()
		return nil, errors.Wrap(err, "build render program")
	}

	e.computeVAO = ctx.NewVertexArray()
	e.renderVAO = ctx.NewVertexArray()
	ctx.BindFramebuffer(nil)

	if err := ctx.Err(); err != nil {
		e.Close()
		return nil, errors.Wrap(err, "device error during construction")
	}

	e.log.Info("engine created",
		zap.Int("particles", particleCount),
		zap.Int("grid_width", layout.Width),
		zap.Int("grid_height", layout.Height),
		zap.Float64("world_x", e.worldScale.X),
		zap.Float64("world_y", e.worldScale.Y),
		zap.Float64("max_radius", e.maxRadius),
		zap.Float64("gravity", e.gravity),
		zap.Float64("accel_cap", e.accelCap),
	)
	return e, nil
}

// buildProgram compiles a kernel pair; any compile or link failure is fatal
func (e *Engine) buildProgram(vs, fs string) (device.Program, error) {
	p, err := e.ctx.NewProgram(vs, fs)
	if err == nil && (p == nil || !p.Linked()) {
		err = &device.CompileError{Stage: device.StageLink, Log: "program not linked"}
	}
	if err != nil {
		log := ""
		if p != nil {
			log = p.InfoLog()
			p.Delete()
		}
		e.log.Error("program build failed",
			zap.String("vertex", vs),
			zap.String("fragment", fs),
			zap.String("info_log", log),
			zap.Error(err),
		)
		return nil, err
	}
	return p, nil
}

// WorldScale returns the visible half-extent per axis: the longer axis spans
// [-1, 1], the shorter is scaled by the inverse aspect ratio
func WorldScale(width, height int) vmath.Vec2F {
	if width >= height {
		return vmath.Vec2F{X: 1, Y: float64(height) / float64(width)}
	}
	return vmath.Vec2F{X: float64(width) / float64(height), Y: 1}
}

// ScreenToWorld maps pixel coordinates with origin bottom-left to world space
// using the current drawable size
func (e *Engine) ScreenToWorld(x, y float64) vmath.Vec2F {
	w, h := e.ctx.DrawableSize()
	uv := vmath.V2FDiv(vmath.Vec2F{X: x, Y: y}, vmath.Vec2F{X: float64(w), Y: float64(h)})
	ndc := vmath.V2FSub(vmath.V2FScale(uv, 2), vmath.Vec2F{X: 1, Y: 1})
	return vmath.V2FMul(ndc, e.worldScale)
}

// Step integrates one generation toward the attractor at screen position (x, y)
// The store only advances when the device accepted the pass
// An empty drawable has no screen mapping, so the step is rejected untouched
func (e *Engine) Step(dt, x, y float64) error {
	if w, h := e.ctx.DrawableSize(); w <= 0 || h <= 0 {
		return errors.Wrapf(ErrEmptyDrawable, "step on %dx%d", w, h)
	}
	e.attractor = e.ScreenToWorld(x, y)

	s := e.store
	s.BindSources(e.ctx)
	s.BindTarget(e.ctx)
	e.ctx.BindVertexArray(e.computeVAO)

	p := e.integrate
	p.Use()
	p.SetInt(shader.UniformPositions, s.Unit(s.Current()))
	p.SetInt(shader.UniformPrevPositions, s.Unit(s.Previous()))
	p.SetInt(shader.UniformNumParticles, int32(s.Layout().Count))
	p.SetVec2(shader.UniformGravityCenter, float32(e.attractor.X), float32(e.attractor.Y))
	p.SetFloat(shader.UniformGravityStrength, float32(e.gravity))
	p.SetFloat(shader.UniformAccelerationCap, float32(e.accelCap))
	p.SetFloat(shader.UniformDt, float32(dt))
	e.ctx.DrawArrays(device.Triangles, 0, fullscreenVertices)

	if err := e.ctx.Err(); err != nil {
		return errors.Wrap(err, "integration pass")
	}

	written := s.TwoStepsBack()
	s.Advance()
	e.steps++
	e.observer.StepCompleted()

	if ce := e.log.Check(zap.DebugLevel, "generation advanced"); ce != nil {
		ce.Write(
			zap.Uint64("step", e.steps),
			zap.Int("written", int(written)),
			zap.Int("current", int(s.Current())),
		)
	}
	return nil
}

// Render draws every particle of the current generation as a point into the
// default drawable; padding cells are never drawn
func (e *Engine) Render() error {
	w, h := e.ctx.DrawableSize()
	e.ctx.BindFramebuffer(nil)
	e.ctx.Viewport(0, 0, w, h)
	e.ctx.BindVertexArray(e.renderVAO)

	s := e.store
	s.BindSources(e.ctx)

	p := e.draw
	p.Use()
	p.SetInt(shader.UniformPositions, s.Unit(s.Current()))
	p.SetInt(shader.UniformColors, particle.ColorUnit)
	p.SetVec2(shader.UniformWorldSize, float32(e.worldScale.X), float32(e.worldScale.Y))
	p.SetFloat(shader.UniformPointSize, float32(e.pointSize))
	e.ctx.DrawArrays(device.Points, 0, s.Layout().Count)

	if err := e.ctx.Err(); err != nil {
		return errors.Wrap(err, "render pass")
	}
	e.observer.FrameRendered()
	return nil
}

// SetGravityStrength changes k for subsequent steps
func (e *Engine) SetGravityStrength(k float64) { e.gravity = k }

// GravityStrength returns the current k
func (e *Engine) GravityStrength() float64 { return e.gravity }

// AccelerationCap returns the acceleration limit
func (e *Engine) AccelerationCap() float64 { return e.accelCap }

// WorldScale returns the half-extent fixed at construction
func (e *Engine) WorldScale() vmath.Vec2F { return e.worldScale }

// MaxRadius returns the seeding disk radius
func (e *Engine) MaxRadius() float64 { return e.maxRadius }

// ParticleCount returns the fixed number of particles
func (e *Engine) ParticleCount() int { return e.store.Layout().Count }

// Attractor returns the world-space attractor used by the last step
func (e *Engine) Attractor() vmath.Vec2F { return e.attractor }

// Steps returns the number of completed steps
func (e *Engine) Steps() uint64 { return e.steps }

// Store exposes the particle store for role queries and host diagnostics
func (e *Engine) Store() *particle.Store { return e.store }

// Close releases all device objects; the engine is unusable afterwards
func (e *Engine) Close() {
	if e.integrate != nil {
		e.integrate.Delete()
		e.integrate = nil
	}
	if e.draw != nil {
		e.draw.Delete()
		e.draw = nil
	}
	if e.computeVAO != nil {
		e.computeVAO.Delete()
		e.computeVAO = nil
	}
	if e.renderVAO != nil {
		e.renderVAO.Delete()
		e.renderVAO = nil
	}
	if e.store != nil {
		e.store.Delete()
	}
}
