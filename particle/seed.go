package particle

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"

	"github.com/lixenwraith/gravfield/physics"
	"github.com/lixenwraith/gravfield/vmath"
)

var ErrSeedMismatch = errors.New("particle: seed does not match particle count")

// Rand is the random source used for seeding; *rand.Rand satisfies it
type Rand interface {
	Float64() float64
}

// ColorFunc assigns a color from the particle's initial distance to the origin
type ColorFunc func(radius float64) colorful.Color

// HSVColor returns a ColorFunc with hue = radius*hueScale + hueOffset in turns,
// wrapped to [0, 1)
func HSVColor(hueScale, hueOffset, saturation, value float64) ColorFunc {
	return func(radius float64) colorful.Color {
		hue := radius*hueScale + hueOffset
		hue -= math.Floor(hue)
		return colorful.Hsv(hue*360, saturation, value)
	}
}

// DefaultColor runs from violet at the center through magenta and red to yellow at the rim
var DefaultColor = HSVColor(0.5, 0.7, 0.7, 1)

// Seed is the initial particle state uploaded to a Store
// Previous nil means every particle starts at rest
type Seed struct {
	Positions []vmath.Vec2F
	Previous  []vmath.Vec2F
	Colors    []colorful.Color
}

// NewSeed places count particles uniformly by area inside a disk of maxRadius
// The radius is drawn before the angle for every particle
func NewSeed(count int, maxRadius float64, colorFn ColorFunc, rng Rand) Seed {
	if colorFn == nil {
		colorFn = DefaultColor
	}
	s := Seed{
		Positions: make([]vmath.Vec2F, count),
		Colors:    make([]colorful.Color, count),
	}
	for i := 0; i < count; i++ {
		r := math.Sqrt(rng.Float64()) * maxRadius
		theta := rng.Float64() * 2 * math.Pi
		s.Positions[i] = vmath.V2FPolar(r, theta)
		s.Colors[i] = colorFn(r)
	}
	return s
}

// WithSpin returns a copy whose previous generation gives every particle a
// counter-clockwise angular velocity of omega around the origin
func (s Seed) WithSpin(omega, dt float64) Seed {
	out := s
	out.Previous = make([]vmath.Vec2F, len(s.Positions))
	for i, p := range s.Positions {
		out.Previous[i] = physics.SpinPrevious(p, omega, dt)
	}
	return out
}

// Validate checks that the seed covers exactly count particles
func (s Seed) Validate(count int) error {
	if len(s.Positions) != count {
		return errors.Wrapf(ErrSeedMismatch, "%d positions for %d particles", len(s.Positions), count)
	}
	if len(s.Colors) != count {
		return errors.Wrapf(ErrSeedMismatch, "%d colors for %d particles", len(s.Colors), count)
	}
	if s.Previous != nil && len(s.Previous) != count {
		return errors.Wrapf(ErrSeedMismatch, "%d previous positions for %d particles", len(s.Previous), count)
	}
	return nil
}

// pack encodes the seed as RGBA32F texel buffers sized to the layout
// Padding cells stay zero
func (s Seed) pack(l Layout) (cur, prev, colors []float32) {
	cur = make([]float32, l.Floats())
	prev = make([]float32, l.Floats())
	colors = make([]float32, l.Floats())

	for i := 0; i < l.Count; i++ {
		p := s.Positions[i]
		q := p
		if s.Previous != nil {
			q = s.Previous[i]
		}
		c := s.Colors[i]

		cur[4*i], cur[4*i+1] = float32(p.X), float32(p.Y)
		prev[4*i], prev[4*i+1] = float32(q.X), float32(q.Y)
		colors[4*i], colors[4*i+1], colors[4*i+2] = float32(c.R), float32(c.G), float32(c.B)
	}
	return cur, prev, colors
}
