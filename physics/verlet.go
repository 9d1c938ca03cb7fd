package physics

import (
	"github.com/lixenwraith/gravfield/vmath"
)

// Field is the single attractor acting on every particle
type Field struct {
	Center   vmath.Vec2F
	Strength float64 // k in a = k * delta / |delta|^2
	Cap      float64 // Hard limit on |a|
}

// Acceleration returns the inverse-square pull toward Center, clamped to Cap
// At zero distance the result is NaN: there is no softening term and the cap
// cannot pick a direction for a zero vector
func (f Field) Acceleration(p vmath.Vec2F) vmath.Vec2F {
	delta := vmath.V2FSub(f.Center, p)
	a := vmath.V2FScale(delta, f.Strength/vmath.V2FMagSq(delta))
	if vmath.V2FMagSq(a) > f.Cap*f.Cap {
		a = vmath.V2FScale(vmath.V2FNormalize(a), f.Cap)
	}
	return a
}

// Advance computes the next position from the current and previous ones
func (f Field) Advance(p, prev vmath.Vec2F, dt float64) vmath.Vec2F {
	return VerletStep(p, prev, f.Acceleration(p), dt)
}

// VerletStep performs position-only Störmer-Verlet: p' = 2p - prev + a*dt²
// Velocity is implicit in p - prev
func VerletStep(p, prev, a vmath.Vec2F, dt float64) vmath.Vec2F {
	return vmath.Vec2F{
		X: 2*p.X - prev.X + a.X*dt*dt,
		Y: 2*p.Y - prev.Y + a.Y*dt*dt,
	}
}

// SpinPrevious returns a previous position that gives p a tangential velocity
// of omega radians per second around the origin
func SpinPrevious(p vmath.Vec2F, omega, dt float64) vmath.Vec2F {
	if omega == 0 {
		return p
	}
	return vmath.V2FRotate(p, -omega*dt)
}

// ImplicitVelocity recovers velocity from two consecutive generations
func ImplicitVelocity(p, prev vmath.Vec2F, dt float64) vmath.Vec2F {
	if dt == 0 {
		return vmath.Vec2F{}
	}
	return vmath.V2FScale(vmath.V2FSub(p, prev), 1/dt)
}
