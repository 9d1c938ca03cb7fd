// Package shader holds the computational kernels run by the simulation:
// the per-particle integration pass and the particle point renderer.
// Kernels are registered into a soft.Library under the source names below.
package shader

import (
	"github.com/lixenwraith/gravfield/device"
	"github.com/lixenwraith/gravfield/device/soft"
	"github.com/lixenwraith/gravfield/particle"
	"github.com/lixenwraith/gravfield/physics"
	"github.com/lixenwraith/gravfield/vmath"
)

// Source names passed to device.Context.NewProgram
const (
	FullscreenVertex  = "fullscreen.vert"
	IntegrateFragment = "integrate.frag"
	ParticleVertex    = "particle.vert"
	ParticleFragment  = "particle.frag"
)

// Uniform names shared with the engine
const (
	UniformPositions       = "particlePositions"
	UniformPrevPositions   = "particlePrevPositions"
	UniformNumParticles    = "numParticles"
	UniformGravityCenter   = "gravityCenter"
	UniformGravityStrength = "gravityStrength"
	UniformAccelerationCap = "accelerationCap"
	UniformDt              = "dt"
	UniformColors          = "particleColors"
	UniformWorldSize       = "worldSize"
	UniformPointSize       = "pointSize"
)

// fullscreen is two triangles covering clip space
var fullscreen = [6][2]float32{
	{-1, -1}, {-1, 1}, {1, 1},
	{-1, -1}, {1, -1}, {1, 1},
}

// NewLibrary returns a library with all simulation kernels registered
func NewLibrary() *soft.Library {
	lib := soft.NewLibrary()
	Register(lib)
	return lib
}

// Register adds the simulation kernels to lib
func Register(lib *soft.Library) {
	lib.RegisterVertex(FullscreenVertex, soft.VertexKernel{
		Main: fullscreenMain,
	})

	lib.RegisterFragment(IntegrateFragment, soft.FragmentKernel{
		Uniforms: map[string]device.UniformKind{
			UniformNumParticles:    device.UniformInt,
			UniformGravityCenter:   device.UniformVec2,
			UniformGravityStrength: device.UniformFloat,
			UniformAccelerationCap: device.UniformFloat,
			UniformDt:              device.UniformFloat,
		},
		Samplers: []string{UniformPositions, UniformPrevPositions},
		Main:     integrateMain,
	})

	lib.RegisterVertex(ParticleVertex, soft.VertexKernel{
		Uniforms: map[string]device.UniformKind{
			UniformWorldSize: device.UniformVec2,
			UniformPointSize: device.UniformFloat,
		},
		Samplers: []string{UniformPositions, UniformColors},
		Varyings: 3,
		Main:     particleVertexMain,
	})

	lib.RegisterFragment(ParticleFragment, soft.FragmentKernel{
		Varyings: 3,
		Main:     particleFragmentMain,
	})
}

func fullscreenMain(_ *soft.Env, in soft.VertexIn, out *soft.VertexOut) {
	v := fullscreen[in.VertexID%len(fullscreen)]
	out.Position = [4]float32{v[0], v[1], 0, 1}
}

// integrateMain advances the particle stored at this fragment's texel
func integrateMain(env *soft.Env, in soft.FragmentIn) [4]float32 {
	x, y := int(in.FragCoord[0]), int(in.FragCoord[1])
	cur := env.TexelFetch(UniformPositions, x, y)
	prev := env.TexelFetch(UniformPrevPositions, x, y)

	cx, cy := env.Vec2(UniformGravityCenter)
	field := physics.Field{
		Center:   vmath.Vec2F{X: float64(cx), Y: float64(cy)},
		Strength: float64(env.Float(UniformGravityStrength)),
		Cap:      float64(env.Float(UniformAccelerationCap)),
	}

	next := field.Advance(
		vmath.Vec2F{X: float64(cur[0]), Y: float64(cur[1])},
		vmath.Vec2F{X: float64(prev[0]), Y: float64(prev[1])},
		float64(env.Float(UniformDt)),
	)
	return [4]float32{float32(next.X), float32(next.Y), 0, 1}
}

// particleVertexMain projects particle VertexID to clip space and forwards its color
func particleVertexMain(env *soft.Env, in soft.VertexIn, out *soft.VertexOut) {
	ix, iy := particle.Cell(in.VertexID)
	pos := env.TexelFetch(UniformPositions, ix, iy)
	col := env.TexelFetch(UniformColors, ix, iy)
	wx, wy := env.Vec2(UniformWorldSize)

	out.Position = [4]float32{pos[0] / wx, pos[1] / wy, 0, 1}
	out.PointSize = env.Float(UniformPointSize)
	out.Varyings[0], out.Varyings[1], out.Varyings[2] = col[0], col[1], col[2]
}

func particleFragmentMain(_ *soft.Env, in soft.FragmentIn) [4]float32 {
	return [4]float32{in.Varyings[0], in.Varyings[1], in.Varyings[2], 1}
}
