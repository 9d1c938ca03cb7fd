package soft

import (
	"sync"

	"github.com/lixenwraith/gravfield/device"
)

const (
	// MaxVaryings is the number of float32 values passed from vertex to fragment stage
	MaxVaryings = 8
	// MaxTextureUnits is the number of simultaneously bound sampler units
	MaxTextureUnits = 16
)

// VertexIn is the per-invocation input of a vertex kernel
type VertexIn struct {
	VertexID int
}

// VertexOut is written by a vertex kernel; Position is in clip space
type VertexOut struct {
	Position  [4]float32
	PointSize float32
	Varyings  [MaxVaryings]float32
}

// FragmentIn is the per-invocation input of a fragment kernel
// FragCoord holds window coordinates of the pixel center
type FragmentIn struct {
	FragCoord [2]float32
	Varyings  [MaxVaryings]float32
}

// VertexKernel is a compiled vertex stage
type VertexKernel struct {
	Uniforms map[string]device.UniformKind
	Samplers []string // int uniforms naming texture units
	Varyings int      // number of varyings written
	Main     func(env *Env, in VertexIn, out *VertexOut)
}

// FragmentKernel is a compiled fragment stage
type FragmentKernel struct {
	Uniforms map[string]device.UniformKind
	Samplers []string
	Varyings int // number of varyings read
	Main     func(env *Env, in FragmentIn) [4]float32
}

// Library resolves kernel source names to kernels at compile time
type Library struct {
	mu       sync.RWMutex
	vertex   map[string]*VertexKernel
	fragment map[string]*FragmentKernel
}

// NewLibrary creates an empty kernel library
func NewLibrary() *Library {
	return &Library{
		vertex:   make(map[string]*VertexKernel),
		fragment: make(map[string]*FragmentKernel),
	}
}

// RegisterVertex adds or replaces a vertex kernel under source name
func (l *Library) RegisterVertex(source string, k VertexKernel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vertex[source] = &k
}

// RegisterFragment adds or replaces a fragment kernel under source name
func (l *Library) RegisterFragment(source string, k FragmentKernel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fragment[source] = &k
}

func (l *Library) lookupVertex(source string) (*VertexKernel, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	k, ok := l.vertex[source]
	return k, ok
}

func (l *Library) lookupFragment(source string) (*FragmentKernel, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	k, ok := l.fragment[source]
	return k, ok
}

// Env gives kernels read access to uniforms and bound textures for one draw
// Shared by all invocations of the draw, must stay read-only inside kernels
type Env struct {
	uniforms map[string]*uniformValue
	units    [MaxTextureUnits]*texture
}

// Float returns a float uniform, zero if unknown
func (e *Env) Float(name string) float32 {
	if u, ok := e.uniforms[name]; ok {
		return u.f[0]
	}
	return 0
}

// Int returns an int uniform, zero if unknown
func (e *Env) Int(name string) int32 {
	if u, ok := e.uniforms[name]; ok {
		return u.i[0]
	}
	return 0
}

// UInt returns a uint uniform, zero if unknown
func (e *Env) UInt(name string) uint32 {
	if u, ok := e.uniforms[name]; ok {
		return u.u[0]
	}
	return 0
}

// Vec2 returns a vec2 uniform
func (e *Env) Vec2(name string) (x, y float32) {
	if u, ok := e.uniforms[name]; ok {
		return u.f[0], u.f[1]
	}
	return 0, 0
}

// Vec3 returns a vec3 uniform
func (e *Env) Vec3(name string) (x, y, z float32) {
	if u, ok := e.uniforms[name]; ok {
		return u.f[0], u.f[1], u.f[2]
	}
	return 0, 0, 0
}

// Vec4 returns a vec4 uniform
func (e *Env) Vec4(name string) (x, y, z, w float32) {
	if u, ok := e.uniforms[name]; ok {
		return u.f[0], u.f[1], u.f[2], u.f[3]
	}
	return 0, 0, 0, 0
}

// Mat4 returns a mat4 uniform in column-major order
func (e *Env) Mat4(name string) device.Mat4 {
	var m device.Mat4
	if u, ok := e.uniforms[name]; ok {
		copy(m[:], u.f[:16])
	}
	return m
}

// TexelFetch reads texel (x, y) from the texture on the unit named by sampler
// Unbound units and out-of-range coordinates read as zero
func (e *Env) TexelFetch(sampler string, x, y int) [4]float32 {
	u, ok := e.uniforms[sampler]
	if !ok {
		return [4]float32{}
	}
	unit := int(u.i[0])
	if unit < 0 || unit >= MaxTextureUnits {
		return [4]float32{}
	}
	tex := e.units[unit]
	if tex == nil {
		return [4]float32{}
	}
	return tex.fetch(x, y)
}
