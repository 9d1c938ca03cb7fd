// Package device defines the graphics capability the simulation core depends on.
// Particle state lives in device-resident textures; the core only allocates them,
// binds them as read sources or write targets, and runs kernel programs over them.
package device

// Format describes the per-texel layout of a texture
type Format uint8

const (
	// FormatRGBA32F stores four float32 channels per texel
	FormatRGBA32F Format = iota
)

// Channels returns the number of float32 values per texel
func (f Format) Channels() int {
	switch f {
	case FormatRGBA32F:
		return 4
	default:
		return 0
	}
}

// String implements fmt.Stringer
func (f Format) String() string {
	switch f {
	case FormatRGBA32F:
		return "RGBA32F"
	default:
		return "unknown"
	}
}

// Primitive selects how DrawArrays assembles vertices
type Primitive uint8

const (
	Triangles Primitive = iota
	Points
)

// Extension names queried through Context.Extension
const (
	// ExtColorBufferFloat makes float textures renderable as framebuffer attachments
	ExtColorBufferFloat = "EXT_color_buffer_float"
)

// Texture is an opaque handle to a 2D grid of texels owned by the device
type Texture interface {
	Size() (w, h int)
	Format() Format
	Delete()
}

// Framebuffer is a render target with one color attachment
type Framebuffer interface {
	Attachment() Texture
	Delete()
}

// VertexArray holds vertex input state; the particle kernels read no attributes
// and derive everything from the vertex index
type VertexArray interface {
	Delete()
}

// Context is the command interface of a single graphics context
// Commands execute in submission order
type Context interface {
	// DrawableSize returns the current size of the default framebuffer in pixels
	DrawableSize() (w, h int)
	// MaxTextureSize returns the largest supported texture dimension
	MaxTextureSize() int
	// Extension enables the named extension and reports whether it is supported
	Extension(name string) bool

	NewTexture(w, h int, format Format, data []float32) (Texture, error)
	NewFramebuffer(color Texture) (Framebuffer, error)
	NewVertexArray() VertexArray
	// NewProgram compiles and links a vertex/fragment kernel pair
	// On failure the returned program is non-nil, unlinked, and carries the log
	NewProgram(vertexSource, fragmentSource string) (Program, error)

	// BindFramebuffer selects the draw target, nil selects the default drawable
	BindFramebuffer(fb Framebuffer)
	Viewport(x, y, w, h int)
	// BindTexture makes tex readable through sampler uniforms set to unit
	BindTexture(unit int, tex Texture)
	BindVertexArray(va VertexArray)

	ClearColor(r, g, b, a float32)
	Clear()
	DrawArrays(mode Primitive, first, count int)

	// Err returns the first error queued since the last call and clears the queue
	Err() error
}
