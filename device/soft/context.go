// Package soft is a CPU implementation of the device contract.
// Draw calls run kernels over pixels and vertices on a bounded worker pool,
// preserving the ordering and hazard rules of a single GPU command queue.
package soft

import (
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/device"
)

// Config sets the capabilities of a software context
type Config struct {
	Width, Height  int      // Initial drawable size
	MaxTextureSize int      // Largest texture dimension
	Extensions     []string // Supported extension names
	Workers        int      // Parallel kernel workers, 0 = GOMAXPROCS
	Library        *Library // Kernel sources available to NewProgram
	Logger         *zap.Logger
}

// DefaultConfig returns a float-capable context matching a WebGL2-class device
func DefaultConfig(width, height int, lib *Library) Config {
	return Config{
		Width:          width,
		Height:         height,
		MaxTextureSize: 4096,
		Extensions:     []string{device.ExtColorBufferFloat},
		Library:        lib,
	}
}

// Stats counts work executed by the context since creation
type Stats struct {
	DrawCalls           uint64
	VertexInvocations   uint64
	FragmentInvocations uint64
}

// Context implements device.Context in host memory
// Not safe for concurrent use: commands must come from a single goroutine
type Context struct {
	lib     *Library
	log     *zap.Logger
	workers int
	maxTex  int

	supported map[string]bool
	enabled   map[string]bool

	defaultFB *framebuffer
	drawFB    *framebuffer
	viewport  [4]int
	units     [MaxTextureUnits]*texture
	vao       *vertexArray
	program   *program
	clear     [4]float32

	errs   []error
	nextID uint32

	drawCalls   atomic.Uint64
	vertexRuns  atomic.Uint64
	fragmentRun atomic.Uint64
}

// New creates a software context
func New(cfg Config) *Context {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Library == nil {
		cfg.Library = NewLibrary()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.MaxTextureSize <= 0 {
		cfg.MaxTextureSize = 4096
	}

	c := &Context{
		lib:       cfg.Library,
		log:       cfg.Logger,
		workers:   cfg.Workers,
		maxTex:    cfg.MaxTextureSize,
		supported: make(map[string]bool, len(cfg.Extensions)),
		enabled:   make(map[string]bool, len(cfg.Extensions)),
	}
	for _, ext := range cfg.Extensions {
		c.supported[ext] = true
	}
	c.defaultFB = &framebuffer{complete: true}
	c.Resize(cfg.Width, cfg.Height)
	return c
}

// Resize reallocates the default framebuffer and resets the viewport to cover it
func (c *Context) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	c.defaultFB.color = &texture{
		w:      width,
		h:      height,
		format: device.FormatRGBA32F,
		data:   make([]float32, width*height*4),
	}
	c.viewport = [4]int{0, 0, width, height}
}

func (c *Context) DrawableSize() (w, h int) {
	return c.defaultFB.color.w, c.defaultFB.color.h
}

func (c *Context) MaxTextureSize() int {
	return c.maxTex
}

func (c *Context) Extension(name string) bool {
	if !c.supported[name] {
		return false
	}
	c.enabled[name] = true
	return true
}

// Workers returns the kernel dispatch parallelism
func (c *Context) Workers() int {
	return c.workers
}

// Stats returns a snapshot of execution counters
func (c *Context) Stats() Stats {
	return Stats{
		DrawCalls:           c.drawCalls.Load(),
		VertexInvocations:   c.vertexRuns.Load(),
		FragmentInvocations: c.fragmentRun.Load(),
	}
}

func (c *Context) queue(err error) {
	c.log.Debug("device error queued", zap.Error(err))
	c.errs = append(c.errs, err)
}

func (c *Context) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	err := c.errs[0]
	c.errs = c.errs[:0]
	return err
}

// ===== RESOURCES =====

func (c *Context) NewTexture(w, h int, format device.Format, data []float32) (device.Texture, error) {
	if format.Channels() == 0 {
		return nil, errors.Wrapf(device.ErrInvalidValue, "unsupported texture format %d", format)
	}
	if w <= 0 || h <= 0 || w > c.maxTex || h > c.maxTex {
		return nil, errors.Wrapf(device.ErrInvalidValue, "texture size %dx%d outside 1..%d", w, h, c.maxTex)
	}
	size := w * h * format.Channels()
	if data != nil && len(data) != size {
		return nil, errors.Wrapf(device.ErrInvalidValue, "texture data has %d values, want %d", len(data), size)
	}

	c.nextID++
	t := &texture{
		id:     c.nextID,
		w:      w,
		h:      h,
		format: format,
		data:   make([]float32, size),
	}
	copy(t.data, data)
	return t, nil
}

func (c *Context) NewFramebuffer(color device.Texture) (device.Framebuffer, error) {
	tex, ok := color.(*texture)
	if !ok || tex == nil || tex.deleted {
		return nil, errors.Wrap(device.ErrInvalidTexture, "framebuffer attachment")
	}
	// Float attachments are only color-renderable with the float extension enabled
	if tex.format == device.FormatRGBA32F && !c.enabled[device.ExtColorBufferFloat] {
		return nil, errors.Wrapf(device.ErrIncompleteFramebuffer, "%s attachment requires %s", tex.format, device.ExtColorBufferFloat)
	}

	c.nextID++
	return &framebuffer{id: c.nextID, color: tex, complete: true}, nil
}

func (c *Context) NewVertexArray() device.VertexArray {
	c.nextID++
	return &vertexArray{id: c.nextID}
}

// ===== STATE =====

func (c *Context) BindFramebuffer(fb device.Framebuffer) {
	if fb == nil {
		c.drawFB = nil
		return
	}
	f, ok := fb.(*framebuffer)
	if !ok || f.deleted {
		c.queue(errors.Wrap(device.ErrInvalidValue, "bind of foreign or deleted framebuffer"))
		return
	}
	c.drawFB = f
}

func (c *Context) Viewport(x, y, w, h int) {
	if w < 0 || h < 0 {
		c.queue(errors.Wrapf(device.ErrInvalidValue, "viewport %dx%d", w, h))
		return
	}
	c.viewport = [4]int{x, y, w, h}
}

func (c *Context) BindTexture(unit int, tex device.Texture) {
	if unit < 0 || unit >= MaxTextureUnits {
		c.queue(errors.Wrapf(device.ErrInvalidValue, "texture unit %d", unit))
		return
	}
	if tex == nil {
		c.units[unit] = nil
		return
	}
	t, ok := tex.(*texture)
	if !ok || t.deleted {
		c.queue(errors.Wrap(device.ErrInvalidTexture, "bind of foreign or deleted texture"))
		return
	}
	c.units[unit] = t
}

func (c *Context) BindVertexArray(va device.VertexArray) {
	if va == nil {
		c.vao = nil
		return
	}
	v, ok := va.(*vertexArray)
	if !ok || v.deleted {
		c.queue(errors.Wrap(device.ErrInvalidValue, "bind of foreign or deleted vertex array"))
		return
	}
	c.vao = v
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.clear = [4]float32{r, g, b, a}
}

// Clear fills the whole bound target with the clear color
func (c *Context) Clear() {
	c.target().fill(c.clear)
}

func (c *Context) target() *texture {
	if c.drawFB != nil {
		return c.drawFB.color
	}
	return c.defaultFB.color
}

// ===== READBACK =====

// ReadPixels copies the color attachment of fb, nil reads the default drawable
// Host-side diagnostics only
func (c *Context) ReadPixels(fb device.Framebuffer) []float32 {
	if fb == nil {
		return c.ReadTexture(c.defaultFB.color)
	}
	return c.ReadTexture(fb.Attachment())
}

// ReadTexture copies the texel data of tex
func (c *Context) ReadTexture(tex device.Texture) []float32 {
	t, ok := tex.(*texture)
	if !ok || t == nil || t.deleted {
		return nil
	}
	out := make([]float32, len(t.data))
	copy(out, t.data)
	return out
}
