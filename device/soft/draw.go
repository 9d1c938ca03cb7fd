package soft

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/gravfield/device"
)

// minChunk keeps per-goroutine work large enough to amortize scheduling
const minChunk = 256

type window struct {
	x, y float32
}

// DrawArrays runs the current program over count vertices starting at first
// Invalid state queues an error and skips the draw, matching GL semantics
func (c *Context) DrawArrays(mode device.Primitive, first, count int) {
	if first < 0 || count < 0 {
		c.queue(errors.Wrapf(device.ErrInvalidValue, "draw range first=%d count=%d", first, count))
		return
	}
	if count == 0 {
		return
	}
	p := c.program
	if p == nil || !p.linked || p.deleted {
		c.queue(device.ErrNoProgram)
		return
	}
	if c.drawFB != nil && (!c.drawFB.complete || c.drawFB.deleted || c.drawFB.color.deleted) {
		c.queue(device.ErrIncompleteFramebuffer)
		return
	}

	target := c.target()
	env := &Env{uniforms: p.uniforms, units: c.units}

	for _, name := range p.samplers {
		unit := int(p.uniforms[name].i[0])
		if unit >= 0 && unit < MaxTextureUnits && env.units[unit] == target {
			c.queue(errors.Wrapf(device.ErrFeedbackLoop, "sampler %q on unit %d", name, unit))
			return
		}
	}

	c.drawCalls.Add(1)

	verts := make([]VertexOut, count)
	err := c.parallel(count, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			p.vertex.Main(env, VertexIn{VertexID: first + i}, &verts[i])
		}
	})
	c.vertexRuns.Add(uint64(count))
	if err != nil {
		c.queue(err)
		return
	}

	switch mode {
	case device.Triangles:
		for i := 0; i+2 < count; i += 3 {
			if err := c.rasterTriangle(p, env, target, verts[i], verts[i+1], verts[i+2]); err != nil {
				c.queue(err)
				return
			}
		}
	case device.Points:
		c.rasterPoints(p, env, target, verts)
	default:
		c.queue(errors.Wrapf(device.ErrInvalidValue, "primitive %d", mode))
	}
}

// toWindow maps clip space to window coordinates through the viewport
func (c *Context) toWindow(pos [4]float32) (window, bool) {
	w := pos[3]
	if w == 0 {
		return window{}, false
	}
	nx, ny := pos[0]/w, pos[1]/w
	if math.IsNaN(float64(nx)) || math.IsNaN(float64(ny)) {
		return window{}, false
	}
	vx, vy, vw, vh := c.viewport[0], c.viewport[1], c.viewport[2], c.viewport[3]
	return window{
		x: float32(vx) + (nx+1)*0.5*float32(vw),
		y: float32(vy) + (ny+1)*0.5*float32(vh),
	}, true
}

// clipRect is the intersection of viewport and target bounds as [x0,x1)×[y0,y1)
func (c *Context) clipRect(target *texture) (x0, y0, x1, y1 int) {
	x0, y0 = max(c.viewport[0], 0), max(c.viewport[1], 0)
	x1 = min(c.viewport[0]+c.viewport[2], target.w)
	y1 = min(c.viewport[1]+c.viewport[3], target.h)
	return
}

func edge(a, b window, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether edge a→b of a counter-clockwise triangle owns pixels lying exactly on it
func topLeft(a, b window) bool {
	return (a.y == b.y && b.x < a.x) || b.y < a.y
}

func (c *Context) rasterTriangle(p *program, env *Env, target *texture, o0, o1, o2 VertexOut) error {
	v0, ok0 := c.toWindow(o0.Position)
	v1, ok1 := c.toWindow(o1.Position)
	v2, ok2 := c.toWindow(o2.Position)
	if !ok0 || !ok1 || !ok2 {
		return nil
	}

	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 {
		return nil
	}
	if area < 0 {
		v1, v2 = v2, v1
		o1, o2 = o2, o1
		area = -area
	}

	cx0, cy0, cx1, cy1 := c.clipRect(target)
	bx0 := max(cx0, int(math.Floor(float64(min(v0.x, v1.x, v2.x)))))
	by0 := max(cy0, int(math.Floor(float64(min(v0.y, v1.y, v2.y)))))
	bx1 := min(cx1, int(math.Ceil(float64(max(v0.x, v1.x, v2.x)))))
	by1 := min(cy1, int(math.Ceil(float64(max(v0.y, v1.y, v2.y)))))
	if bx0 >= bx1 || by0 >= by1 {
		return nil
	}

	tl0, tl1, tl2 := topLeft(v1, v2), topLeft(v2, v0), topLeft(v0, v1)
	nv := p.fragment.Varyings
	frag := p.fragment.Main

	return c.parallelRows(by0, by1, bx1-bx0, func(y0, y1 int) uint64 {
		var shaded uint64
		for y := y0; y < y1; y++ {
			py := float32(y) + 0.5
			for x := bx0; x < bx1; x++ {
				px := float32(x) + 0.5
				w0 := edge(v1, v2, px, py)
				w1 := edge(v2, v0, px, py)
				w2 := edge(v0, v1, px, py)
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}
				if (w0 == 0 && !tl0) || (w1 == 0 && !tl1) || (w2 == 0 && !tl2) {
					continue
				}

				in := FragmentIn{FragCoord: [2]float32{px, py}}
				if nv > 0 {
					l0, l1, l2 := w0/area, w1/area, w2/area
					for k := 0; k < nv; k++ {
						in.Varyings[k] = l0*o0.Varyings[k] + l1*o1.Varyings[k] + l2*o2.Varyings[k]
					}
				}
				target.store(x, y, frag(env, in))
				shaded++
			}
		}
		return shaded
	})
}

// rasterPoints shades a square of PointSize pixels per vertex in vertex order
// Later vertices overwrite earlier ones on the same pixel
func (c *Context) rasterPoints(p *program, env *Env, target *texture, verts []VertexOut) {
	cx0, cy0, cx1, cy1 := c.clipRect(target)
	frag := p.fragment.Main
	var shaded uint64

	for i := range verts {
		o := &verts[i]
		w := o.Position[3]
		if w == 0 {
			continue
		}
		nx, ny := o.Position[0]/w, o.Position[1]/w
		// Clip on the point center, NaN fails both comparisons
		if !(nx >= -1 && nx <= 1 && ny >= -1 && ny <= 1) {
			continue
		}
		win, _ := c.toWindow(o.Position)

		size := int(math.Round(float64(o.PointSize)))
		if size < 1 {
			size = 1
		}
		half := float32(size) * 0.5
		x0 := int(math.Floor(float64(win.x - half + 0.5)))
		y0 := int(math.Floor(float64(win.y - half + 0.5)))

		for y := max(y0, cy0); y < min(y0+size, cy1); y++ {
			for x := max(x0, cx0); x < min(x0+size, cx1); x++ {
				in := FragmentIn{
					FragCoord: [2]float32{float32(x) + 0.5, float32(y) + 0.5},
					Varyings:  o.Varyings,
				}
				target.store(x, y, frag(env, in))
				shaded++
			}
		}
	}
	c.fragmentRun.Add(shaded)
}

// parallel splits [0,n) into contiguous ranges run on the worker pool
func (c *Context) parallel(n int, fn func(lo, hi int)) error {
	chunks := min(c.workers, max(1, n/minChunk))
	size := (n + chunks - 1) / chunks

	var g errgroup.Group
	g.SetLimit(c.workers)
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		g.Go(func() (err error) {
			defer recoverKernel(&err)
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// parallelRows splits rows [y0,y1) into bands; fn returns the fragments it shaded
func (c *Context) parallelRows(y0, y1, rowWidth int, fn func(y0, y1 int) uint64) error {
	rows := y1 - y0
	perBand := max(1, minChunk/max(rowWidth, 1))
	bands := min(c.workers, max(1, rows/perBand))
	size := (rows + bands - 1) / bands

	var g errgroup.Group
	g.SetLimit(c.workers)
	for lo := y0; lo < y1; lo += size {
		hi := min(lo+size, y1)
		g.Go(func() (err error) {
			defer recoverKernel(&err)
			c.fragmentRun.Add(fn(lo, hi))
			return nil
		})
	}
	return g.Wait()
}

func recoverKernel(err *error) {
	if r := recover(); r != nil {
		*err = errors.Errorf("soft: kernel panic: %v", r)
	}
}
