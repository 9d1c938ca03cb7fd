package particle

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/gravfield/device"
	"github.com/lixenwraith/gravfield/vmath"
)

// Generations is the number of position buffers in the rotation
const Generations = 3

// ColorUnit is the texture unit holding the color grid; position slots use units 0..2
const ColorUnit = Generations

// Slot identifies one physical position buffer
type Slot int

// Ring is the rotating cursor over the three position slots
// Roles are offsets from the cursor taken modulo Generations
type Ring struct {
	cursor int
}

// Current is the generation at time t
func (r *Ring) Current() Slot { return r.role(0) }

// Previous is the generation at time t-1
func (r *Ring) Previous() Slot { return r.role(-1) }

// TwoStepsBack is the generation at time t-2, the write target of the next step
func (r *Ring) TwoStepsBack() Slot { return r.role(-2) }

// Advance promotes the freshly written slot to Current
func (r *Ring) Advance() {
	r.cursor = vmath.FixedMod(r.cursor+1, Generations)
}

// Cursor returns the raw rotation index
func (r *Ring) Cursor() int { return r.cursor }

func (r *Ring) role(offset int) Slot {
	return Slot(vmath.FixedMod(r.cursor+offset, Generations))
}

type generation struct {
	tex device.Texture
	fb  device.Framebuffer
}

// Store owns the position generations and the immutable color grid
// Other components reach the buffers only through role-based binding
type Store struct {
	Ring

	layout Layout
	slots  [Generations]generation
	colors device.Texture
}

// NewStore allocates all grids on ctx and uploads the seed
// The current slot receives the seed positions, the other two the previous positions
func NewStore(ctx device.Context, layout Layout, seed Seed) (*Store, error) {
	if layout.Height > ctx.MaxTextureSize() || layout.Width > ctx.MaxTextureSize() {
		return nil, errors.Wrapf(device.ErrInvalidValue, "grid %dx%d exceeds max texture size %d",
			layout.Width, layout.Height, ctx.MaxTextureSize())
	}
	if err := seed.Validate(layout.Count); err != nil {
		return nil, err
	}

	cur, prev, colors := seed.pack(layout)
	s := &Store{layout: layout}

	for i := range s.slots {
		data := prev
		if Slot(i) == s.Current() {
			data = cur
		}
		tex, err := ctx.NewTexture(layout.Width, layout.Height, device.FormatRGBA32F, data)
		if err != nil {
			s.Delete()
			return nil, errors.Wrapf(err, "allocate position slot %d", i)
		}
		s.slots[i].tex = tex

		fb, err := ctx.NewFramebuffer(tex)
		if err != nil {
			s.Delete()
			return nil, errors.Wrapf(err, "attach position slot %d", i)
		}
		s.slots[i].fb = fb
	}

	tex, err := ctx.NewTexture(layout.Width, layout.Height, device.FormatRGBA32F, colors)
	if err != nil {
		s.Delete()
		return nil, errors.Wrap(err, "allocate color grid")
	}
	s.colors = tex

	return s, nil
}

// Layout returns the grid geometry
func (s *Store) Layout() Layout { return s.layout }

// Unit returns the texture unit a slot is bound to by BindSources
func (s *Store) Unit(slot Slot) int32 { return int32(slot) }

// BindSources binds every position slot to its unit and the color grid to ColorUnit
func (s *Store) BindSources(ctx device.Context) {
	for i, g := range s.slots {
		ctx.BindTexture(i, g.tex)
	}
	ctx.BindTexture(ColorUnit, s.colors)
}

// BindTarget makes the two-steps-back slot the draw target and sizes the viewport to the grid
func (s *Store) BindTarget(ctx device.Context) {
	ctx.BindFramebuffer(s.slots[s.TwoStepsBack()].fb)
	ctx.Viewport(0, 0, s.layout.Width, s.layout.Height)
}

// Texture returns the position texture of a slot for host diagnostics
func (s *Store) Texture(slot Slot) device.Texture {
	return s.slots[slot].tex
}

// Colors returns the color texture for host diagnostics
func (s *Store) Colors() device.Texture {
	return s.colors
}

// Delete releases every device object the store owns
func (s *Store) Delete() {
	for i := range s.slots {
		if s.slots[i].fb != nil {
			s.slots[i].fb.Delete()
			s.slots[i].fb = nil
		}
		if s.slots[i].tex != nil {
			s.slots[i].tex.Delete()
			s.slots[i].tex = nil
		}
	}
	if s.colors != nil {
		s.colors.Delete()
		s.colors = nil
	}
}
