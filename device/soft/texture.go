package soft

import (
	"github.com/lixenwraith/gravfield/device"
)

// texture is row-major RGBA32F storage, row 0 at the bottom
type texture struct {
	id      uint32
	w, h    int
	format  device.Format
	data    []float32
	deleted bool
}

func (t *texture) Size() (w, h int)      { return t.w, t.h }
func (t *texture) Format() device.Format { return t.format }

// Delete releases storage; deleted textures read as zero and drop writes
func (t *texture) Delete() {
	t.deleted = true
	t.data = nil
}

func (t *texture) fetch(x, y int) [4]float32 {
	if t.deleted || x < 0 || y < 0 || x >= t.w || y >= t.h {
		return [4]float32{}
	}
	i := (y*t.w + x) * 4
	return [4]float32{t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]}
}

func (t *texture) store(x, y int, v [4]float32) {
	if t.deleted || x < 0 || y < 0 || x >= t.w || y >= t.h {
		return
	}
	i := (y*t.w + x) * 4
	t.data[i] = v[0]
	t.data[i+1] = v[1]
	t.data[i+2] = v[2]
	t.data[i+3] = v[3]
}

func (t *texture) fill(v [4]float32) {
	if len(t.data) == 0 {
		return
	}
	copy(t.data, v[:])
	for filled := 4; filled < len(t.data); filled *= 2 {
		copy(t.data[filled:], t.data[:filled])
	}
}

// framebuffer wraps one color attachment
type framebuffer struct {
	id       uint32
	color    *texture
	complete bool
	deleted  bool
}

func (f *framebuffer) Attachment() device.Texture {
	return f.color
}

func (f *framebuffer) Delete() {
	f.deleted = true
}

// vertexArray carries no attribute state, particle kernels index by vertex ID
type vertexArray struct {
	id      uint32
	deleted bool
}

func (v *vertexArray) Delete() {
	v.deleted = true
}
