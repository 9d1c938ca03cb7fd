package soft

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/device"
)

// uniformValue holds one uniform of any kind; only the slots for its kind are used
type uniformValue struct {
	kind device.UniformKind
	f    [16]float32
	i    [4]int32
	u    [4]uint32
}

type program struct {
	ctx      *Context
	id       uint32
	vertex   *VertexKernel
	fragment *FragmentKernel
	uniforms map[string]*uniformValue
	samplers []string
	linked   bool
	log      string
	deleted  bool
}

// NewProgram resolves both sources in the kernel library and links them
func (c *Context) NewProgram(vertexSource, fragmentSource string) (device.Program, error) {
	c.nextID++
	p := &program{
		ctx:      c,
		id:       c.nextID,
		uniforms: make(map[string]*uniformValue),
	}

	vk, ok := c.lib.lookupVertex(vertexSource)
	if !ok {
		return p, p.fail(device.StageVertex, vertexSource, fmt.Sprintf("ERROR: 0:1: unknown vertex kernel %q", vertexSource))
	}
	fk, ok := c.lib.lookupFragment(fragmentSource)
	if !ok {
		return p, p.fail(device.StageFragment, fragmentSource, fmt.Sprintf("ERROR: 0:1: unknown fragment kernel %q", fragmentSource))
	}
	if vk.Main == nil {
		return p, p.fail(device.StageVertex, vertexSource, "ERROR: 0:1: missing main")
	}
	if fk.Main == nil {
		return p, p.fail(device.StageFragment, fragmentSource, "ERROR: 0:1: missing main")
	}

	p.vertex, p.fragment = vk, fk

	var problems []string
	if fk.Varyings > vk.Varyings {
		problems = append(problems, fmt.Sprintf("fragment reads %d varyings, vertex writes %d", fk.Varyings, vk.Varyings))
	}
	if vk.Varyings > MaxVaryings || fk.Varyings > MaxVaryings {
		problems = append(problems, fmt.Sprintf("varying count exceeds limit of %d", MaxVaryings))
	}

	declare := func(name string, kind device.UniformKind) {
		if prev, ok := p.uniforms[name]; ok {
			if prev.kind != kind {
				problems = append(problems, fmt.Sprintf("uniform %q declared as %s and %s", name, prev.kind, kind))
			}
			return
		}
		p.uniforms[name] = &uniformValue{kind: kind}
	}
	for _, stage := range []struct {
		uniforms map[string]device.UniformKind
		samplers []string
	}{{vk.Uniforms, vk.Samplers}, {fk.Uniforms, fk.Samplers}} {
		for name, kind := range stage.uniforms {
			declare(name, kind)
		}
		for _, name := range stage.samplers {
			declare(name, device.UniformInt)
			if !containsString(p.samplers, name) {
				p.samplers = append(p.samplers, name)
			}
		}
	}

	if len(problems) > 0 {
		return p, p.fail(device.StageLink, "", "ERROR: "+strings.Join(problems, "; "))
	}

	p.linked = true
	return p, nil
}

func (p *program) fail(stage device.Stage, source, log string) error {
	p.log = log
	p.ctx.log.Debug("program build failed",
		zap.String("stage", string(stage)),
		zap.String("source", source),
		zap.String("log", log))
	return &device.CompileError{Stage: stage, Source: source, Log: log}
}

func (p *program) Use() {
	if p.deleted {
		p.ctx.queue(errors.Wrap(device.ErrInvalidValue, "use of deleted program"))
		return
	}
	p.ctx.program = p
}

func (p *program) Linked() bool    { return p.linked }
func (p *program) InfoLog() string { return p.log }

func (p *program) Delete() {
	p.deleted = true
	if p.ctx.program == p {
		p.ctx.program = nil
	}
}

// slot returns the storage for name if it is declared with kind
func (p *program) slot(name string, kind device.UniformKind) *uniformValue {
	u, ok := p.uniforms[name]
	if !ok {
		return nil
	}
	if u.kind != kind {
		p.ctx.queue(errors.Wrapf(device.ErrUniformType, "uniform %q is %s, set as %s", name, u.kind, kind))
		return nil
	}
	return u
}

func (p *program) setF(name string, kind device.UniformKind, v ...float32) {
	if u := p.slot(name, kind); u != nil {
		copy(u.f[:], v)
	}
}

func (p *program) setI(name string, kind device.UniformKind, v ...int32) {
	if u := p.slot(name, kind); u != nil {
		copy(u.i[:], v)
	}
}

func (p *program) setU(name string, kind device.UniformKind, v ...uint32) {
	if u := p.slot(name, kind); u != nil {
		copy(u.u[:], v)
	}
}

func (p *program) SetFloat(name string, x float32) { p.setF(name, device.UniformFloat, x) }
func (p *program) SetInt(name string, x int32)     { p.setI(name, device.UniformInt, x) }
func (p *program) SetUInt(name string, x uint32)   { p.setU(name, device.UniformUInt, x) }

func (p *program) SetVec2(name string, x, y float32)  { p.setF(name, device.UniformVec2, x, y) }
func (p *program) SetIVec2(name string, x, y int32)   { p.setI(name, device.UniformIVec2, x, y) }
func (p *program) SetUIVec2(name string, x, y uint32) { p.setU(name, device.UniformUIVec2, x, y) }

func (p *program) SetVec3(name string, x, y, z float32)  { p.setF(name, device.UniformVec3, x, y, z) }
func (p *program) SetIVec3(name string, x, y, z int32)   { p.setI(name, device.UniformIVec3, x, y, z) }
func (p *program) SetUIVec3(name string, x, y, z uint32) { p.setU(name, device.UniformUIVec3, x, y, z) }

func (p *program) SetVec4(name string, x, y, z, w float32) {
	p.setF(name, device.UniformVec4, x, y, z, w)
}
func (p *program) SetIVec4(name string, x, y, z, w int32) {
	p.setI(name, device.UniformIVec4, x, y, z, w)
}
func (p *program) SetUIVec4(name string, x, y, z, w uint32) {
	p.setU(name, device.UniformUIVec4, x, y, z, w)
}

func (p *program) SetMat2(name string, m device.Mat2) { p.setF(name, device.UniformMat2, m[:]...) }
func (p *program) SetMat3(name string, m device.Mat3) { p.setF(name, device.UniformMat3, m[:]...) }
func (p *program) SetMat4(name string, m device.Mat4) { p.setF(name, device.UniformMat4, m[:]...) }

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
