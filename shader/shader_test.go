package shader

import (
	"testing"

	"github.com/lixenwraith/gravfield/device"
	"github.com/lixenwraith/gravfield/device/soft"
	"github.com/lixenwraith/gravfield/physics"
	"github.com/lixenwraith/gravfield/vmath"
)

func newContext(t *testing.T, w, h int) *soft.Context {
	t.Helper()
	ctx := soft.New(soft.DefaultConfig(w, h, NewLibrary()))
	if !ctx.Extension(device.ExtColorBufferFloat) {
		t.Fatal("Expected float color buffers")
	}
	return ctx
}

func texels(points ...vmath.Vec2F) []float32 {
	out := make([]float32, 4*len(points))
	for i, p := range points {
		out[4*i], out[4*i+1] = float32(p.X), float32(p.Y)
	}
	return out
}

func TestIntegrateMatchesPhysics(t *testing.T) {
	ctx := newContext(t, 4, 4)

	cur := []vmath.Vec2F{{X: 0.5, Y: 0.5}, {X: -0.25, Y: 0.75}, {X: 0.01, Y: 0.02}, {X: -0.9, Y: -0.1}}
	prev := []vmath.Vec2F{{X: 0.5, Y: 0.5}, {X: -0.2, Y: 0.7}, {X: 0.01, Y: 0.02}, {X: -0.85, Y: -0.1}}

	curTex, _ := ctx.NewTexture(4, 1, device.FormatRGBA32F, texels(cur...))
	prevTex, _ := ctx.NewTexture(4, 1, device.FormatRGBA32F, texels(prev...))
	outTex, _ := ctx.NewTexture(4, 1, device.FormatRGBA32F, nil)
	fb, err := ctx.NewFramebuffer(outTex)
	if err != nil {
		t.Fatalf("NewFramebuffer failed: %v", err)
	}

	prog, err := ctx.NewProgram(FullscreenVertex, IntegrateFragment)
	if err != nil {
		t.Fatalf("NewProgram failed: %v", err)
	}

	field := physics.Field{Center: vmath.Vec2F{X: 0.1, Y: -0.2}, Strength: 0.05, Cap: 0.1}
	const dt = 1.0 / 60

	ctx.BindTexture(0, curTex)
	ctx.BindTexture(1, prevTex)
	ctx.BindFramebuffer(fb)
	ctx.Viewport(0, 0, 4, 1)
	ctx.BindVertexArray(ctx.NewVertexArray())
	prog.Use()
	prog.SetInt(UniformPositions, 0)
	prog.SetInt(UniformPrevPositions, 1)
	prog.SetInt(UniformNumParticles, 4)
	prog.SetVec2(UniformGravityCenter, float32(field.Center.X), float32(field.Center.Y))
	prog.SetFloat(UniformGravityStrength, float32(field.Strength))
	prog.SetFloat(UniformAccelerationCap, float32(field.Cap))
	prog.SetFloat(UniformDt, dt)
	ctx.DrawArrays(device.Triangles, 0, 6)
	if err := ctx.Err(); err != nil {
		t.Fatalf("Integration pass failed: %v", err)
	}

	got := ctx.ReadTexture(outTex)
	for i := range cur {
		// Inputs travel through float32 uniforms and texels
		f := physics.Field{
			Center:   vmath.Vec2F{X: float64(float32(field.Center.X)), Y: float64(float32(field.Center.Y))},
			Strength: float64(float32(field.Strength)),
			Cap:      float64(float32(field.Cap)),
		}
		p := vmath.Vec2F{X: float64(float32(cur[i].X)), Y: float64(float32(cur[i].Y))}
		q := vmath.Vec2F{X: float64(float32(prev[i].X)), Y: float64(float32(prev[i].Y))}
		want := f.Advance(p, q, float64(float32(dt)))

		if got[4*i] != float32(want.X) || got[4*i+1] != float32(want.Y) {
			t.Errorf("Particle %d: expected (%f, %f), got (%f, %f)", i, want.X, want.Y, got[4*i], got[4*i+1])
		}
		if got[4*i+2] != 0 || got[4*i+3] != 1 {
			t.Errorf("Particle %d: expected z=0 w=1, got z=%f w=%f", i, got[4*i+2], got[4*i+3])
		}
	}
}

func TestParticleKernelsPlacePoint(t *testing.T) {
	ctx := newContext(t, 8, 4)

	// World half-extent (1, 0.5): particle at (0.5, 0.25) lands at NDC (0.5, 0.5)
	pos, _ := ctx.NewTexture(2, 1, device.FormatRGBA32F, texels(vmath.Vec2F{X: 0.5, Y: 0.25}, vmath.Vec2F{X: 5, Y: 5}))
	col, _ := ctx.NewTexture(2, 1, device.FormatRGBA32F, []float32{0.25, 0.5, 0.75, 0, 1, 1, 1, 0})

	prog, err := ctx.NewProgram(ParticleVertex, ParticleFragment)
	if err != nil {
		t.Fatalf("NewProgram failed: %v", err)
	}

	ctx.BindFramebuffer(nil)
	ctx.BindTexture(0, pos)
	ctx.BindTexture(3, col)
	ctx.BindVertexArray(ctx.NewVertexArray())
	prog.Use()
	prog.SetInt(UniformPositions, 0)
	prog.SetInt(UniformColors, 3)
	prog.SetVec2(UniformWorldSize, 1, 0.5)
	prog.SetFloat(UniformPointSize, 1)
	ctx.DrawArrays(device.Points, 0, 2)
	if err := ctx.Err(); err != nil {
		t.Fatalf("Point pass failed: %v", err)
	}

	px := ctx.ReadPixels(nil)
	// Window (6, 3)
	i := 4 * (3*8 + 6)
	if got := [4]float32{px[i], px[i+1], px[i+2], px[i+3]}; got != [4]float32{0.25, 0.5, 0.75, 1} {
		t.Errorf("Expected particle color at (6, 3), got %v", got)
	}
	if s := ctx.Stats(); s.FragmentInvocations != 1 {
		t.Errorf("Expected off-screen particle clipped, got %d fragments", s.FragmentInvocations)
	}
}

func TestKernelPairsLink(t *testing.T) {
	ctx := newContext(t, 2, 2)
	pairs := [][2]string{
		{FullscreenVertex, IntegrateFragment},
		{ParticleVertex, ParticleFragment},
	}
	for _, p := range pairs {
		prog, err := ctx.NewProgram(p[0], p[1])
		if err != nil || !prog.Linked() {
			t.Errorf("Expected %s + %s to link, got %v", p[0], p[1], err)
		}
	}
}
