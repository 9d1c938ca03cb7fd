package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lixenwraith/gravfield/device"
	"github.com/lixenwraith/gravfield/device/soft"
	"github.com/lixenwraith/gravfield/engine"
	"github.com/lixenwraith/gravfield/metrics"
	"github.com/lixenwraith/gravfield/shader"
)

var (
	particles = flag.Int("particles", 200000, "Number of particles")
	steps     = flag.Int("steps", 120, "Frames to simulate")
	width     = flag.Int("width", 640, "Drawable width")
	height    = flag.Int("height", 480, "Drawable height")
	workers   = flag.Int("workers", 0, "Device workers, 0 = GOMAXPROCS")
	noRender  = flag.Bool("no-render", false, "Skip the point pass")
	verbose   = flag.Bool("v", false, "Log engine activity to stderr")
)

// checkRun rejects runs with nothing to average over
func checkRun(steps, particles int) error {
	if steps <= 0 {
		return errors.Errorf("-steps must be positive, got %d", steps)
	}
	if particles <= 0 {
		return errors.Errorf("-particles must be positive, got %d", particles)
	}
	return nil
}

func main() {
	flag.Parse()
	if err := checkRun(*steps, *particles); err != nil {
		fmt.Fprintf(os.Stderr, "gravfield-bench: %v\n", err)
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	ctx := soft.New(soft.Config{
		Width:          *width,
		Height:         *height,
		MaxTextureSize: 4096,
		Extensions:     []string{device.ExtColorBufferFloat},
		Workers:        *workers,
		Library:        shader.NewLibrary(),
		Logger:         logger.Named("device"),
	})

	collector := metrics.New()
	collector.Attach(ctx)

	e, err := engine.New(ctx, *particles,
		engine.WithRand(rand.New(rand.NewSource(1))),
		engine.WithLogger(logger.Named("engine")),
		engine.WithObserver(collector),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gravfield-bench: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	// Orbit the attractor so particles keep moving
	var stepTotal, renderTotal time.Duration
	start := time.Now()
	for i := 0; i < *steps; i++ {
		phase := float64(i) / float64(*steps)
		x := float64(*width) * (0.5 + 0.3*math.Cos(2*math.Pi*phase))
		y := float64(*height) * (0.5 + 0.3*math.Sin(2*math.Pi*phase))

		t0 := time.Now()
		if err := e.Step(1.0/60, x, y); err != nil {
			fmt.Fprintf(os.Stderr, "gravfield-bench: step %d: %v\n", i, err)
			os.Exit(1)
		}
		stepTotal += time.Since(t0)

		if !*noRender {
			ctx.ClearColor(0, 0, 0, 1)
			ctx.Clear()
			t1 := time.Now()
			if err := e.Render(); err != nil {
				fmt.Fprintf(os.Stderr, "gravfield-bench: render %d: %v\n", i, err)
				os.Exit(1)
			}
			renderTotal += time.Since(t1)
		}
		collector.ObserveFrame(time.Since(t0))
	}
	elapsed := time.Since(start)
	collector.Sync()

	stats := ctx.Stats()
	n := time.Duration(*steps)
	fmt.Printf("Benchmark Results:\n")
	fmt.Printf("  Particles:     %d (grid %dx%d)\n", e.ParticleCount(), e.Store().Layout().Width, e.Store().Layout().Height)
	fmt.Printf("  Drawable:      %dx%d\n", *width, *height)
	fmt.Printf("  Workers:       %d\n", ctx.Workers())
	fmt.Printf("  Frames:        %d\n", *steps)
	fmt.Printf("  Total Time:    %v\n", elapsed)
	fmt.Printf("  Avg Step:      %v\n", stepTotal/n)
	if !*noRender {
		fmt.Printf("  Avg Render:    %v\n", renderTotal/n)
	}
	fmt.Printf("  Particle-steps/s: %.3g\n", float64(*particles)*float64(*steps)/stepTotal.Seconds())
	fmt.Printf("  Draw Calls:    %d\n", stats.DrawCalls)
	fmt.Printf("  Fragments:     %d\n", stats.FragmentInvocations)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("  Total Alloc:   %d bytes\n", m.TotalAlloc)
	fmt.Printf("  Mallocs:       %d\n", m.Mallocs)
}
