// Package metrics exports simulation counters to Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/gravfield/device/soft"
)

// Kernel stage label values
const (
	StageDraw     = "draw"
	StageVertex   = "vertex"
	StageFragment = "fragment"
)

// StatsSource reports cumulative device work; *soft.Context implements it
type StatsSource interface {
	Stats() soft.Stats
}

// Collector holds the simulation metrics on its own registry
// It implements engine.Observer
type Collector struct {
	reg *prometheus.Registry

	steps        prometheus.Counter
	frames       prometheus.Counter
	kernel       *prometheus.CounterVec
	particles    prometheus.Gauge
	frameSeconds prometheus.Histogram

	mu     sync.Mutex
	source StatsSource
	last   soft.Stats
}

// New creates a collector registered on a fresh registry
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		reg: reg,
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "gravfield_steps_total",
			Help: "Completed integration steps",
		}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "gravfield_frames_total",
			Help: "Rendered frames",
		}),
		kernel: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gravfield_kernel_invocations_total",
			Help: "Kernel invocations on the device by stage",
		}, []string{"stage"}),
		particles: f.NewGauge(prometheus.GaugeOpts{
			Name: "gravfield_particles",
			Help: "Particles in the running simulation",
		}),
		frameSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "gravfield_frame_seconds",
			Help:    "Wall time to step, render and present one frame",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
}

// Registry returns the registry holding the collector's metrics
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) StepCompleted() { c.steps.Inc() }

func (c *Collector) FrameRendered() { c.frames.Inc() }

// ObserveFrame records one frame duration
func (c *Collector) ObserveFrame(d time.Duration) {
	c.frameSeconds.Observe(d.Seconds())
}

// SetParticles records the particle count
func (c *Collector) SetParticles(n int) {
	c.particles.Set(float64(n))
}

// Attach sets the device whose counters Sync exports
// Counters already accumulated on src are not exported
func (c *Collector) Attach(src StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = src
	if src != nil {
		c.last = src.Stats()
	} else {
		c.last = soft.Stats{}
	}
}

// Sync adds device work since the previous Sync to the kernel counters
func (c *Collector) Sync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.source == nil {
		return
	}
	now := c.source.Stats()
	c.kernel.WithLabelValues(StageDraw).Add(float64(now.DrawCalls - c.last.DrawCalls))
	c.kernel.WithLabelValues(StageVertex).Add(float64(now.VertexInvocations - c.last.VertexInvocations))
	c.kernel.WithLabelValues(StageFragment).Add(float64(now.FragmentInvocations - c.last.FragmentInvocations))
	c.last = now
}

// Handler serves the collector's registry in the exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// NewServer returns an HTTP server exposing /metrics on addr
func NewServer(addr string, c *Collector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
}
