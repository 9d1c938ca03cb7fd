// Package clock supplies simulation timesteps with pause support.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTimestep is one frame at 60 Hz
const DefaultTimestep = 1.0 / 60

// Mode selects how Tick derives the timestep
type Mode int

const (
	// ModeFixed returns the same dt every tick
	ModeFixed Mode = iota
	// ModeVariable returns the elapsed wall time, clamped to a maximum
	ModeVariable
)

func (m Mode) String() string {
	switch m {
	case ModeFixed:
		return "fixed"
	case ModeVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Option configures a Clock
type Option func(*Clock)

// Fixed makes every unpaused tick return dt seconds
func Fixed(dt float64) Option {
	return func(c *Clock) {
		c.mode = ModeFixed
		c.dt = dt
	}
}

// Variable makes ticks return real elapsed seconds, never more than maxDt
func Variable(maxDt float64) Option {
	return func(c *Clock) {
		c.mode = ModeVariable
		c.maxDt = maxDt
	}
}

// WithTimeSource replaces the system clock, mainly for tests
func WithTimeSource(src TimeSource) Option {
	return func(c *Clock) {
		if src != nil {
			c.source = src
		}
	}
}

// Clock tracks simulation time separately from wall time
// Pause state may be changed from any goroutine; Tick is called by the frame loop
type Clock struct {
	mu sync.RWMutex

	source TimeSource
	mode   Mode
	dt     float64
	maxDt  float64

	lastTick time.Time

	paused      atomic.Bool
	pauseStart  time.Time
	totalPaused time.Duration
}

// New creates a clock, fixed at DefaultTimestep unless configured otherwise
func New(opts ...Option) *Clock {
	c := &Clock{
		source: SystemTimeSource{},
		mode:   ModeFixed,
		dt:     DefaultTimestep,
		maxDt:  4 * DefaultTimestep,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastTick = c.source.Now()
	return c
}

// Mode returns the timestep mode
func (c *Clock) Mode() Mode { return c.mode }

// Tick returns the dt for the next simulation step, 0 while paused
func (c *Clock) Tick() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.source.Now()
	elapsed := now.Sub(c.lastTick)
	c.lastTick = now

	if c.paused.Load() {
		return 0
	}

	if c.mode == ModeFixed {
		return c.dt
	}

	dt := elapsed.Seconds()
	if dt < 0 {
		return 0
	}
	// Clamp after stalls
	if dt > c.maxDt {
		return c.maxDt
	}
	return dt
}

// Pause stops simulation time
func (c *Clock) Pause() {
	if c.paused.CompareAndSwap(false, true) {
		c.mu.Lock()
		c.pauseStart = c.source.Now()
		c.mu.Unlock()
	}
}

// Resume continues simulation time
func (c *Clock) Resume() {
	if c.paused.CompareAndSwap(true, false) {
		c.mu.Lock()
		if !c.pauseStart.IsZero() {
			c.totalPaused += c.source.Now().Sub(c.pauseStart)
			c.pauseStart = time.Time{}
		}
		c.mu.Unlock()
	}
}

// Toggle flips the pause state and reports whether the clock is now paused
func (c *Clock) Toggle() bool {
	if c.IsPaused() {
		c.Resume()
		return false
	}
	c.Pause()
	return true
}

// IsPaused returns current pause state
func (c *Clock) IsPaused() bool {
	return c.paused.Load()
}

// TotalPaused returns cumulative pause time including any pause in progress
func (c *Clock) TotalPaused() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.totalPaused
	if c.paused.Load() && !c.pauseStart.IsZero() {
		total += c.source.Now().Sub(c.pauseStart)
	}
	return total
}
