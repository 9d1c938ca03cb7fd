// Package config resolves simulator settings from defaults, an optional TOML
// file and command-line flags, in that order of precedence.
package config

import (
	"flag"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/lixenwraith/gravfield/clock"
	"github.com/lixenwraith/gravfield/engine"
)

var ErrInvalid = errors.New("config: invalid value")

// Config holds every tunable of the host shell and engine
type Config struct {
	Particles        int     `toml:"particles"`
	Gravity          float64 `toml:"gravity"`
	AccelerationCap  float64 `toml:"acceleration_cap"`
	PointSize        float64 `toml:"point_size"`
	Spin             float64 `toml:"spin"`
	Timestep         float64 `toml:"timestep"`
	VariableTimestep bool    `toml:"variable_timestep"`
	MaxFPS           int     `toml:"max_fps"`
	Workers          int     `toml:"workers"`
	Seed             int64   `toml:"seed"` // 0 seeds from the clock
	Audio            bool    `toml:"audio"`
	Debug            bool    `toml:"debug"`
	MetricsAddr      string  `toml:"metrics_addr"`
}

// Default returns the reference settings
func Default() Config {
	return Config{
		Particles:       200000,
		Gravity:         engine.DefaultGravityStrength,
		AccelerationCap: engine.DefaultAccelerationCap,
		PointSize:       engine.DefaultPointSize,
		Timestep:        clock.DefaultTimestep,
		MaxFPS:          60,
	}
}

// Load decodes a TOML file over the defaults
// Unknown keys are rejected
func Load(path string) (Config, error) {
	cfg := Default()
	if err := cfg.decodeFile(path); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return errors.Wrapf(err, "config: decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.Wrapf(ErrInvalid, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// bind registers a flag for every field, defaulting to the current values
func (c *Config) bind(fs *flag.FlagSet) {
	fs.IntVar(&c.Particles, "particles", c.Particles, "Number of particles")
	fs.Float64Var(&c.Gravity, "gravity", c.Gravity, "Attractor strength k")
	fs.Float64Var(&c.AccelerationCap, "accel-cap", c.AccelerationCap, "Maximum acceleration magnitude")
	fs.Float64Var(&c.PointSize, "point-size", c.PointSize, "Rendered point size in pixels")
	fs.Float64Var(&c.Spin, "spin", c.Spin, "Initial angular velocity around the origin (rad/s)")
	fs.Float64Var(&c.Timestep, "dt", c.Timestep, "Fixed timestep, or the clamp in variable mode (s)")
	fs.BoolVar(&c.VariableTimestep, "variable-dt", c.VariableTimestep, "Step by measured frame time")
	fs.IntVar(&c.MaxFPS, "fps", c.MaxFPS, "Frame rate cap")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Device worker goroutines, 0 = GOMAXPROCS")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed, 0 = time based")
	fs.BoolVar(&c.Audio, "audio", c.Audio, "Enable audio cues")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "Write a debug log under logs/")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "Serve Prometheus metrics on this address")
}

// Parse resolves settings from args (without the program name)
// A -config file is applied over the defaults, then explicit flags win
func Parse(name string, args []string, output io.Writer) (Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	path := fs.String("config", "", "TOML settings file")
	cfg.bind(fs)

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *path != "" {
		if err := cfg.decodeFile(*path); err != nil {
			return cfg, err
		}
		// Reapply flags over the file values
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the engine or host cannot run with
func (c Config) Validate() error {
	switch {
	case c.Particles <= 0:
		return errors.Wrapf(ErrInvalid, "particles must be positive, got %d", c.Particles)
	case c.Timestep <= 0:
		return errors.Wrapf(ErrInvalid, "timestep must be positive, got %g", c.Timestep)
	case c.MaxFPS <= 0:
		return errors.Wrapf(ErrInvalid, "fps must be positive, got %d", c.MaxFPS)
	case c.AccelerationCap < 0:
		return errors.Wrapf(ErrInvalid, "acceleration cap must not be negative, got %g", c.AccelerationCap)
	case c.PointSize < 1:
		return errors.Wrapf(ErrInvalid, "point size must be at least 1, got %g", c.PointSize)
	case c.Workers < 0:
		return errors.Wrapf(ErrInvalid, "workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// ClockOptions returns the timestep configuration for clock.New
func (c Config) ClockOptions() []clock.Option {
	if c.VariableTimestep {
		return []clock.Option{clock.Variable(c.Timestep)}
	}
	return []clock.Option{clock.Fixed(c.Timestep)}
}

// EngineOptions returns the physics configuration for engine.New
func (c Config) EngineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithGravity(c.Gravity),
		engine.WithAccelerationCap(c.AccelerationCap),
		engine.WithPointSize(c.PointSize),
	}
	if c.Spin != 0 {
		opts = append(opts, engine.WithSpin(c.Spin, c.Timestep))
	}
	return opts
}
