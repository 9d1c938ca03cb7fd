package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lixenwraith/gravfield/clock"
	"github.com/lixenwraith/gravfield/engine"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gravfield.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if cfg.Particles != 200000 || cfg.MaxFPS != 60 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Gravity != engine.DefaultGravityStrength || cfg.Timestep != clock.DefaultTimestep {
		t.Errorf("Defaults out of sync with engine and clock: %+v", cfg)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
particles = 5000
gravity = 0.2
variable_timestep = true
metrics_addr = ":9100"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Particles != 5000 || cfg.Gravity != 0.2 || !cfg.VariableTimestep || cfg.MetricsAddr != ":9100" {
		t.Errorf("File values not applied: %+v", cfg)
	}
	if cfg.AccelerationCap != engine.DefaultAccelerationCap {
		t.Errorf("Expected default cap to survive, got %f", cfg.AccelerationCap)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "particles = 10\ngravty = 1\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for misspelled key, got %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "particles = = 3")
	if _, err := Load(path); err == nil {
		t.Error("Expected decode error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "particles = 5000\ngravity = 0.2\n")
	cfg, err := Parse("gravfield", []string{"-config", path, "-particles", "42", "-audio"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Particles != 42 {
		t.Errorf("Expected flag to win, got %d particles", cfg.Particles)
	}
	if cfg.Gravity != 0.2 {
		t.Errorf("Expected file gravity 0.2, got %f", cfg.Gravity)
	}
	if !cfg.Audio {
		t.Error("Expected audio enabled by flag")
	}
}

func TestParseValidates(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero particles", []string{"-particles", "0"}},
		{"negative dt", []string{"-dt", "-1"}},
		{"zero fps", []string{"-fps", "0"}},
		{"negative cap", []string{"-accel-cap", "-0.1"}},
		{"small points", []string{"-point-size", "0.5"}},
		{"negative workers", []string{"-workers", "-2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse("gravfield", tt.args, io.Discard); !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}

	if _, err := Parse("gravfield", []string{"-nope"}, io.Discard); err == nil {
		t.Error("Expected error for unknown flag")
	}
}

func TestOptionBuilders(t *testing.T) {
	cfg := Default()
	if got := len(cfg.EngineOptions()); got != 3 {
		t.Errorf("Expected 3 engine options without spin, got %d", got)
	}
	cfg.Spin = 0.5
	if got := len(cfg.EngineOptions()); got != 4 {
		t.Errorf("Expected spin option, got %d options", got)
	}

	cfg.VariableTimestep = true
	c := clock.New(cfg.ClockOptions()...)
	if c.Mode() != clock.ModeVariable {
		t.Errorf("Expected variable clock, got %s", c.Mode())
	}
}
