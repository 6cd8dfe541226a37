package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ari-sharma/conjunction/internal/propagate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Particles <= 0 {
		t.Error("particles should be positive")
	}
	if cfg.Chunks != 8 {
		t.Errorf("expected default chunks 8, got %d", cfg.Chunks)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidateRejectsNonPowerOfTwoChunks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunks = 7
	if err := cfg.Validate(); !errors.Is(err, propagate.ErrNonPowerOfTwoK) {
		t.Errorf("expected ErrNonPowerOfTwoK, got %v", err)
	}
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"particles", func(c *Config) { c.Particles = 0 }},
		{"dt", func(c *Config) { c.Dt = 0 }},
		{"batch_size", func(c *Config) { c.BatchSize = 0 }},
		{"order", func(c *Config) { c.Order = 0 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, propagate.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")

	cfg := DefaultConfig()
	cfg.Particles = 4242
	cfg.Chunks = 16

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Particles != 4242 || loaded.Chunks != 16 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := Load(path)
	if err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("Load must not create the file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("leo-shell")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset leo-shell should validate: %v", err)
	}
}

func TestGetPresetNotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) == 0 {
		t.Error("expected at least one preset")
	}
}

func TestGetPresetReturnsACopy(t *testing.T) {
	a := GetPreset("leo-shell")
	a.Particles = 1
	b := GetPreset("leo-shell")
	if b.Particles == 1 {
		t.Error("GetPreset should return an independent copy")
	}
}
