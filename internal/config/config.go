package config

import (
	"fmt"
	"math/bits"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ari-sharma/conjunction/internal/propagate"
)

const (
	DefaultParticles = 100000
	DefaultChunks    = 8
	DefaultDt        = 0.46 * 8
	DefaultBatchSize = 8
	DefaultOrder     = 20
)

// Config is the superstep-scoped configuration the driver loads once per
// run and threads through the AABB/BVH pipeline.
type Config struct {
	Particles int     `yaml:"particles"`
	Chunks    int     `yaml:"chunks"`     // K, must be a power of two
	Dt        float64 `yaml:"dt"`         // superstep length
	BatchSize int     `yaml:"batch_size"` // B, integrator batch width
	Order     int     `yaml:"order"`      // Taylor order
	Seed      int64   `yaml:"seed"`
	Verify    bool    `yaml:"verify"` // run the BVH verifier (C9) after every build
}

// DefaultConfig returns the historical source's fixed values (Δt=0.46*8,
// K=8) as a starting point, now runtime-overridable (OQ2).
func DefaultConfig() *Config {
	return &Config{
		Particles: DefaultParticles,
		Chunks:    DefaultChunks,
		Dt:        DefaultDt,
		BatchSize: DefaultBatchSize,
		Order:     DefaultOrder,
		Seed:      0,
		Verify:    false,
	}
}

// Load reads a YAML config file, applying DefaultConfig's values as a base
// for any field the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", propagate.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate enforces the constraints the bit-level discretiser/encoder
// inherit (OQ2): Chunks must be a power of two, and the remaining
// quantities must be positive.
func (c *Config) Validate() error {
	if c.Particles <= 0 {
		return fmt.Errorf("%w: particles must be positive, got %d", propagate.ErrInvalidConfig, c.Particles)
	}
	if c.Chunks <= 0 || bits.OnesCount(uint(c.Chunks)) != 1 {
		return fmt.Errorf("%w: got %d", propagate.ErrNonPowerOfTwoK, c.Chunks)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", propagate.ErrInvalidConfig, c.Dt)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive, got %d", propagate.ErrInvalidConfig, c.BatchSize)
	}
	if c.Order < 1 {
		return fmt.Errorf("%w: order must be at least 1, got %d", propagate.ErrInvalidConfig, c.Order)
	}
	return nil
}
