package config

// Presets ships named scenarios for a reproducible demo run, keyed by
// name, the same way the source's per-model preset map is keyed by
// scenario name, here repurposed for particle-field presets instead of
// pendulum initial conditions.
var Presets = map[string]*Config{
	"leo-shell": {
		Particles: 200000,
		Chunks:    8,
		Dt:        DefaultDt,
		BatchSize: 8,
		Order:     20,
		Verify:    true,
	},
	"debris-field": {
		Particles: 1000000,
		Chunks:    16,
		Dt:        DefaultDt,
		BatchSize: 8,
		Order:     20,
		Verify:    false,
	},
	"tight-cluster": {
		Particles: 5000,
		Chunks:    4,
		Dt:        DefaultDt / 8,
		BatchSize: 8,
		Order:     20,
		Verify:    true,
	},
}

// GetPreset looks up a named preset, returning nil if it does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ListPresets returns the names of every available preset.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
