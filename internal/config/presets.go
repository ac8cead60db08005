package config

import (
	"sort"

	"github.com/san-kum/orrery/internal/camera"
	"github.com/san-kum/orrery/internal/engine"
)

type preset struct {
	description string
	apply       func(*Config)
}

var presets = map[string]preset{
	"earth": {
		description: "Earth from four radii at real time",
		apply:       func(c *Config) {},
	},
	"mars": {
		description: "follow Mars at one hour per second",
		apply: func(c *Config) {
			c.Target = "Mars"
			c.Mode = camera.Follow.String()
			c.TimeScale = 3600
		},
	},
	"jupiter-system": {
		description: "Jupiter at one day per second",
		apply: func(c *Config) {
			c.Target = "Jupiter"
			c.Reference = "Jupiter"
			c.TimeScale = 86400
		},
	},
	"surface-greenwich": {
		description: "the Sun seen from Greenwich, ten minutes per second",
		apply: func(c *Config) {
			c.Target = "Sun"
			c.Reference = "Earth"
			c.Mode = camera.ViewFromSurface.String()
			c.TimeScale = 600
			c.Location = &LocationConfig{Body: "Earth", Lat: 51.4769, Lon: 0}
		},
	},
	"fast-forward": {
		description: "the inner system at thirty days per second",
		apply: func(c *Config) {
			c.Target = "Sun"
			c.Reference = "Earth"
			c.TimeScale = 30 * 86400
			c.Camera.Position = &[3]float64{0, 3e8, 4e8}
			c.Camera.LookAt = &[3]float64{0, 0, 0}
		},
	},
	"nbody": {
		description: "Newtonian gravity with leapfrog at one day per second",
		apply: func(c *Config) {
			c.TimeScale = 86400
			c.Physics.Strategy = engine.StrategyGravity
			c.Physics.Integrator = "leapfrog"
			c.Physics.MaxStep = 1800
		},
	},
}

// GetPreset returns the default config with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

// DescribePreset returns the preset's one-line description.
func DescribePreset(name string) string {
	return presets[name].description
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
