// Package resample converts sea-ice core property profiles between sampling
// representations and target vertical discretizations: point-sampled
// (temperature-like) profiles are linearly interpolated, section-sampled
// (salinity-like) profiles are re-binned with length-weighted averages and
// per-bin coverage weights.
package resample

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats/scalar"
	"gopkg.in/yaml.v2"

	"github.com/megavolts/sea-ice/pkg/profile"
)

// Config carries the knobs of the discretization engine. Passing it
// explicitly (instead of package globals) lets tests vary the tolerance and
// the dependency table.
type Config struct {
	// Tolerance is the absolute depth tolerance used by every edge and
	// exact-match comparison.
	Tolerance float64 `yaml:"tolerance"`

	// Subvariables maps a parent property to the auxiliary properties that
	// follow it through discretization and deletion.
	Subvariables profile.Subvariables `yaml:"subvariables"`

	// NonResamplable lists properties that must not be interpolated or
	// re-binned, such as conductivity, whose value depends non-linearly on
	// its measurement temperature.
	NonResamplable []string `yaml:"non_resamplable"`
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Tolerance:      1e-6,
		Subvariables:   profile.DefaultSubvariables(),
		NonResamplable: []string{"conductivity"},
	}
}

// LoadConfig reads a Config from a YAML file. Fields left unset fall back
// to the defaults.
func LoadConfig(filename string) (Config, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading resample config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing resample config: %w", err)
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultConfig().Tolerance
	}
	return cfg, nil
}

// sameDepth reports whether two depths coincide within the configured
// tolerance. All exact-depth comparisons in the engine go through here.
func (c Config) sameDepth(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, c.Tolerance)
}

// nonResamplable reports whether the property must be excluded from
// interpolation and re-binning.
func (c Config) nonResamplable(name string) bool {
	for _, prop := range c.NonResamplable {
		if prop == name {
			return true
		}
	}
	return false
}
