package resample

import (
	"math"

	"github.com/megavolts/sea-ice/pkg/profile"
)

// IsContinuous reports whether the profile is point-sampled (continuous,
// temperature-like) rather than section-sampled (stepped, salinity-like). A
// profile is continuous when no row carries a section lower bound; a single
// known y_low makes it stepped. An empty profile counts as continuous.
func IsContinuous(p *profile.Profile) bool {
	if p == nil {
		return true
	}
	for _, r := range p.Rows {
		if !math.IsNaN(r.YLow) {
			return false
		}
	}
	return true
}
