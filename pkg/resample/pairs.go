package resample

import (
	"math"

	"github.com/megavolts/sea-ice/pkg/profile"
)

// StepPairs holds a depth/value sequence suitable for drawing a profile as a
// staircase (stepped sources repeat each value at both section bounds) or a
// polyline (point-sampled sources). The toolkit performs no rendering; a
// plotting layer can compare the pairs of an original and a resampled
// profile for visual QA.
type StepPairs struct {
	Depths []float64
	Values []float64
}

// DepthValuePairs extracts the drawable depth/value pairs of one property.
func DepthValuePairs(p *profile.Profile, property string) StepPairs {
	var pairs StepPairs
	if p.IsEmpty() {
		return pairs
	}
	if IsContinuous(p) {
		for _, r := range p.Rows {
			if math.IsNaN(r.YMid) {
				continue
			}
			pairs.Depths = append(pairs.Depths, r.YMid)
			pairs.Values = append(pairs.Values, r.Value(property))
		}
		return pairs
	}
	for _, r := range p.Rows {
		if math.IsNaN(r.YLow) || math.IsNaN(r.YSup) {
			continue
		}
		v := r.Value(property)
		pairs.Depths = append(pairs.Depths, r.YLow, r.YSup)
		pairs.Values = append(pairs.Values, v, v)
	}
	return pairs
}
