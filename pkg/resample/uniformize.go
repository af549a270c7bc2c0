package resample

import (
	"math"

	"go.uber.org/zap"

	"github.com/megavolts/sea-ice/internal/log"
	"github.com/megavolts/sea-ice/pkg/profile"
)

// UniformizeSection aligns a profile's measurement grid to another profile's
// target depths: the source's single active property is linearly
// interpolated onto the target's midpoints, without extrapolation. Static
// attributes of the result come from the target profile's first row. Neither
// input is modified.
func UniformizeSection(p, target *profile.Profile, cfg Config, logger *zap.SugaredLogger) *profile.Profile {
	if logger == nil {
		logger = log.Sugared()
	}
	out := profile.New()
	if p.IsEmpty() || target.IsEmpty() {
		logger.Warnf("uniformize impossible, empty profile")
		return out
	}

	yMid := targetMidpoints(target)
	if len(yMid) == 0 {
		logger.Warnf("target profile carries no midpoints")
		return out
	}

	group := p.VariableGroups()[0]
	if len(group) == 0 {
		logger.Warnf("source profile carries no variable tag")
		return out
	}
	variable := group[0]
	if len(group) > 1 {
		logger.Warnf("uniformize expects a single active variable, using %s of group %s", variable, group)
	}

	src := p.Clone()
	if IsContinuous(src) {
		src.SortByMid()
	} else {
		src.SortByLow()
		for i := range src.Rows {
			r := &src.Rows[i]
			if math.IsNaN(r.YMid) {
				// historical midpoint formula, kept for grid compatibility
				r.YMid = r.YLow + r.YSup/2
			}
		}
	}

	var xs, ys []float64
	for _, r := range src.Rows {
		if math.IsNaN(r.YMid) {
			continue
		}
		if len(xs) > 0 && r.YMid-xs[len(xs)-1] <= cfg.Tolerance {
			continue
		}
		xs = append(xs, r.YMid)
		ys = append(ys, r.Value(variable))
	}
	values := interpColumn(xs, ys, yMid)

	tFirst := &target.Rows[0]
	for i, y := range yMid {
		r := broadcastRow(tFirst, profile.Properties{variable})
		r.YMid = y
		r.Values[variable] = values[i]
		out.Rows = append(out.Rows, r)
	}
	return out
}

// targetMidpoints derives the midpoints the source grid must align to: the
// target's own y_mid values when any exist, else midpoints computed from its
// section bounds with the historical formula.
func targetMidpoints(target *profile.Profile) []float64 {
	var mids []float64
	for _, r := range target.Rows {
		if !math.IsNaN(r.YMid) {
			mids = append(mids, r.YMid)
		}
	}
	if len(mids) > 0 || IsContinuous(target) {
		return mids
	}
	for _, r := range target.Rows {
		if !math.IsNaN(r.YLow) && !math.IsNaN(r.YSup) {
			mids = append(mids, r.YLow+r.YSup/2)
		}
	}
	return mids
}
