package resample

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/megavolts/sea-ice/pkg/profile"
)

// section is one piecewise-constant source interval, its values aligned with
// the resampled property set.
type section struct {
	low, sup float64
	vals     []float64
}

// binResult is one emitted target bin before the boundary rebuild.
type binResult struct {
	low, sup float64
	vals     []float64 // length-weighted means, NaN where no valid coverage
	weights  []float64 // structural coverage fraction of the bin span
}

// discretizeStep re-bins a section-sampled variable group onto the target
// bin edges. For each target bin the overlapping source sections contribute
// value*overlap to a length-weighted mean; the bin's coverage weight is the
// fraction of its span covered by any section, valid or NaN. Bins touching
// no section are skipped. Without FillExtremity, bin edges reaching past the
// covered data extent are clipped to it.
func discretizeStep(sub *profile.Profile, vars profile.Properties, yBins []float64, cfg Config, opts Options, logger *zap.SugaredLogger) []profile.Row {
	if len(yBins) < 2 {
		logger.Warnf("no target bins for group %s", vars)
		return nil
	}
	yBins = normalizeBins(yBins, logger)

	sections := collectSections(sub, vars, cfg, logger)
	if len(sections) == 0 {
		logger.Warnf("no sections to re-bin in group %s", vars)
		return nil
	}
	sections = insertGapSections(sections, len(vars), cfg.Tolerance)
	if opts.FillGap {
		fillGaps(sections, len(vars))
	}

	var results []binResult
	for i := 0; i+1 < len(yBins); i++ {
		b0, b1 := yBins[i], yBins[i+1]
		overlapping := overlappingSections(sections, b0, b1, cfg.Tolerance)
		if len(overlapping) == 0 {
			// no source coverage at all: no output row for this bin
			continue
		}

		res := binResult{
			vals:    make([]float64, len(vars)),
			weights: make([]float64, len(vars)),
		}
		sums := make([]float64, len(vars))
		covered := make([]float64, len(vars))
		coveredNaN := make([]float64, len(vars))
		for _, si := range overlapping {
			s := sections[si]
			ov := math.Min(s.sup, b1) - math.Max(s.low, b0)
			if ov <= 0 {
				continue
			}
			for vi, v := range s.vals {
				if math.IsNaN(v) {
					coveredNaN[vi] += ov
				} else {
					sums[vi] += v * ov
					covered[vi] += ov
				}
			}
		}
		width := b1 - b0
		for vi := range vars {
			if covered[vi] > 0 {
				res.vals[vi] = sums[vi] / covered[vi]
			} else {
				res.vals[vi] = math.NaN()
			}
			res.weights[vi] = (covered[vi] + coveredNaN[vi]) / width
		}

		first := sections[overlapping[0]]
		last := sections[overlapping[len(overlapping)-1]]
		switch {
		case first.low-b0 > cfg.Tolerance && !opts.FillExtremity:
			res.low, res.sup = first.low, b1
		case b1-last.sup > cfg.Tolerance && !opts.FillExtremity:
			res.low, res.sup = b0, last.sup
		default:
			res.low, res.sup = b0, b1
		}
		results = append(results, res)
	}
	if len(results) == 0 {
		return nil
	}

	return buildStepRows(sub, vars, results, cfg)
}

// normalizeBins ensures ascending bin edges: a fully descending sequence is
// reversed, anything else unsorted is logged and used as-is.
func normalizeBins(yBins []float64, logger *zap.SugaredLogger) []float64 {
	ascending, descending := true, true
	for i := 0; i+1 < len(yBins); i++ {
		if yBins[i+1] > yBins[i] {
			descending = false
		}
		if yBins[i+1] < yBins[i] {
			ascending = false
		}
	}
	switch {
	case descending && !ascending:
		logger.Infof("y_bins is descending, reverting the list")
		reversed := append([]float64(nil), yBins...)
		floats.Reverse(reversed)
		return reversed
	case ascending:
		logger.Debugf("y_bins is ascending")
	default:
		logger.Infof("y_bins is not sorted")
	}
	return yBins
}

// collectSections extracts the source sections of the group, sorted by lower
// bound. Rows missing either bound cannot define an interval and are
// skipped.
func collectSections(sub *profile.Profile, vars profile.Properties, cfg Config, logger *zap.SugaredLogger) []section {
	var sections []section
	for i := range sub.Rows {
		r := &sub.Rows[i]
		if math.IsNaN(r.YLow) || math.IsNaN(r.YSup) {
			logger.Debugf("skipping section row without bounds (y_mid %g)", r.YMid)
			continue
		}
		s := section{low: r.YLow, sup: r.YSup, vals: make([]float64, len(vars))}
		for vi, v := range vars {
			s.vals[vi] = r.Value(v)
		}
		sections = append(sections, s)
	}
	sort.SliceStable(sections, func(a, b int) bool { return sections[a].low < sections[b].low })
	return sections
}

// insertGapSections makes gaps between consecutive sections explicit as
// synthetic all-NaN sections.
func insertGapSections(sections []section, nVar int, tol float64) []section {
	out := make([]section, 0, len(sections))
	for i, s := range sections {
		out = append(out, s)
		if i+1 == len(sections) {
			break
		}
		next := sections[i+1]
		if next.low-s.sup > tol {
			gap := section{low: s.sup, sup: next.low, vals: make([]float64, nVar)}
			for vi := range gap.vals {
				gap.vals[vi] = math.NaN()
			}
			out = append(out, gap)
		}
	}
	return out
}

// fillGaps replaces NaN runs in each property column by linear interpolation
// between the nearest valid sections on either side, weighted by the
// midpoint's position between the bracketing section edges. A run with no
// valid neighbor on one side stays NaN on that account.
func fillGaps(sections []section, nVar int) {
	for vi := 0; vi < nVar; vi++ {
		for i := 0; i < len(sections); i++ {
			if !math.IsNaN(sections[i].vals[vi]) {
				continue
			}
			lo := i - 1
			for lo >= 0 && math.IsNaN(sections[lo].vals[vi]) {
				lo--
			}
			hi := i + 1
			for hi < len(sections) && math.IsNaN(sections[hi].vals[vi]) {
				hi++
			}
			if lo < 0 || hi >= len(sections) {
				continue
			}
			vLow := sections[lo].vals[vi]
			vSup := sections[hi].vals[vi]
			span := sections[hi].low - sections[lo].sup
			if span == 0 {
				continue
			}
			mid := sections[i].low + (sections[i].sup-sections[i].low)/2
			sections[i].vals[vi] = vLow + (mid-sections[lo].sup)*(vSup-vLow)/span
		}
	}
}

// overlappingSections returns the indices of the sections intersecting the
// target bin [b0, b1): sections straddling either edge and sections
// contained within the bin, tolerance applied the same way on both sides.
func overlappingSections(sections []section, b0, b1, tol float64) []int {
	var idx []int
	for i, s := range sections {
		straddlesLow := s.low < b0-tol && s.sup > b0+tol
		contained := s.low >= b0-tol && s.sup <= b1+tol && s.sup-s.low > tol
		straddlesSup := s.low < b1-tol && s.sup > b1+tol
		if straddlesLow || contained || straddlesSup {
			idx = append(idx, i)
		}
	}
	return idx
}

// buildStepRows rebuilds output sections from the unique set of emitted
// boundaries; edge clipping can leave boundaries off the nominal target
// grid, so consecutive boundary pairs are matched back to the emitted bins.
func buildStepRows(sub *profile.Profile, vars profile.Properties, results []binResult, cfg Config) []profile.Row {
	var bounds []float64
	for _, res := range results {
		bounds = append(bounds, res.low, res.sup)
	}
	bounds = sortedUnique(bounds, cfg.Tolerance)

	first := &sub.Rows[0]
	rows := make([]profile.Row, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		u0, u1 := bounds[i], bounds[i+1]
		r := broadcastRow(first, vars)
		r.YLow = u0
		r.YMid = u0 + (u1-u0)/2
		r.YSup = u1
		var match *binResult
		for ri := range results {
			if cfg.sameDepth(results[ri].low, u0) && cfg.sameDepth(results[ri].sup, u1) {
				match = &results[ri]
				break
			}
		}
		for vi, v := range vars {
			if match != nil {
				r.Values[v] = match.vals[vi]
				r.Weights[v] = match.weights[vi]
			} else {
				r.Values[v] = math.NaN()
				r.Weights[v] = math.NaN()
			}
		}
		rows = append(rows, r)
	}
	return rows
}
