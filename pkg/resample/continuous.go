package resample

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/interp"

	"github.com/megavolts/sea-ice/pkg/profile"
)

// discretizeContinuous interpolates a point-sampled variable group onto the
// target midpoints. Target depths matching a source depth within tolerance
// receive the source values verbatim; targets outside the source domain get
// NaN and weight 0; the source extremes are appended as weight-0 anchor rows
// when the target grid does not already contain them.
func discretizeContinuous(sub *profile.Profile, vars profile.Properties, yMid []float64, cfg Config, logger *zap.SugaredLogger) []profile.Row {
	xs, srcIdx := sourceDepths(sub, cfg.Tolerance, logger)
	if len(xs) == 0 {
		logger.Warnf("no point samples to interpolate in group %s", vars)
		return nil
	}

	columns := make(map[string][]float64, len(vars))
	for _, v := range vars {
		ys := make([]float64, len(xs))
		for i, ri := range srcIdx {
			ys[i] = sub.Rows[ri].Value(v)
		}
		columns[v] = interpColumn(xs, ys, yMid)
	}

	first := &sub.Rows[0]
	lo, hi := xs[0], xs[len(xs)-1]

	rows := make([]profile.Row, 0, len(yMid)+2)
	for ti, t := range yMid {
		r := broadcastRow(first, vars)
		r.YMid = t

		w := 0.0
		if lo-cfg.Tolerance <= t && t <= hi+cfg.Tolerance {
			w = 1.0
		}
		for _, v := range vars {
			r.Values[v] = columns[v][ti]
			r.Weights[v] = w
		}
		// measured depths are copied, not interpolated
		for i, x := range xs {
			if cfg.sameDepth(t, x) {
				for _, v := range vars {
					r.Values[v] = sub.Rows[srcIdx[i]].Value(v)
				}
				break
			}
		}
		rows = append(rows, r)
	}

	for _, edge := range []int{0, len(xs) - 1} {
		x := xs[edge]
		if containsDepth(yMid, x, cfg.Tolerance) {
			continue
		}
		r := broadcastRow(first, vars)
		r.YMid = x
		for _, v := range vars {
			r.Values[v] = sub.Rows[srcIdx[edge]].Value(v)
			r.Weights[v] = 0
		}
		rows = append(rows, r)
		if edge == 0 && len(xs) == 1 {
			break
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].YMid < rows[j].YMid })
	return rows
}

// sourceDepths returns the sorted distinct sample depths of the group and
// the index of the row providing each. Duplicate depths keep their first
// row.
func sourceDepths(sub *profile.Profile, tol float64, logger *zap.SugaredLogger) (xs []float64, srcIdx []int) {
	order := make([]int, 0, len(sub.Rows))
	for i, r := range sub.Rows {
		if !math.IsNaN(r.YMid) {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sub.Rows[order[a]].YMid < sub.Rows[order[b]].YMid
	})
	for _, i := range order {
		y := sub.Rows[i].YMid
		if len(xs) > 0 && y-xs[len(xs)-1] <= tol {
			logger.Debugf("duplicate sample depth %g, keeping first", y)
			continue
		}
		xs = append(xs, y)
		srcIdx = append(srcIdx, i)
	}
	return xs, srcIdx
}

// interpColumn evaluates a piecewise-linear interpolant of (xs, ys) at every
// target, yielding NaN outside [xs[0], xs[last]]. A single-point source only
// matches its own depth, handled by the verbatim-copy pass.
func interpColumn(xs, ys, targets []float64) []float64 {
	out := make([]float64, len(targets))
	fitted := false
	var pl interp.PiecewiseLinear
	if len(xs) >= 2 {
		if err := pl.Fit(xs, ys); err == nil {
			fitted = true
		}
	}
	for i, t := range targets {
		if !fitted || t < xs[0] || t > xs[len(xs)-1] {
			out[i] = math.NaN()
			continue
		}
		out[i] = pl.Predict(t)
	}
	return out
}

// containsDepth reports whether any value in depths equals y within tol.
func containsDepth(depths []float64, y, tol float64) bool {
	for _, d := range depths {
		if math.Abs(d-y) <= tol {
			return true
		}
	}
	return false
}
