package resample

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/megavolts/sea-ice/internal/log"
	"github.com/megavolts/sea-ice/pkg/profile"
)

// Options selects the target discretization and the gap/edge policies of a
// Discretize call. Exactly one of YBins and YMid is normally given; with
// both nil the target grid is rebuilt from the profile's own depths, and
// with only YMid given the bin edges are expanded outward from the midpoint
// half-gaps (first edge clamped at zero).
type Options struct {
	// YBins is the target bin edge sequence for stepped profiles.
	YBins []float64
	// YMid is the target midpoint sequence for continuous profiles.
	YMid []float64
	// FillGap interpolates across runs of NaN-valued sections before
	// re-binning.
	FillGap bool
	// FillExtremity emits nominal target edges even where they extend past
	// the covered data extent, instead of clipping to it.
	FillExtremity bool
}

// Discretize resamples every variable group of the profile onto the target
// discretization: point-sampled groups are linearly interpolated at the
// target midpoints, section-sampled groups are re-binned onto the target
// edges with length-weighted means and per-property coverage weights. The
// input profile is never modified; a new profile is returned. Data-quality
// problems degrade the output and are logged, they never fail the call.
func Discretize(p *profile.Profile, cfg Config, opts Options, logger *zap.SugaredLogger) *profile.Profile {
	if logger == nil {
		logger = log.Sugared()
	}
	out := profile.New()

	if p.IsEmpty() {
		logger.Warnf("discretization impossible, empty profile")
		return out
	}
	if name := p.Rows[0].Name; name != "" {
		logger.Infof("processing %s", name)
	} else {
		logger.Infof("processing core")
	}

	yBins, yMid := targetGrid(p, cfg, opts, logger)

	for _, group := range p.VariableGroups() {
		sub := profile.New()
		tag := group.String()
		for _, r := range p.Rows {
			if r.Variables.String() == tag {
				sub.Rows = append(sub.Rows, r.Clone())
			}
		}

		// Excluded properties are dropped from the output tag and values by
		// construction: output rows only ever carry the resampled set.
		resampled, _ := splitResamplable(group, cfg, logger)
		if len(resampled) == 0 {
			logger.Warnf("no resamplable property in group %s, skipping", tag)
			continue
		}

		var rows []profile.Row
		if IsContinuous(sub) {
			rows = discretizeContinuous(sub, resampled, yMid, cfg, logger)
		} else {
			rows = discretizeStep(sub, resampled, yBins, cfg, opts, logger)
		}
		out.Rows = append(out.Rows, rows...)
	}
	return out
}

// splitResamplable partitions a variable group into the properties that can
// be resampled (with their dependent subvariables attached) and those that
// cannot.
func splitResamplable(group profile.Properties, cfg Config, logger *zap.SugaredLogger) (resampled, excluded profile.Properties) {
	for _, prop := range group {
		if cfg.nonResamplable(prop) {
			logger.Warnf("%s variable cannot be discretized", prop)
			excluded = append(excluded, prop)
			excluded = append(excluded, cfg.Subvariables[prop]...)
			continue
		}
		logger.Infof("%s will be discretized", prop)
		if !resampled.Contains(prop) {
			resampled = append(resampled, prop)
		}
		for _, sub := range cfg.Subvariables[prop] {
			if !resampled.Contains(sub) {
				resampled = append(resampled, sub)
			}
		}
	}
	return resampled, excluded
}

// targetGrid resolves the target bin edges and midpoints from the options,
// deriving whichever was not supplied.
func targetGrid(p *profile.Profile, cfg Config, opts Options, logger *zap.SugaredLogger) (yBins, yMid []float64) {
	switch {
	case opts.YBins == nil && opts.YMid == nil:
		logger.Infof("y_bins and y_mid are empty, creating from profile")
		var edges, mids []float64
		for _, r := range p.Rows {
			if !math.IsNaN(r.YLow) {
				edges = append(edges, r.YLow)
			}
			if !math.IsNaN(r.YSup) {
				edges = append(edges, r.YSup)
			}
			if !math.IsNaN(r.YMid) {
				mids = append(mids, r.YMid)
			}
		}
		return sortedUnique(edges, cfg.Tolerance), sortedUnique(mids, cfg.Tolerance)

	case opts.YBins == nil:
		logger.Infof("y_bins is empty, creating from given y_mid")
		yMid = append([]float64(nil), opts.YMid...)
		sort.Float64s(yMid)
		return binsFromMidpoints(yMid, logger), yMid

	default:
		logger.Infof("y_mid is empty, creating from given y_bins")
		yBins = append([]float64(nil), opts.YBins...)
		yMid = make([]float64, 0, len(yBins)-1)
		for i := 0; i+1 < len(yBins); i++ {
			yMid = append(yMid, yBins[i]+(yBins[i+1]-yBins[i])/2)
		}
		return yBins, yMid
	}
}

// binsFromMidpoints expands bin edges outward from the half-gaps between
// consecutive midpoints, clamping the first edge at zero when the expansion
// would push it negative.
func binsFromMidpoints(yMid []float64, logger *zap.SugaredLogger) []float64 {
	if len(yMid) < 2 {
		logger.Warnf("cannot derive y_bins from %d midpoint(s)", len(yMid))
		return nil
	}
	bins := make([]float64, 0, len(yMid)+1)
	bins = append(bins, yMid[0]-(yMid[1]-yMid[0])/2)
	for i := 0; i+1 < len(yMid); i++ {
		bins = append(bins, yMid[i]+(yMid[i+1]-yMid[i])/2)
	}
	last := len(yMid) - 1
	bins = append(bins, yMid[last]+(yMid[last]-yMid[last-1])/2)
	if bins[0] < 0 {
		bins[0] = 0
	}
	return bins
}

// sortedUnique sorts values ascending and collapses entries closer than tol.
func sortedUnique(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v-out[len(out)-1] > tol {
			out = append(out, v)
		}
	}
	return out
}

// broadcastRow seeds an output row with the static attributes of the source
// group's first row; the resampled property set becomes the new group tag.
func broadcastRow(src *profile.Row, vars profile.Properties) profile.Row {
	out := profile.NewRow()
	out.Name = src.Name
	out.Date = src.Date
	out.VRef = src.VRef
	out.IceThickness = src.IceThickness
	out.Length = src.Length
	out.Variables = vars.Clone()
	if src.Extra != nil {
		out.Extra = make(map[string]string, len(src.Extra))
		for k, v := range src.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
