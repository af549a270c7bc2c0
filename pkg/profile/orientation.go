package profile

import (
	"math"

	"go.uber.org/zap"

	"github.com/megavolts/sea-ice/internal/log"
)

// Diagnostics records the data-quality outcomes of a reorientation. The
// pipeline never fails the batch on bad input; it logs, degrades and reports
// what it did here so callers do not have to scrape logs.
type Diagnostics struct {
	// DroppedGroups lists the variable groups deleted because neither an
	// ice thickness nor a core length was available to reorient them.
	DroppedGroups []Properties
	// InconsistentGroups lists the variable groups that carried more than
	// one vertical reference; the first reference found was used.
	InconsistentGroups []Properties
}

// Empty reports whether the reorientation completed without incident.
func (d Diagnostics) Empty() bool {
	return len(d.DroppedGroups) == 0 && len(d.InconsistentGroups) == 0
}

// SetOrientation rewrites the depth coordinates of every variable group so
// its vertical reference matches vref, using the group's ice thickness
// (else core length) as the flip axis: new = length - old, with the
// low/sup pair swapped to keep sections ascending. Groups with no known
// length cannot be reoriented and are deleted; groups carrying several
// references are processed best-effort using the first one. The profile is
// mutated in place and returned together with the diagnostics.
func SetOrientation(p *Profile, vref Reference, logger *zap.SugaredLogger) (*Profile, Diagnostics) {
	if logger == nil {
		logger = log.Sugared()
	}
	var diag Diagnostics
	dropped := map[string]bool{}

	for _, group := range p.VariableGroups() {
		idx := p.groupRows(group)

		current := p.Rows[idx[0]].VRef
		for _, i := range idx[1:] {
			if p.Rows[i].VRef != current {
				logger.Errorf("vertical reference for profile is not consistent (%s)", group)
				diag.InconsistentGroups = append(diag.InconsistentGroups, group)
				break
			}
		}
		if current == vref {
			logger.Debugf("profile orientation already set for %s", group)
			continue
		}

		lc := characteristicLength(p, idx)
		if math.IsNaN(lc) {
			name := p.Rows[idx[0]].Name
			logger.Warnf("missing core length or ice thickness, impossible to set profile orientation to %s, deleting profile (%s)", vref, name)
			diag.DroppedGroups = append(diag.DroppedGroups, group)
			dropped[group.String()] = true
			continue
		}

		for _, i := range idx {
			r := &p.Rows[i]
			if !math.IsNaN(r.YLow) {
				r.YLow = lc - r.YLow
			}
			if !math.IsNaN(r.YMid) {
				r.YMid = lc - r.YMid
			}
			if !math.IsNaN(r.YSup) {
				r.YSup = lc - r.YSup
			}
			if !math.IsNaN(r.YLow) && !math.IsNaN(r.YSup) && r.YLow > r.YSup {
				r.YLow, r.YSup = r.YSup, r.YLow
			}
			r.VRef = vref
		}
	}

	if len(dropped) > 0 {
		kept := p.Rows[:0]
		for _, r := range p.Rows {
			if !dropped[r.Variables.String()] {
				kept = append(kept, r)
			}
		}
		p.Rows = kept
	}
	return p, diag
}

// SetVerticalReference reorients the profile to newVRef ("" keeps the
// profile's own reference) and then shifts every depth column down by hRef,
// referencing the profile to a fixed datum instead of a core end. hRef may
// be NaN for no shift. With inplace false the receiver is left untouched.
func SetVerticalReference(p *Profile, hRef float64, newVRef Reference, inplace bool, logger *zap.SugaredLogger) (*Profile, Diagnostics) {
	if logger == nil {
		logger = log.Sugared()
	}
	if newVRef == "" {
		if p.IsEmpty() {
			return p, Diagnostics{}
		}
		newVRef = p.Rows[0].VRef
		for _, r := range p.Rows[1:] {
			if r.VRef != newVRef {
				logger.Errorf("vertical references for profile are not consistent")
				break
			}
		}
	}

	target := p
	if !inplace {
		target = p.Clone()
	}
	target, diag := SetOrientation(target, newVRef, logger)

	if !math.IsNaN(hRef) {
		for i := range target.Rows {
			r := &target.Rows[i]
			if !math.IsNaN(r.YLow) {
				r.YLow -= hRef
			}
			if !math.IsNaN(r.YMid) {
				r.YMid -= hRef
			}
			if !math.IsNaN(r.YSup) {
				r.YSup -= hRef
			}
		}
	}
	return target, diag
}

// characteristicLength returns the first known ice thickness among the rows,
// falling back to the first known core length, NaN when neither exists.
func characteristicLength(p *Profile, idx []int) float64 {
	for _, i := range idx {
		if !math.IsNaN(p.Rows[i].IceThickness) {
			return p.Rows[i].IceThickness
		}
	}
	for _, i := range idx {
		if !math.IsNaN(p.Rows[i].Length) {
			return p.Rows[i].Length
		}
	}
	return math.NaN()
}
