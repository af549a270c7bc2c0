// Package profile models depth-indexed physical property measurements taken
// along sea-ice cores. A Profile is an ordered collection of rows, each row
// carrying the depth coordinates of one measurement, the values of the
// properties measured together at that depth, and the static core attributes
// (name, date, vertical reference, core length) the measurement belongs to.
//
// The same shape serves both a single-core profile and a stacked collection
// of profiles from many cores; stack-level operations live in select.go.
package profile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/megavolts/sea-ice/internal/log"
)

// Reference identifies the vertical datum depth coordinates are counted from.
type Reference string

const (
	// Top counts depths downward from the ice surface.
	Top Reference = "top"
	// Bottom counts depths upward from the ice/ocean interface.
	Bottom Reference = "bottom"
)

// Properties is an ordered set of property identifiers measured together on
// one shared depth grid. It replaces the comma-joined variable tag of the
// ingest format; String reproduces the tag.
type Properties []string

// ParseProperties splits a comma-joined variable tag into an ordered
// property set. Empty items are dropped.
func ParseProperties(tag string) Properties {
	var props Properties
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !props.Contains(part) {
			props = append(props, part)
		}
	}
	return props
}

func (p Properties) String() string {
	return strings.Join(p, ", ")
}

// Contains reports whether name is part of the set.
func (p Properties) Contains(name string) bool {
	for _, prop := range p {
		if prop == name {
			return true
		}
	}
	return false
}

// Without returns a copy of the set with the given names removed.
func (p Properties) Without(names ...string) Properties {
	out := make(Properties, 0, len(p))
	for _, prop := range p {
		removed := false
		for _, name := range names {
			if prop == name {
				removed = true
				break
			}
		}
		if !removed {
			out = append(out, prop)
		}
	}
	return out
}

// Equal reports whether both sets hold the same properties in the same order.
func (p Properties) Equal(other Properties) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (p Properties) Clone() Properties {
	return append(Properties(nil), p...)
}

// Subvariables maps a parent property to the auxiliary properties that travel
// with it through discretization and deletion (e.g. the temperature at which
// a conductivity reading was taken).
type Subvariables map[string][]string

// DefaultSubvariables returns the dependency table of the standard ingest
// format.
func DefaultSubvariables() Subvariables {
	return Subvariables{
		"conductivity": {"conductivity measurement temperature"},
	}
}

// Row is one measurement row. Depth coordinates and core lengths use NaN for
// "absent": a point sample carries only YMid, a section sample carries YLow
// and YSup (YMid derivable as the midpoint). Values maps property name to
// measured value; Weights carries per-property coverage weights produced by
// discretization; Extra holds free-form static metadata columns that are
// broadcast untouched through every operation.
type Row struct {
	Name         string
	Date         time.Time
	VRef         Reference
	Variables    Properties
	YLow         float64
	YMid         float64
	YSup         float64
	IceThickness float64
	Length       float64
	Values       map[string]float64
	Weights      map[string]float64
	Extra        map[string]string
}

// NewRow returns a row with all depth and length fields set to NaN and the
// value maps allocated.
func NewRow() Row {
	nan := math.NaN()
	return Row{
		YLow:         nan,
		YMid:         nan,
		YSup:         nan,
		IceThickness: nan,
		Length:       nan,
		Values:       map[string]float64{},
		Weights:      map[string]float64{},
	}
}

// Value returns the measured value for the named property, NaN when the row
// does not carry it.
func (r *Row) Value(name string) float64 {
	if v, ok := r.Values[name]; ok {
		return v
	}
	return math.NaN()
}

// Weight returns the coverage weight for the named property, NaN when the
// row does not carry one.
func (r *Row) Weight(name string) float64 {
	if w, ok := r.Weights[name]; ok {
		return w
	}
	return math.NaN()
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := r
	out.Variables = r.Variables.Clone()
	out.Values = make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	out.Weights = make(map[string]float64, len(r.Weights))
	for k, v := range r.Weights {
		out.Weights[k] = v
	}
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Profile is an ordered sequence of measurement rows for one core, or a
// stacked collection of such rows for many cores.
type Profile struct {
	Rows []Row
}

// New returns an empty profile.
func New() *Profile {
	return &Profile{}
}

// IsEmpty reports whether the profile holds no rows.
func (p *Profile) IsEmpty() bool {
	return p == nil || len(p.Rows) == 0
}

// Clone returns an independent deep copy of the profile.
func (p *Profile) Clone() *Profile {
	out := &Profile{Rows: make([]Row, len(p.Rows))}
	for i, r := range p.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Properties returns the union of all rows' property sets, in first
// appearance order, or nil when the profile carries none.
func (p *Profile) Properties() Properties {
	var props Properties
	for _, r := range p.Rows {
		for _, prop := range r.Variables {
			if !props.Contains(prop) {
				props = append(props, prop)
			}
		}
	}
	return props
}

// VariableGroups returns the distinct variable groups present in the
// profile, in first appearance order.
func (p *Profile) VariableGroups() []Properties {
	var groups []Properties
	seen := map[string]bool{}
	for _, r := range p.Rows {
		tag := r.Variables.String()
		if !seen[tag] {
			seen[tag] = true
			groups = append(groups, r.Variables.Clone())
		}
	}
	return groups
}

// groupRows returns the indices of the rows belonging to the given variable
// group.
func (p *Profile) groupRows(group Properties) []int {
	tag := group.String()
	var idx []int
	for i, r := range p.Rows {
		if r.Variables.String() == tag {
			idx = append(idx, i)
		}
	}
	return idx
}

// Name returns the core name of the profile. When rows disagree the first
// name wins and a warning is logged.
func (p *Profile) Name() string {
	if p.IsEmpty() {
		return ""
	}
	first := p.Rows[0].Name
	for _, r := range p.Rows[1:] {
		if r.Name != first {
			log.Warnf("%s: more than one name in the profile (also %s)", first, r.Name)
			break
		}
	}
	return first
}

// SortByMid sorts rows by midpoint depth, NaN midpoints last.
func (p *Profile) SortByMid() {
	sort.SliceStable(p.Rows, func(i, j int) bool {
		return lessNaNLast(p.Rows[i].YMid, p.Rows[j].YMid)
	})
}

// SortByLow sorts rows by section lower bound, NaN bounds last.
func (p *Profile) SortByLow() {
	sort.SliceStable(p.Rows, func(i, j int) bool {
		return lessNaNLast(p.Rows[i].YLow, p.Rows[j].YLow)
	})
}

func lessNaNLast(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	return a < b
}

// Append merges another profile's rows into p. The core names must match;
// mismatched profiles are refused with a warning.
func (p *Profile) Append(other *Profile) {
	if other.IsEmpty() {
		return
	}
	if !p.IsEmpty() && p.Name() != other.Name() {
		log.Warnf("profile name does not match: %s, %s", other.Name(), p.Name())
		return
	}
	for _, r := range other.Rows {
		p.Rows = append(p.Rows, r.Clone())
	}
}

// Stack concatenates rows from any number of profiles, regardless of core
// name, into a stacked collection.
func Stack(profiles ...*Profile) *Profile {
	out := New()
	for _, p := range profiles {
		for _, r := range p.Rows {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// Clean removes properties whose values are NaN on every row and rewrites
// the variable group tags accordingly. With inplace false the receiver is
// left untouched and the cleaned copy returned.
func (p *Profile) Clean(inplace bool) *Profile {
	target := p
	if !inplace {
		target = p.Clone()
	}

	var empty []string
	for _, prop := range target.Properties() {
		allNaN := true
		for _, r := range target.Rows {
			if !math.IsNaN(r.Value(prop)) {
				allNaN = false
				break
			}
		}
		if allNaN {
			empty = append(empty, prop)
		}
	}
	if len(empty) == 0 {
		return target
	}
	log.Infof("properties are empty, deleting: %s", strings.Join(empty, ", "))
	target.removeProperties(empty)
	return target
}

// DeleteProperty removes the named properties and their dependent
// subvariables from the profile, rewriting the variable group tags.
func (p *Profile) DeleteProperty(subvars Subvariables, names ...string) {
	var doomed []string
	for _, name := range names {
		doomed = append(doomed, name)
		doomed = append(doomed, subvars[name]...)
	}
	p.removeProperties(doomed)
}

// removeProperties drops value, weight and tag entries for the given
// property names on every row.
func (p *Profile) removeProperties(names []string) {
	for i := range p.Rows {
		r := &p.Rows[i]
		for _, name := range names {
			delete(r.Values, name)
			delete(r.Weights, name)
		}
		r.Variables = r.Variables.Without(names...)
	}
}
