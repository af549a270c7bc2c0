package profile

import (
	"fmt"
	"math"
	"time"

	"github.com/megavolts/sea-ice/internal/log"
)

// Criteria maps column names to the values rows are matched against. The
// key "variable" is special-cased by Select to mean "the row's variable
// group contains this property" rather than exact tag equality.
type Criteria map[string]any

// Select returns the rows of the stack matching every criterion. Criteria
// on columns absent from the stack are ignored. Selecting on "variable"
// narrows both rows and columns: rows whose group does not contain the
// property are dropped, and the other properties are deleted from the rows
// that remain.
func Select(stack *Profile, criteria Criteria, subvars Subvariables) *Profile {
	out := stack.Clone()
	for key, want := range criteria {
		if key == "variable" {
			name := fmt.Sprint(want)
			if out.Properties().Contains(name) {
				out = selectVariable(out, name, subvars)
			}
			continue
		}
		if !columnPresent(out, key) {
			continue
		}
		var kept []Row
		for _, r := range out.Rows {
			if rowMatches(&r, key, want) {
				kept = append(kept, r)
			}
		}
		out.Rows = kept
	}
	return out
}

// Delete returns the stack without the rows matched by the criteria,
// combining criteria the way the historical filter did: a row is kept when
// ANY criterion's value differs, so a row is only deleted when every
// criterion matches it at once. Callers wanting "delete a row when any
// single criterion matches" should use DeleteAllMatch.
func Delete(stack *Profile, criteria Criteria) *Profile {
	out := New()
	for _, r := range stack.Rows {
		anyDiffers := false
		considered := false
		for key, want := range criteria {
			if !columnPresent(stack, key) {
				continue
			}
			considered = true
			if !rowMatches(&r, key, want) {
				anyDiffers = true
				break
			}
		}
		if anyDiffers || !considered {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// DeleteAllMatch returns the stack without every row matched by at least one
// criterion, the AND-combined keep filter companion to Delete.
func DeleteAllMatch(stack *Profile, criteria Criteria) *Profile {
	out := New()
	for _, r := range stack.Rows {
		matched := false
		for key, want := range criteria {
			if !columnPresent(stack, key) {
				continue
			}
			if rowMatches(&r, key, want) {
				matched = true
				break
			}
		}
		if !matched {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out
}

// DeleteVariables removes the named properties and their dependent
// subvariables from the stack, rewrites every variable group tag that
// contained them, and drops properties left without any value.
func DeleteVariables(stack *Profile, subvars Subvariables, names ...string) *Profile {
	stack.DeleteProperty(subvars, names...)
	return stack.Clean(true)
}

// selectVariable keeps the rows whose variable group contains name and
// deletes the sibling properties from them.
func selectVariable(stack *Profile, name string, subvars Subvariables) *Profile {
	out := New()
	for _, r := range stack.Rows {
		if r.Variables.Contains(name) {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	others := out.Properties().Without(name)
	if len(others) > 0 {
		log.Debugf("selecting %s, deleting sibling properties: %s", name, others.String())
		out = DeleteVariables(out, subvars, others...)
	}
	return out
}

// columnPresent reports whether the stack carries the named column. The
// fixed schema columns always exist; free-form metadata exists when any row
// holds it.
func columnPresent(stack *Profile, key string) bool {
	switch key {
	case "name", "date", "variable", "v_ref", "y_low", "y_mid", "y_sup",
		"ice_thickness", "length":
		return true
	}
	for _, r := range stack.Rows {
		if _, ok := r.Extra[key]; ok {
			return true
		}
		if _, ok := r.Values[key]; ok {
			return true
		}
	}
	return false
}

func rowMatches(r *Row, key string, want any) bool {
	switch key {
	case "name":
		return r.Name == fmt.Sprint(want)
	case "variable":
		return r.Variables.String() == fmt.Sprint(want)
	case "v_ref":
		return string(r.VRef) == fmt.Sprint(want)
	case "date":
		t, ok := want.(time.Time)
		return ok && r.Date.Equal(t)
	case "y_low":
		return floatEquals(r.YLow, want)
	case "y_mid":
		return floatEquals(r.YMid, want)
	case "y_sup":
		return floatEquals(r.YSup, want)
	case "ice_thickness":
		return floatEquals(r.IceThickness, want)
	case "length":
		return floatEquals(r.Length, want)
	}
	if v, ok := r.Extra[key]; ok {
		return v == fmt.Sprint(want)
	}
	if v, ok := r.Values[key]; ok {
		return floatEquals(v, want)
	}
	return false
}

func floatEquals(have float64, want any) bool {
	var w float64
	switch v := want.(type) {
	case float64:
		w = v
	case float32:
		w = float64(v)
	case int:
		w = float64(v)
	default:
		return false
	}
	return !math.IsNaN(have) && have == w
}
