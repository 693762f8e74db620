package view

import (
	"sort"

	"github.com/zalepa/cocstats/dataset"
)

// Field names a filterable record attribute.
type Field string

const (
	FieldState     Field = "state"
	FieldCoCNumber Field = "cocNumber"
	FieldMeasure   Field = "measure"
)

// Fields lists every filterable field.
var Fields = []Field{FieldState, FieldCoCNumber, FieldMeasure}

// Selection maps each field to the set of accepted values. A field with no
// values is unconstrained.
type Selection map[Field]map[string]struct{}

// NewSelection builds a selection from field -> values.
func NewSelection(values map[Field][]string) Selection {
	sel := make(Selection)
	for f, vs := range values {
		sel.Add(f, vs...)
	}
	return sel
}

// Add accepts values for field.
func (s Selection) Add(field Field, values ...string) {
	if len(values) == 0 {
		return
	}
	set, ok := s[field]
	if !ok {
		set = make(map[string]struct{}, len(values))
		s[field] = set
	}
	for _, v := range values {
		set[v] = struct{}{}
	}
}

// Values returns the sorted values selected for field.
func (s Selection) Values(field Field) []string {
	out := make([]string, 0, len(s[field]))
	for v := range s[field] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// IsEmpty reports whether no field is constrained.
func (s Selection) IsEmpty() bool {
	for _, set := range s {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

func fieldValue(r dataset.Record, f Field) string {
	switch f {
	case FieldState:
		return r.State
	case FieldCoCNumber:
		return r.CoCNumber
	case FieldMeasure:
		return r.Measure
	}
	return ""
}

// Match returns the records accepted by every constrained field of sel,
// preserving input order. Constraints are ANDed across fields and ORed
// within a field.
func Match(records []dataset.Record, sel Selection) []dataset.Record {
	if sel.IsEmpty() {
		return records
	}
	out := make([]dataset.Record, 0)
	for _, r := range records {
		ok := true
		for f, set := range sel {
			if len(set) == 0 {
				continue
			}
			if _, hit := set[fieldValue(r, f)]; !hit {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out
}
