package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Duplicate is a series identity that appears on more than one source row.
type Duplicate struct {
	Key SeriesKey
	IDs []int64 // record ids in load order
}

func (d Duplicate) String() string {
	ids := make([]string, len(d.IDs))
	for i, id := range d.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s/%s/%s (ids %s)", d.Key.State, d.Key.CoCNumber, d.Key.Measure, strings.Join(ids, ", "))
}

// FindDuplicates reports series keys shared by several records. Each
// (state, CoC number, measure) should identify exactly one series, so a
// non-empty result points at a malformed source sheet. Rows with an empty CoC
// number are ignored; they are usually blank trailing rows.
func FindDuplicates(records []Record) []Duplicate {
	groups := make(map[SeriesKey][]int64)
	var order []SeriesKey
	for _, r := range records {
		if r.CoCNumber == "" {
			continue
		}
		k := r.Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r.ID)
	}

	var dups []Duplicate
	for _, k := range order {
		if ids := groups[k]; len(ids) > 1 {
			dups = append(dups, Duplicate{Key: k, IDs: ids})
		}
	}

	sort.Slice(dups, func(i, j int) bool {
		a, b := dups[i].Key, dups[j].Key
		if a.State != b.State {
			return a.State < b.State
		}
		if a.CoCNumber != b.CoCNumber {
			return a.CoCNumber < b.CoCNumber
		}
		return a.Measure < b.Measure
	})
	return dups
}
