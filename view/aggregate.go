package view

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zalepa/cocstats/dataset"
)

// AggregateName is the name carried by every synthetic row.
const AggregateName = "Aggregated Data"

// joinSep separates the distinct field values of an aggregate row.
const joinSep = ", "

// Row is one displayed row: either a record passed through unchanged or an
// aggregate of several records.
type Row struct {
	ID          int64          `json:"id"`
	State       string         `json:"state"`
	CoCNumber   string         `json:"cocNumber"`
	Name        string         `json:"name"`
	CoCCategory string         `json:"cocCategory"`
	Measure     string         `json:"measure"`
	Values      dataset.Values `json:"-"`
	Aggregate   bool           `json:"aggregate"`
	Count       int            `json:"count"`
}

// FromRecord wraps a record as a pass-through row.
func FromRecord(r dataset.Record) Row {
	return Row{
		ID:          r.ID,
		State:       r.State,
		CoCNumber:   r.CoCNumber,
		Name:        r.Name,
		CoCCategory: r.CoCCategory,
		Measure:     r.Measure,
		Values:      r.Values,
		Count:       1,
	}
}

// Description is the "<CoC number> - <measure>" label used in charts and
// exports.
func (r Row) Description() string {
	return r.CoCNumber + " - " + r.Measure
}

type tripleKey struct {
	state, coc, measure string
}

func (r Row) triple() tripleKey {
	return tripleKey{r.State, r.CoCNumber, r.Measure}
}

// IDSource hands out row ids for aggregates.
type IDSource func() int64

// ClockIDs returns an IDSource based on the wall clock in milliseconds that
// never repeats or goes backwards. Loader record ids are far below any value
// it produces, and every value stays below 2^53 so ids survive a round trip
// through a JavaScript number.
func ClockIDs() IDSource {
	var (
		mu   sync.Mutex
		last int64
	)
	return func() int64 {
		mu.Lock()
		defer mu.Unlock()
		id := time.Now().UnixMilli()
		if id <= last {
			id = last + 1
		}
		last = id
		return id
	}
}

// Aggregate collapses records into a single row whose yearly values are the
// sums over all records (missing values count as zero) and whose categorical
// fields are the sorted distinct values joined together. ok is false when
// records is empty.
func Aggregate(records []dataset.Record, nextID IDSource) (row Row, ok bool) {
	if len(records) == 0 {
		return Row{}, false
	}

	states := make(map[string]bool)
	cocs := make(map[string]bool)
	categories := make(map[string]bool)
	measures := make(map[string]bool)

	var sums dataset.Values
	for _, r := range records {
		states[r.State] = true
		cocs[r.CoCNumber] = true
		categories[r.CoCCategory] = true
		measures[r.Measure] = true
		for y, v := range r.Values {
			if !math.IsNaN(v) {
				sums[y] += v
			}
		}
	}

	return Row{
		ID:          nextID(),
		State:       joinSorted(states),
		CoCNumber:   joinSorted(cocs),
		Name:        AggregateName,
		CoCCategory: joinSorted(categories),
		Measure:     joinSorted(measures),
		Values:      sums,
		Aggregate:   true,
		Count:       len(records),
	}, true
}

func joinSorted(set map[string]bool) string {
	vals := make([]string, 0, len(set))
	for v := range set {
		if v != "" {
			vals = append(vals, v)
		}
	}
	sort.Strings(vals)
	return strings.Join(vals, joinSep)
}
