package dataset

import "math"

const (
	// FirstYear and LastYear bound the yearly columns of every measure block.
	FirstYear = 2007
	LastYear  = 2024
	// NumYears is the number of year columns per measure block.
	NumYears = LastYear - FirstYear + 1
)

// measures lists the measure blocks in the order they appear in the source grid.
var measures = []string{
	"Overall Homeless",
	"Sheltered ES Homeless",
	"Sheltered TH Homeless",
	"Sheltered SH Homeless",
	"Unsheltered Homeless",
	"RRH",
	"PSH",
	"OPH",
}

// Measures returns the canonical measure names in grid order.
func Measures() []string {
	out := make([]string, len(measures))
	copy(out, measures)
	return out
}

// Values holds one number per year, indexed by year-FirstYear. NaN marks a
// missing value.
type Values [NumYears]float64

// Record is one (state, CoC, measure) series as loaded from the source.
type Record struct {
	ID          int64  `json:"id"`
	State       string `json:"state"`
	CoCNumber   string `json:"cocNumber"`
	Name        string `json:"name"`
	CoCCategory string `json:"cocCategory"`
	Measure     string `json:"measure"`
	Values      Values `json:"values"`
}

// SeriesKey identifies a logical series.
type SeriesKey struct {
	State     string
	CoCNumber string
	Measure   string
}

// Key returns the series identity of r.
func (r Record) Key() SeriesKey {
	return SeriesKey{State: r.State, CoCNumber: r.CoCNumber, Measure: r.Measure}
}

// Years returns FirstYear..LastYear in order.
func Years() []int {
	years := make([]int, NumYears)
	for i := range years {
		years[i] = FirstYear + i
	}
	return years
}

// YearIndex maps a year to its slot in Values. ok is false outside the range.
func YearIndex(year int) (idx int, ok bool) {
	if year < FirstYear || year > LastYear {
		return 0, false
	}
	return year - FirstYear, true
}

// Year returns the value for year, or NaN when year is out of range.
func (v Values) Year(year int) float64 {
	idx, ok := YearIndex(year)
	if !ok {
		return math.NaN()
	}
	return v[idx]
}

// Total sums every year, skipping missing values.
func (v Values) Total() float64 {
	var total float64
	for _, x := range v {
		if !math.IsNaN(x) {
			total += x
		}
	}
	return total
}
