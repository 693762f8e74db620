package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		nan   bool
	}{
		{"100", 100, false},
		{"1,234", 1234, false},
		{"12,345,678", 12345678, false},
		{" 42 ", 42, false},
		{"-7", -7, false},
		{"3.5", 3.5, false},
		{"", 0, true},
		{"- -", 0, true},
		{"--", 0, true},
		{"n/a", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		got := ParseNumber(tt.input)
		if tt.nan {
			if !math.IsNaN(got) {
				t.Errorf("ParseNumber(%q) = %v, want NaN", tt.input, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// gridRow builds a source row with the fixed columns and values for the first
// measure block; other blocks are left absent.
func gridRow(state, coc, name, category string, overall ...string) []string {
	row := make([]string, dataStartCol+len(overall))
	row[colState] = state
	row[colCoCNumber] = coc
	row[colCoCName] = name
	row[colCoCCategory] = category
	copy(row[dataStartCol:], overall)
	return row
}

func TestTransform_TooFewRows(t *testing.T) {
	assert.Nil(t, Transform(nil))
	assert.Nil(t, Transform([][]string{{"title"}, {"header"}}))
}

func TestTransform_RecordsPerRow(t *testing.T) {
	grid := [][]string{
		{"Point-in-Time counts"},
		{"", "State", "CoC Number", "CoC Name", "CoC Category"},
		gridRow("CA", "CA-500", "San Jose/Santa Clara", "Major City", "1,000", "", "abc", "25"),
		gridRow("NY", "NY-600", "New York City", "Major City", "70,000"),
	}

	records := Transform(grid)
	require.Len(t, records, 2*len(measures))

	first := records[0]
	assert.Equal(t, int64(20), first.ID)
	assert.Equal(t, "CA", first.State)
	assert.Equal(t, "CA-500", first.CoCNumber)
	assert.Equal(t, "San Jose/Santa Clara", first.Name)
	assert.Equal(t, "Major City", first.CoCCategory)
	assert.Equal(t, "Overall Homeless", first.Measure)
	assert.Equal(t, 1000.0, first.Values.Year(2007))
	assert.Equal(t, 0.0, first.Values.Year(2008), "blank cell")
	assert.Equal(t, 0.0, first.Values.Year(2009), "unparseable cell")
	assert.Equal(t, 25.0, first.Values.Year(2010))
	assert.Equal(t, 0.0, first.Values.Year(2024), "absent cell")

	for m, r := range records[:len(measures)] {
		assert.Equal(t, int64(20+m), r.ID)
		assert.Equal(t, measures[m], r.Measure)
	}
	assert.Equal(t, int64(30), records[len(measures)].ID)
	assert.Equal(t, 70000.0, records[len(measures)].Values.Year(2007))
}

func TestTransform_MeasureBlocks(t *testing.T) {
	row := make([]string, dataStartCol+len(measures)*NumYears)
	row[colState] = "WA"
	row[colCoCNumber] = "WA-500"
	for m := range measures {
		for y := 0; y < NumYears; y++ {
			row[dataStartCol+m*NumYears+y] = "1" + string(rune('0'+m))
		}
	}
	records := Transform([][]string{{}, {}, row})
	require.Len(t, records, len(measures))
	for m, r := range records {
		want := float64(10 + m)
		for _, v := range r.Values {
			if v != want {
				t.Fatalf("measure %q: got %v, want %v", r.Measure, v, want)
			}
		}
	}
}

func TestTransform_RaggedAndEmptyRows(t *testing.T) {
	grid := [][]string{{}, {}, {}, {"", "OR"}}
	records := Transform(grid)
	require.Len(t, records, 2*len(measures))
	assert.Equal(t, "", records[0].State)
	assert.Equal(t, "OR", records[len(measures)].State)
	assert.Equal(t, 0.0, records[len(measures)].Values.Total())
}

func TestValues(t *testing.T) {
	var v Values
	v[0] = 5
	v[1] = math.NaN()
	v[NumYears-1] = 10

	assert.Equal(t, 15.0, v.Total())
	assert.True(t, math.IsNaN(v.Year(2006)))
	assert.True(t, math.IsNaN(v.Year(2025)))
	assert.Equal(t, 10.0, v.Year(2024))

	years := Years()
	require.Len(t, years, NumYears)
	assert.Equal(t, FirstYear, years[0])
	assert.Equal(t, LastYear, years[NumYears-1])
}
