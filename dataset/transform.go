package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Layout of the source grid. Rows before headerRows are titles and column
// headers; columns before dataStartCol (other than the four fixed fields) are
// ignored.
const (
	headerRows     = 2
	colState       = 1
	colCoCNumber   = 2
	colCoCName     = 3
	colCoCCategory = 4
	dataStartCol   = 6
)

// Transform converts a raw cell grid into records. Every data row yields one
// record per measure block. Missing or malformed cells become "" or 0; no row
// is rejected.
func Transform(grid [][]string) []Record {
	if len(grid) <= headerRows {
		return nil
	}

	records := make([]Record, 0, (len(grid)-headerRows)*len(measures))
	for i := headerRows; i < len(grid); i++ {
		row := grid[i]
		state := cell(row, colState)
		cocNumber := cell(row, colCoCNumber)
		cocName := cell(row, colCoCName)
		cocCategory := cell(row, colCoCCategory)

		for m, measure := range measures {
			rec := Record{
				ID:          int64(i)*10 + int64(m),
				State:       state,
				CoCNumber:   cocNumber,
				Name:        cocName,
				CoCCategory: cocCategory,
				Measure:     measure,
			}
			start := dataStartCol + m*NumYears
			for y := 0; y < NumYears; y++ {
				v := ParseNumber(cell(row, start+y))
				if math.IsNaN(v) {
					v = 0
				}
				rec.Values[y] = v
			}
			records = append(records, rec)
		}
	}
	return records
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseNumber parses a spreadsheet number such as "1,234" or "12.5". Blank,
// placeholder ("-", "--", "- -") and unparseable cells return NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "- -" || s == "--" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
