package report

import (
	"math"
	"strconv"
	"strings"
)

// FormatNumber renders v with thousands separators, one decimal when v is
// fractional and "- -" when it is missing.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return "- -"
	}
	prec := 1
	if v == math.Trunc(v) {
		prec = 0
	}
	whole, frac, fractional := strings.Cut(strconv.FormatFloat(math.Abs(v), 'f', prec, 64), ".")
	out := groupThousands(whole)
	if fractional {
		out += "." + frac
	}
	if v < 0 {
		out = "-" + out
	}
	return out
}

// groupThousands inserts a comma before every third digit from the right.
func groupThousands(digits string) string {
	var sb strings.Builder
	sb.Grow(len(digits) + len(digits)/3)
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte(digits[i])
	}
	return sb.String()
}

var compactUnits = []struct {
	scale  float64
	suffix string
	prec   int
}{
	{1e6, "M", 1},
	{1e3, "k", 0},
}

// FormatCompact renders axis labels: 950, 12k, 1.2M.
func FormatCompact(v float64) string {
	for _, u := range compactUnits {
		if math.Abs(v) >= u.scale {
			return strconv.FormatFloat(v/u.scale, 'f', u.prec, 64) + u.suffix
		}
	}
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// Sparkline draws values as a row of block characters scaled between their
// minimum and maximum. NaN becomes a space.
func Sparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	n := len(blocks)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return strings.Repeat(" ", len(values))
	}

	spread := hi - lo
	var sb strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := n / 2
		if spread > 0 {
			idx = min(int((v-lo)/spread*float64(n-1)), n-1)
		}
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
