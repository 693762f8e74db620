package view

import (
	"math"
	"strconv"

	"github.com/zalepa/cocstats/dataset"
)

// Chart is the chart-ready projection of a set of rows. Values holds one
// entry per year; nil marks a gap.
type Chart struct {
	Years    []string `json:"years"`
	Series   []Series `json:"series"`
	LogScale bool     `json:"logScale"`
}

type Series struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// Point is one year across every series, in series order.
type Point struct {
	Year   string     `json:"year"`
	Values []*float64 `json:"values"`
}

// Project converts rows into chart series, one per row in row order.
func Project(rows []Row, logScale bool) Chart {
	c := Chart{
		Years:    make([]string, dataset.NumYears),
		Series:   make([]Series, 0, len(rows)),
		LogScale: logScale,
	}
	for i, y := range dataset.Years() {
		c.Years[i] = strconv.Itoa(y)
	}
	for _, r := range rows {
		s := Series{ID: r.ID, Name: r.Description(), Values: make([]*float64, dataset.NumYears)}
		for i, v := range r.Values {
			if math.IsNaN(v) {
				continue
			}
			v := v
			s.Values[i] = &v
		}
		c.Series = append(c.Series, s)
	}
	return c
}

// Points returns the year-major view of the chart.
func (c Chart) Points() []Point {
	pts := make([]Point, len(c.Years))
	for i, y := range c.Years {
		p := Point{Year: y, Values: make([]*float64, len(c.Series))}
		for j, s := range c.Series {
			if i < len(s.Values) {
				p.Values[j] = s.Values[i]
			}
		}
		pts[i] = p
	}
	return pts
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool {
	for _, s := range c.Series {
		for _, v := range s.Values {
			if v != nil {
				return false
			}
		}
	}
	return true
}
