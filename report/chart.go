package report

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/zalepa/cocstats/view"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data")

// Default snapshot size, 2:1 like the dashboard chart.
const (
	DefaultChartWidth  = 12 * vg.Inch
	DefaultChartHeight = 6 * vg.Inch
)

// Renderer draws projected charts with gonum/plot.
type Renderer struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func (r Renderer) size() (vg.Length, vg.Length) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = DefaultChartWidth
	}
	if h <= 0 {
		h = DefaultChartHeight
	}
	return w, h
}

// Plot builds the plot for c: one coloured line per series, broken at gaps,
// with a point glyph on every value. In log scale non-positive values are
// gaps as well.
func (r Renderer) Plot(c view.Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = r.Title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range c.Series {
		clr := plotutil.Color(i)
		segs, pts := segments(s.Values, c.LogScale)
		if len(pts) == 0 {
			continue
		}
		for _, seg := range segs {
			line, err := plotter.NewLine(seg)
			if err != nil {
				return nil, fmt.Errorf("series %q: %w", s.Name, err)
			}
			line.Color = clr
			line.Width = vg.Points(2)
			p.Add(line)
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
		scatter.Color = clr
		scatter.Radius = vg.Points(3)
		scatter.Shape = draw.CircleGlyph{}
		p.Add(scatter)

		swatch := &plotter.Line{LineStyle: draw.LineStyle{Color: clr, Width: vg.Points(2)}}
		p.Legend.Add(s.Name, swatch, scatter)

		for _, pt := range pts {
			lo = math.Min(lo, pt.Y)
			hi = math.Max(hi, pt.Y)
		}
	}
	if math.IsInf(lo, 1) {
		return nil, ErrNoData
	}

	p.X.Tick.Marker = yearTicks(c.Years)
	p.X.Min = -0.5
	p.X.Max = float64(len(c.Years)) - 0.5
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if c.LogScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = compactTicks{plot.LogTicks{Prec: -1}}
		p.Y.Min = lo / 2
		p.Y.Max = hi * 2
	} else {
		p.Y.Tick.Marker = compactTicks{plot.DefaultTicks{}}
		p.Y.Min = math.Min(0, lo)
		p.Y.Max = hi
		if p.Y.Max == p.Y.Min {
			p.Y.Max = p.Y.Min + 1
		}
	}
	return p, nil
}

// segments splits values at gaps into drawable runs of two or more points
// and returns every plottable point.
func segments(values []*float64, logScale bool) (segs []plotter.XYs, pts plotter.XYs) {
	var cur plotter.XYs
	flush := func() {
		if len(cur) > 1 {
			segs = append(segs, cur)
		}
		cur = nil
	}
	for i, v := range values {
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || (logScale && *v <= 0) {
			flush()
			continue
		}
		xy := plotter.XY{X: float64(i), Y: *v}
		cur = append(cur, xy)
		pts = append(pts, xy)
	}
	flush()
	return segs, pts
}

// Render draws c into an image of the given size (zero means default).
func (r Renderer) Render(c view.Chart, width, height vg.Length) (image.Image, error) {
	canvas, err := r.canvas(c, width, height)
	if err != nil {
		return nil, err
	}
	return canvas.Image(), nil
}

// WritePNG renders c as PNG to w.
func (r Renderer) WritePNG(w io.Writer, c view.Chart) error {
	width, height := r.size()
	canvas, err := r.canvas(c, width, height)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func (r Renderer) canvas(c view.Chart, width, height vg.Length) (*vgimg.Canvas, error) {
	if width <= 0 || height <= 0 {
		width, height = r.size()
	}
	p, err := r.Plot(c)
	if err != nil {
		return nil, err
	}
	canvas := vgimg.New(width, height)
	p.Draw(draw.New(canvas))
	return canvas, nil
}

// Snapshot renders rows as a chart image for the PDF export.
func (r Renderer) Snapshot(ctx context.Context, rows []view.Row, logScale bool) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width, height := r.size()
	return r.Render(view.Project(rows, logScale), width, height)
}

// yearTicks labels every slot with its year, thinning labels past twelve.
type yearTicks []string

func (yt yearTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	n := len(yt)
	step := 1
	if n > 12 {
		step = (n + 11) / 12
	}
	for i := 0; i < n; i++ {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 {
			t.Label = yt[i]
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// compactTicks relabels the major ticks of a base ticker with FormatCompact.
type compactTicks struct {
	base plot.Ticker
}

func (ct compactTicks) Ticks(min, max float64) []plot.Tick {
	ticks := ct.base.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = FormatCompact(ticks[i].Value)
		}
	}
	return ticks
}
