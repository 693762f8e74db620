package report

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/view"
)

// A4 landscape.
const (
	pageWidth  = 297 * vg.Millimeter
	pageHeight = 210 * vg.Millimeter
	pdfMargin  = 10 * vg.Millimeter
)

const (
	// DefaultTitle heads every export page.
	DefaultTitle = "THD Data Export"
	// Filename is the name offered for downloaded exports.
	Filename = "thd-data_export.pdf"
)

const (
	titleBlock   = 16 * vg.Millimeter
	headerRowH   = 7 * vg.Millimeter
	rowH         = 5 * vg.Millimeter
	chartGap     = 4 * vg.Millimeter
	maxChartH    = 150 * vg.Millimeter
	cellPad      = 1 * vg.Millimeter
	bodyFontSize = 6
	headFontSize = 6.5
)

var (
	headerFill = color.RGBA{R: 79, G: 70, B: 229, A: 255}
	stripeFill = color.RGBA{R: 245, G: 245, B: 250, A: 255}
	ruleColor  = color.Gray{Y: 200}
)

// Snapshotter captures the chart image placed under the exported table.
type Snapshotter interface {
	Snapshot(ctx context.Context, rows []view.Row, logScale bool) (image.Image, error)
}

// PDFOptions controls WritePDF. A nil Chart exports the table only.
type PDFOptions struct {
	Title    string
	Chart    Snapshotter
	LogScale bool
}

type column struct {
	header string
	width  vg.Length
	right  bool
	value  func(view.Row) string
}

// columns lays out CoC Number, Description, one column per year and Total
// across the usable page width.
func columns() []column {
	const (
		cocW   = 22 * vg.Millimeter
		descW  = 50 * vg.Millimeter
		totalW = 14 * vg.Millimeter
	)
	yearW := (pageWidth - 2*pdfMargin - cocW - descW - totalW) / dataset.NumYears

	cols := []column{
		{header: "CoC Number", width: cocW, value: func(r view.Row) string { return r.CoCNumber }},
		{header: "Description", width: descW, value: view.Row.Description},
	}
	for i, y := range dataset.Years() {
		i := i
		cols = append(cols, column{
			header: strconv.Itoa(y),
			width:  yearW,
			right:  true,
			value:  func(r view.Row) string { return FormatNumber(r.Values[i]) },
		})
	}
	return append(cols, column{
		header: "Total",
		width:  totalW,
		right:  true,
		value:  func(r view.Row) string { return FormatNumber(r.Values.Total()) },
	})
}

// WritePDF writes rows as an A4 landscape table to w, flowing onto
// continuation pages, followed by the chart snapshot when opts.Chart is set.
// No rows yields a single page with the title and header row only.
// A failed snapshot is logged and the export continues without it. It
// returns the number of pages written.
func WritePDF(ctx context.Context, w io.Writer, rows []view.Row, opts PDFOptions) (int, error) {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	c := vgpdf.New(pageWidth, pageHeight)
	doc := &pdfDoc{canvas: c, title: title, cols: columns()}

	y := doc.startPage(fmt.Sprintf("%d rows", len(rows)))
	y = doc.tableHeader(y)
	for i, r := range rows {
		if y-rowH < pdfMargin {
			doc.nextPage()
			y = doc.startPage("(continued)")
			y = doc.tableHeader(y)
		}
		y = doc.tableRow(y, r, i%2 == 1)
	}

	if opts.Chart != nil && len(rows) > 0 {
		img, err := opts.Chart.Snapshot(ctx, rows, opts.LogScale)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("chart snapshot failed, exporting table only")
		} else {
			doc.image(y-chartGap, img)
		}
	}

	if _, err := c.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return doc.pages, nil
}

type pdfDoc struct {
	canvas *vgpdf.Canvas
	title  string
	cols   []column
	pages  int
}

func (d *pdfDoc) area() draw.Canvas {
	return draw.Crop(draw.New(d.canvas), pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
}

func (d *pdfDoc) nextPage() {
	d.canvas.NextPage()
}

// startPage draws the title block and returns the y below it.
func (d *pdfDoc) startPage(subtitle string) vg.Length {
	d.pages++
	a := d.area()
	top := a.Max.Y
	fillText(a, d.title, vg.Points(14), a.Min.X, top-vg.Points(14), color.Black)
	fillText(a, subtitle, vg.Points(9), a.Min.X, top-titleBlock+vg.Points(6), color.Gray{Y: 100})
	return top - titleBlock
}

func (d *pdfDoc) tableHeader(y vg.Length) vg.Length {
	a := d.area()
	fillRect(a, a.Min.X, y-headerRowH, a.Max.X, y, headerFill)
	d.cells(a, y-headerRowH, headerRowH, vg.Points(headFontSize), color.White, func(c column) string { return c.header })
	return y - headerRowH
}

func (d *pdfDoc) tableRow(y vg.Length, r view.Row, stripe bool) vg.Length {
	a := d.area()
	if stripe {
		fillRect(a, a.Min.X, y-rowH, a.Max.X, y, stripeFill)
	}
	d.cells(a, y-rowH, rowH, vg.Points(bodyFontSize), color.Black, func(c column) string { return c.value(r) })
	strokeHLine(a, a.Min.X, a.Max.X, y-rowH, ruleColor)
	return y - rowH
}

// cells writes one line of text per column, truncated to the column width.
func (d *pdfDoc) cells(a draw.Canvas, bottom, height, size vg.Length, clr color.Color, text func(column) string) {
	baseline := bottom + (height-size)/2 + size*0.2
	x := a.Min.X
	for _, c := range d.cols {
		txt := truncate(text(c), fitChars(c.width-2*cellPad, size))
		tx := x + cellPad
		if c.right {
			tx = x + c.width - cellPad - textWidth(txt, size)
		}
		fillText(a, txt, size, tx, baseline, clr)
		x += c.width
	}
}

// image draws img scaled to the page width beneath y, on a fresh page when
// it does not fit.
func (d *pdfDoc) image(y vg.Length, img image.Image) {
	a := d.area()
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	w := a.Max.X - a.Min.X
	h := w * vg.Length(b.Dy()) / vg.Length(b.Dx())
	if h > maxChartH {
		w = w * maxChartH / h
		h = maxChartH
	}
	if y-h < a.Min.Y {
		d.nextPage()
		y = d.startPage("Chart")
		a = d.area()
	}
	a.DrawImage(vg.Rectangle{
		Min: vg.Point{X: a.Min.X, Y: y - h},
		Max: vg.Point{X: a.Min.X + w, Y: y},
	}, img)
}

// fitChars estimates how many characters of the given size fit in width.
func fitChars(width, size vg.Length) int {
	return max(int(width/(size*0.5)), 1)
}

func textWidth(txt string, size vg.Length) vg.Length {
	return vg.Length(len([]rune(txt))) * size * 0.5
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func fillRect(c draw.Canvas, x0, y0, x1, y1 vg.Length, clr color.Color) {
	var p vg.Path
	p.Move(vg.Point{X: x0, Y: y0})
	p.Line(vg.Point{X: x1, Y: y0})
	p.Line(vg.Point{X: x1, Y: y1})
	p.Line(vg.Point{X: x0, Y: y1})
	p.Close()
	c.SetColor(clr)
	c.Fill(p)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
