package heatmap

import (
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/simheat/pkg/cluster"
	"github.com/matzehuels/simheat/pkg/colormap"
)

// Panels share one coordinate convention: position i along an axis (0 at
// the left or top) is centred on i in data units, so column i spans
// [i-0.5, i+0.5] and row i is drawn at y = n-1-i.

// orderedGrid exposes a reordered matrix as plotter.GridXYZ with row 0
// at the top.
type orderedGrid struct {
	m *mat.Dense
}

func (g orderedGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g orderedGrid) Z(c, r int) float64 {
	n, _ := g.m.Dims()
	return g.m.At(n-1-r, c)
}

func (g orderedGrid) X(c int) float64 { return float64(c) }
func (g orderedGrid) Y(r int) float64 { return float64(r) }

// cells draws a heat map without reporting glyph boxes, so the plot does
// not pad the data area and cells stay aligned with neighbouring panels.
type cells struct {
	hm *plotter.HeatMap
}

func newCells(m *mat.Dense, cmap palette.ColorMap) cells {
	pal := cmap.Palette(256)
	hm := plotter.NewHeatMap(orderedGrid{m: m}, pal)
	hm.Min, hm.Max = cmap.Min(), cmap.Max()
	cs := pal.Colors()
	hm.Underflow = cs[0]
	hm.Overflow = cs[len(cs)-1]
	return cells{hm: hm}
}

func (c cells) Plot(dc draw.Canvas, plt *plot.Plot) { c.hm.Plot(dc, plt) }

func (c cells) DataRange() (xmin, xmax, ymin, ymax float64) { return c.hm.DataRange() }

type orientation int

const (
	top  orientation = iota // leaves at the bottom edge, root above
	left                    // leaves at the right edge, root to the left
)

// dendrogramPlotter draws the links of a clustering tree.
type dendrogramPlotter struct {
	tree   *cluster.Tree
	orient orientation
	style  draw.LineStyle
}

func (d dendrogramPlotter) point(x, h float64) (float64, float64) {
	pos := (x - cluster.LeafSpacing/2) / cluster.LeafSpacing
	if d.orient == left {
		return -h, float64(d.tree.N-1) - pos
	}
	return pos, h
}

func (d dendrogramPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, l := range d.tree.Links {
		pts := make([]vg.Point, len(l.X))
		for k := range l.X {
			x, y := d.point(l.X[k], l.Y[k])
			pts[k] = vg.Point{X: trX(x), Y: trY(y)}
		}
		c.StrokeLines(d.style, pts)
	}
}

func (d dendrogramPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	n := float64(d.tree.N)
	h := d.tree.MaxDist
	if h <= 0 {
		h = 1
	}
	if d.orient == left {
		return -h, 0, -0.5, n - 0.5
	}
	return -0.5, n - 0.5, 0, h
}

// strip draws one class colour per position. Nil colours are skipped.
type strip struct {
	colors   []color.Color
	vertical bool
}

func (s strip) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	n := len(s.colors)
	for i, col := range s.colors {
		if col == nil {
			continue
		}
		x0, x1, y0, y1 := float64(i)-0.5, float64(i)+0.5, 0.0, 1.0
		if s.vertical {
			p := float64(n - 1 - i)
			x0, x1, y0, y1 = 0, 1, p-0.5, p+0.5
		}
		c.FillPolygon(col, []vg.Point{
			{X: trX(x0), Y: trY(y0)},
			{X: trX(x1), Y: trY(y0)},
			{X: trX(x1), Y: trY(y1)},
			{X: trX(x0), Y: trY(y1)},
		})
	}
}

func (s strip) DataRange() (xmin, xmax, ymin, ymax float64) {
	n := float64(len(s.colors))
	if s.vertical {
		return 0, 1, -0.5, n - 0.5
	}
	return -0.5, n - 0.5, 0, 1
}

// annotations writes each cell value at the cell centre, in black or white
// depending on the cell colour.
type annotations struct {
	m     *mat.Dense
	cmap  palette.ColorMap
	style text.Style
}

func (a annotations) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	n, _ := a.m.Dims()
	lo, hi := a.cmap.Min(), a.cmap.Max()
	sty := a.style
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			bg, err := a.cmap.At(math.Max(lo, math.Min(hi, v)))
			if err != nil {
				bg = nil
			}
			sty.Color = colormap.TextColor(bg)
			c.FillText(sty, vg.Point{X: trX(float64(j)), Y: trY(float64(n - 1 - i))}, formatCell(v))
		}
	}
}

func (a annotations) DataRange() (xmin, xmax, ymin, ymax float64) {
	n, _ := a.m.Dims()
	return -0.5, float64(n) - 0.5, -0.5, float64(n) - 0.5
}

// formatCell formats to two significant digits.
func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'g', 2, 64)
}

// separators strokes the interior cell boundaries of an n×n grid.
type separators struct {
	n     int
	style draw.LineStyle
}

func (s separators) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for k := 1; k < s.n; k++ {
		x := trX(float64(k) - 0.5)
		c.StrokeLine2(s.style, x, c.Min.Y, x, c.Max.Y)
		y := trY(float64(k) - 0.5)
		c.StrokeLine2(s.style, c.Min.X, y, c.Max.X, y)
	}
}

func (s separators) DataRange() (xmin, xmax, ymin, ymax float64) {
	n := float64(s.n)
	return -0.5, n - 0.5, -0.5, n - 0.5
}

// panel returns a plot with hidden axes and no padding, whose data area
// is the whole canvas it is drawn on.
func panel(ps ...plot.Plotter) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = nil
	p.HideAxes()
	p.X.Padding, p.Y.Padding = 0, 0
	p.X.Color, p.Y.Color = color.Transparent, color.Transparent
	p.Add(ps...)
	return p
}

// drawIn draws p inside rectangle r of c.
func drawIn(c draw.Canvas, r vg.Rectangle, p *plot.Plot) {
	if r.Size().X <= 0 || r.Size().Y <= 0 {
		return
	}
	p.Draw(draw.Canvas{Canvas: c.Canvas, Rectangle: r})
}

// colorbarBands is the number of colour steps in a colour bar.
const colorbarBands = 128

// barGrid is a single column of n bands evenly spanning [lo, hi], each
// valued at its centre.
type barGrid struct {
	lo, hi float64
	n      int
}

func (g barGrid) Dims() (c, r int) { return 1, g.n }

func (g barGrid) Z(_, r int) float64 { return g.Y(r) }

func (g barGrid) X(int) float64 { return 0.5 }

func (g barGrid) Y(r int) float64 {
	step := (g.hi - g.lo) / float64(g.n)
	return g.lo + (float64(r)+0.5)*step
}

// newBar draws the colour bar as filled bands rather than an image, so it
// survives every vector backend.
func newBar(cmap palette.ColorMap, n int) cells {
	hm := plotter.NewHeatMap(barGrid{lo: cmap.Min(), hi: cmap.Max(), n: n}, cmap.Palette(n))
	hm.Min, hm.Max = cmap.Min(), cmap.Max()
	return cells{hm: hm}
}

// colorbar returns a vertical colour bar plot with ticks on the left.
func colorbar(cmap palette.ColorMap, ticks []float64, integral bool, label string, tickSize, labelSize vg.Length) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = nil
	p.HideX()
	p.X.Padding, p.Y.Padding = 0, 0
	p.X.Color = color.Transparent
	p.Add(newBar(cmap, colorbarBands))
	p.Y.Min, p.Y.Max = cmap.Min(), cmap.Max()
	p.Y.Tick.Marker = plot.ConstantTicks(tickMarks(ticks, integral))
	p.Y.Tick.Label.Font.Size = tickSize
	p.Y.Tick.Length = tickSize / 2
	p.Y.Label.Text = label
	p.Y.Label.TextStyle.Font.Size = labelSize
	return p
}

func tickMarks(ticks []float64, integral bool) []plot.Tick {
	out := make([]plot.Tick, len(ticks))
	for i, t := range ticks {
		label := strconv.FormatFloat(t, 'g', 4, 64)
		if integral {
			label = strconv.FormatFloat(t, 'f', 0, 64)
		}
		out[i] = plot.Tick{Value: t, Label: label}
	}
	return out
}

// colorbarWidth estimates the width the colour bar's axis takes up, so the
// bar itself can be given a fixed width.
func colorbarWidth(p *plot.Plot) vg.Length {
	var w vg.Length
	if p.Y.Label.Text != "" {
		w += p.Y.Label.TextStyle.Height(p.Y.Label.Text) + p.Y.Label.Padding
		w += p.Y.Label.TextStyle.FontExtents().Descent
	}
	var labels vg.Length
	for _, t := range p.Y.Tick.Marker.Ticks(p.Y.Min, p.Y.Max) {
		labels = max(labels, p.Y.Tick.Label.Width(t.Label))
	}
	return w + labels + p.Y.Tick.Label.Width(" ") + p.Y.Tick.Length + p.Y.Width/2
}

var sansFont = font.Font{Typeface: "Liberation", Variant: "Sans"}

// labelStyle returns a text style for tick labels.
func labelStyle(size vg.Length) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(sansFont, size),
		XAlign:  draw.XLeft,
		YAlign:  draw.YCenter,
		Handler: plot.DefaultTextHandler,
	}
}

func maxWidth(sty text.Style, labels []string) vg.Length {
	var w vg.Length
	for _, l := range labels {
		w = max(w, sty.Width(l))
	}
	return w
}

// drawRowLabels writes labels to the right of rect r, one per row, row 0
// at the top.
func drawRowLabels(c draw.Canvas, r vg.Rectangle, labels []string, sty text.Style, pad vg.Length) {
	if len(labels) == 0 {
		return
	}
	h := r.Size().Y / vg.Length(len(labels))
	sty.XAlign, sty.YAlign = draw.XLeft, draw.YCenter
	for i, l := range labels {
		y := r.Max.Y - (vg.Length(i)+0.5)*h
		c.FillText(sty, vg.Point{X: r.Max.X + pad, Y: y}, l)
	}
}

// drawColLabels writes labels below rect r, rotated to read upwards, one
// per column.
func drawColLabels(c draw.Canvas, r vg.Rectangle, labels []string, sty text.Style, pad vg.Length) {
	if len(labels) == 0 {
		return
	}
	w := r.Size().X / vg.Length(len(labels))
	sty.Rotation = math.Pi / 2
	sty.XAlign, sty.YAlign = draw.XRight, draw.YCenter
	for i, l := range labels {
		x := r.Min.X + (vg.Length(i)+0.5)*w
		c.FillText(sty, vg.Point{X: x, Y: r.Min.Y - pad}, l)
	}
}
