package heatmap

import (
	"image/color"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/simheat/pkg/colormap"
)

const (
	clustermapPerRow = 1.1  // inches per matrix row
	dendrogramRatio  = 0.2  // share of the page for each dendrogram
	colorsRatio      = 0.03 // share of the page for each class strip
	clustermapSpace  = 0.01
	colorbarRatio    = 0.05 // colour bar width as a share of the page
)

// RenderClustermap clusters rows and columns of in.Matrix and draws an
// annotated heatmap with dendrograms on the top and left, class strips
// beside the heatmap and a titled colourbar in the top-left corner.
//
// Class colours come from a fixed cubehelix palette over the sorted
// categories. Ids missing from in.Classes get a white strip cell.
// If path is non-empty the figure is saved there.
func RenderClustermap(in Input, path string) (*Figure, error) {
	f, err := newFigure(in, BackendClustermap, clustermapPerRow)
	if err != nil {
		return nil, err
	}
	if len(in.Classes) > 0 {
		cats := Categories(in.Classes)
		f.ClassColors = ClassColors(in.Classes, colormap.Cubehelix(len(cats), colormap.AnnotationCubehelix()))
		f.RowStrip, f.ColStrip = strips(f, func(id string) color.Color {
			if c, ok := in.Classes[id]; ok {
				return f.ClassColors[c]
			}
			return color.White
		})
	}
	f.layout = drawClustermap

	if path != "" {
		if err := f.Save(path); err != nil {
			return f, err
		}
	}
	return f, nil
}

func drawClustermap(f *Figure, c draw.Canvas) {
	scale := vg.Length(f.FontScale)
	pad := vg.Points(4) * scale
	tick := labelStyle(vg.Points(10) * scale)
	rowLabels, colLabels := f.RowLabels(), f.ColLabels()

	area := draw.Crop(c, pad, -(maxWidth(tick, rowLabels) + 2*pad), maxWidth(tick, colLabels)+2*pad, -pad)

	ratios := []float64{dendrogramRatio, 1 - dendrogramRatio}
	if f.RowStrip != nil {
		ratios = []float64{dendrogramRatio, colorsRatio, 1 - dendrogramRatio - colorsRatio}
	}
	xs := split(area.Min.X, area.Max.X, clustermapSpace, ratios...)
	ys := splitDown(area.Min.Y, area.Max.Y, clustermapSpace, ratios...)
	last := len(ratios) - 1

	heat := rect(xs[last], ys[last])
	n := f.Matrix.Len()
	ordered := f.Ordered()
	cellH := heat.Size().Y / vg.Length(n)
	annot := labelStyle(min(vg.Points(10)*scale, cellH*0.4))
	annot.XAlign, annot.YAlign = draw.XCenter, draw.YCenter

	drawIn(c, heat, panel(
		newCells(ordered, f.Colormap),
		annotations{m: ordered, cmap: f.Colormap, style: annot},
		separators{n: n, style: draw.LineStyle{Color: color.White, Width: vg.Points(0.25)}},
	))

	line := draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
	drawIn(c, rect(xs[0], ys[last]), panel(dendrogramPlotter{tree: f.Rows, orient: left, style: line}))
	drawIn(c, rect(xs[last], ys[0]), panel(dendrogramPlotter{tree: f.Cols, orient: top, style: line}))

	if f.RowStrip != nil {
		drawIn(c, rect(xs[1], ys[last]), panel(strip{colors: f.RowStrip, vertical: true}))
		drawIn(c, rect(xs[last], ys[1]), panel(strip{colors: f.ColStrip}))
	}

	drawRowLabels(c, heat, rowLabels, tick, pad)
	drawColLabels(c, heat, colLabels, tick, pad)

	// Colour bar in the corner above the row dendrogram.
	corner := rect(xs[0], ys[0])
	cb := colorbar(f.Colormap, f.Ticks, f.integralTicks, f.Title, vg.Points(10)*scale, vg.Points(10)*scale)
	barW := vg.Length(colorbarRatio) * c.Size().X
	x0 := corner.Min.X
	x1 := min(corner.Max.X, x0+colorbarWidth(cb)+barW)
	drawIn(c, vg.Rectangle{
		Min: vg.Point{X: x0, Y: corner.Min.Y + 2*pad},
		Max: vg.Point{X: x1, Y: corner.Max.Y - 2*pad},
	}, cb)
}
