package heatmap

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matzehuels/simheat/pkg/colormap"
)

const (
	gridPerRow   = 0.175 // inches per matrix row
	gridSpace    = 0.05
	gridSubSpace = 0.1
	gridLabelPt  = 8
	gridTickPt   = 6
)

// Grid ratios: the dendrogram column/row against the heatmap, and within a
// dendrogram cell the tree against the class strip.
var (
	gridRatios  = []float64{0.3, 1}
	stripRatios = []float64{1, 0.15}
)

// dendrogramBlue is the default link colour of the grid layout.
var dendrogramBlue = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// RenderGrid draws the same content as RenderClustermap on a hand-built
// 2×2 grid: a narrow colourbar labelled with the title top left, the
// column dendrogram and strip top right, the row dendrogram and strip
// bottom left and the heatmap bottom right, with 8 pt labels.
//
// Class strips use the Paired colour map over sorted categories. Ids
// missing from in.Classes form their own category.
func RenderGrid(in Input, path string) (*Figure, error) {
	f, err := newFigure(in, BackendGrid, gridPerRow)
	if err != nil {
		return nil, err
	}
	if len(in.Classes) > 0 {
		classes := make(map[string]string, len(f.Matrix.IDs))
		for _, id := range f.Matrix.IDs {
			classes[id] = id
			if c, ok := in.Classes[id]; ok {
				classes[id] = c
			}
		}
		paired := colormap.Paired()
		pal := make([]color.Color, paired.Len())
		for i := range pal {
			pal[i] = paired.Index(i)
		}
		f.ClassColors = ClassColors(classes, pal)
		f.RowStrip, f.ColStrip = strips(f, func(id string) color.Color {
			return f.ClassColors[classes[id]]
		})
	}
	f.layout = drawGrid

	if path != "" {
		if err := f.Save(path); err != nil {
			return f, err
		}
	}
	return f, nil
}

func drawGrid(f *Figure, c draw.Canvas) {
	scale := vg.Length(f.FontScale)
	pad := vg.Points(4) * scale
	tick := labelStyle(vg.Points(gridLabelPt) * scale)
	rowLabels, colLabels := f.RowLabels(), f.ColLabels()

	area := draw.Crop(c, pad, -(maxWidth(tick, rowLabels) + 2*pad), maxWidth(tick, colLabels)+2*pad, -pad)

	xs := split(area.Min.X, area.Max.X, gridSpace, gridRatios...)
	ys := splitDown(area.Min.Y, area.Max.Y, gridSpace, gridRatios...)

	heat := rect(xs[1], ys[1])
	drawIn(c, heat, panel(newCells(f.Ordered(), f.Colormap)))
	drawRowLabels(c, heat, rowLabels, tick, pad)
	drawColLabels(c, heat, colLabels, tick, pad)

	line := draw.LineStyle{Color: dendrogramBlue, Width: vg.Points(0.5)}

	// Top right: column dendrogram over the column strip.
	cs := splitDown(ys[0].lo, ys[0].hi, gridSubSpace, stripRatios...)
	drawIn(c, rect(xs[1], cs[0]), panel(dendrogramPlotter{tree: f.Cols, orient: top, style: line}))

	// Bottom left: row dendrogram beside the row strip.
	rs := split(xs[0].lo, xs[0].hi, gridSubSpace, stripRatios...)
	drawIn(c, rect(rs[0], ys[1]), panel(dendrogramPlotter{tree: f.Rows, orient: left, style: line}))

	if f.RowStrip != nil {
		drawIn(c, rect(xs[1], cs[1]), panel(strip{colors: f.ColStrip}))
		drawIn(c, rect(rs[1], ys[1]), panel(strip{colors: f.RowStrip, vertical: true}))
	}

	// Top left: colour bar in the middle of three columns, its tick labels
	// and title spilling into the left column.
	thirds := split(xs[0].lo, xs[0].hi, gridSubSpace, 1, 1, 1)
	cb := gridColorbar(f)
	x0 := max(xs[0].lo, thirds[1].lo-colorbarWidth(cb))
	drawIn(c, vg.Rectangle{
		Min: vg.Point{X: x0, Y: ys[0].lo + pad},
		Max: vg.Point{X: thirds[1].hi, Y: ys[0].hi - pad},
	}, cb)
}

// gridColorbar builds the grid's colour bar, labelled on its left with the
// title in the tick font.
func gridColorbar(f *Figure) *plot.Plot {
	size := vg.Points(gridTickPt) * vg.Length(f.FontScale)
	return colorbar(f.Colormap, f.Ticks, f.integralTicks, f.Title, size, size)
}
