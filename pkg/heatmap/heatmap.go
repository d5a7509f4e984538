// Package heatmap renders clustered similarity heatmaps.
//
// A render takes a square [matrix.Matrix], clusters its rows and columns,
// reorders the data by dendrogram leaf order and lays out the heatmap with
// dendrograms, class colour strips, tick labels and a colour scale. Two
// layouts are provided:
//
//   - [RenderClustermap]: annotated cells, cell separators and a titled
//     colourbar in the top-left corner.
//   - [RenderGrid]: a 2×2 ratio grid with split dendrogram/strip cells and
//     qualitative class colours.
//
// Both return a [Figure], which can be drawn onto any gonum/plot canvas or
// encoded as PNG, JPEG, TIFF, SVG, PDF or EPS.
package heatmap

import (
	"fmt"
	"image/color"
	"math"
	"slices"

	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/simheat/pkg/cluster"
	"github.com/matzehuels/simheat/pkg/colormap"
	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/matrix"
)

// Backend selects a layout.
type Backend string

const (
	BackendClustermap Backend = "clustermap"
	BackendGrid       Backend = "grid"

	// DefaultBackend is used when no backend is given.
	DefaultBackend = BackendClustermap
)

// Backends returns the supported backends.
func Backends() []Backend {
	return []Backend{BackendClustermap, BackendGrid}
}

// ParseBackend validates a backend name. An empty name is the default.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "":
		return DefaultBackend, nil
	case BackendClustermap, BackendGrid:
		return Backend(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidBackend, "unknown backend %q (want clustermap or grid)", s)
}

// MinRangeWidth is the narrowest colour scale drawn. A constant matrix,
// or explicit bounds with VMin == VMax, is widened to this.
const MinRangeWidth = 0.01

// Input is everything a render needs.
type Input struct {
	Matrix *matrix.Matrix

	// Title labels the colourbar.
	Title string

	// VMin and VMax bound the colour scale. Nil means the data minimum or
	// maximum.
	VMin, VMax *float64

	// Colormap names a registered colour map; empty is the default.
	Colormap string

	// Labels maps ids to display labels. Classes maps ids to categories.
	Labels  map[string]string
	Classes map[string]string

	// Method is the linkage criterion for both axes. The zero value is
	// complete linkage.
	Method cluster.Method

	// RowMerges and ColMerges are precomputed linkages. When set, the
	// corresponding axis is not reclustered.
	RowMerges, ColMerges []cluster.Merge
}

// ValueRange returns the colour scale bounds: the explicit bounds where
// set, otherwise the finite data range.
func ValueRange(in Input) (vmin, vmax float64, err error) {
	if err := errors.ValidateRange(in.VMin, in.VMax); err != nil {
		return 0, 0, err
	}
	lo, hi := 0.0, 0.0
	if in.Matrix != nil {
		lo, hi = in.Matrix.Range()
	}
	if in.VMin != nil {
		lo = *in.VMin
	}
	if in.VMax != nil {
		hi = *in.VMax
	}
	if hi < lo {
		return 0, 0, errors.New(errors.ErrCodeInvalidRange, "colour range [%g, %g] is inverted", lo, hi)
	}
	return lo, hi, nil
}

// ColorbarTicks returns five evenly spaced ticks from vmin across
// max(vmax-vmin, MinRangeWidth). When vmax exceeds 10 the ticks are rounded
// to one significant digit below the magnitude of vmax, so large counts get
// integral labels.
func ColorbarTicks(vmin, vmax float64) []float64 {
	vdiff := math.Max(vmax-vmin, MinRangeWidth)
	ticks := make([]float64, 0, 5)
	for _, e := range []float64{0, 0.25, 0.5, 0.75, 1} {
		ticks = append(ticks, vmin+e*vdiff)
	}
	if vmax > 10 {
		unit := math.Pow(10, math.Floor(math.Log10(vmax))-1)
		for i, t := range ticks {
			ticks[i] = math.RoundToEven(t/unit) * unit
		}
	}
	return ticks
}

// FigureSize clamps n*perRow to [lo, hi] inches. When the clamp hits hi,
// fontScale shrinks text in proportion; otherwise it is 1.
func FigureSize(n int, perRow, lo, hi float64) (size, fontScale float64) {
	calc := float64(n) * perRow
	size = math.Min(math.Max(lo, calc), hi)
	fontScale = 1
	if calc > hi {
		fontScale = hi / calc
	}
	return size, fontScale
}

// ResolveLabels returns one display label per id, falling back to the id.
func ResolveLabels(ids []string, labels map[string]string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if l, ok := labels[id]; ok && l != "" {
			out[i] = l
		}
	}
	return out
}

// Categories returns the distinct class values in sorted order.
func Categories(classes map[string]string) []string {
	seen := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		seen[c] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// ClassColors assigns palette colours to categories in sorted order,
// cycling if there are more categories than colours.
func ClassColors(classes map[string]string, palette []color.Color) map[string]color.Color {
	cats := Categories(classes)
	out := make(map[string]color.Color, len(cats))
	if len(palette) == 0 {
		return out
	}
	for i, c := range cats {
		out[c] = palette[i%len(palette)]
	}
	return out
}

// Render dispatches to the layout named by backend and saves the figure to
// path when path is non-empty.
func Render(backend Backend, in Input, path string) (*Figure, error) {
	switch backend {
	case "", BackendClustermap:
		return RenderClustermap(in, path)
	case BackendGrid:
		return RenderGrid(in, path)
	}
	return nil, errors.New(errors.ErrCodeInvalidBackend, "unknown backend %q", backend)
}

// trees clusters rows and columns, reusing precomputed merges.
func trees(in Input) (rows, cols *cluster.Tree, err error) {
	n := in.Matrix.Len()
	if in.RowMerges != nil {
		rows, err = cluster.Dendrogram(in.RowMerges, n)
	} else {
		rows, err = cluster.Cluster(in.Matrix.Data, in.Method)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cluster rows: %w", err)
	}
	if in.ColMerges != nil {
		cols, err = cluster.Dendrogram(in.ColMerges, n)
	} else {
		cols, err = cluster.Cluster(in.Matrix.Data.T(), in.Method)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cluster columns: %w", err)
	}
	return rows, cols, nil
}

func validate(in Input) error {
	if in.Matrix == nil || in.Matrix.Len() == 0 {
		return errors.New(errors.ErrCodeInvalidMatrix, "no matrix to render")
	}
	r, c := in.Matrix.Data.Dims()
	if r != c {
		return errors.New(errors.ErrCodeInvalidMatrix, "matrix is %dx%d, want square", r, c)
	}
	return nil
}

// Figure size bounds in inches.
const (
	MinFigureSize = 8.0
	MaxFigureSize = 120.0
)

// newFigure validates in, clusters both axes and resolves the colour scale.
// Layout-specific fields are left to the caller.
func newFigure(in Input, backend Backend, perRow float64) (*Figure, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	vmin, vmax, err := ValueRange(in)
	if err != nil {
		return nil, err
	}
	cmap, err := colormap.Get(in.Colormap)
	if err != nil {
		return nil, err
	}
	hi := vmin + math.Max(vmax-vmin, MinRangeWidth)
	colormap.SetRange(cmap, vmin, hi)

	rows, cols, err := trees(in)
	if err != nil {
		return nil, err
	}

	n := in.Matrix.Len()
	size, scale := FigureSize(n, perRow, MinFigureSize, MaxFigureSize)
	return &Figure{
		Backend:       backend,
		Title:         in.Title,
		Width:         vg.Length(size) * vg.Inch,
		Height:        vg.Length(size) * vg.Inch,
		FontScale:     scale,
		Matrix:        in.Matrix,
		Labels:        ResolveLabels(in.Matrix.IDs, in.Labels),
		Rows:          rows,
		Cols:          cols,
		VMin:          vmin,
		VMax:          hi,
		Ticks:         ColorbarTicks(vmin, vmax),
		Colormap:      cmap,
		integralTicks: vmax > 10,
	}, nil
}

// strips returns the class colour at each ordered position for rows and
// columns. Ids without a colour get nil.
func strips(f *Figure, colorOf func(id string) color.Color) (rows, cols []color.Color) {
	at := func(order []int) []color.Color {
		out := make([]color.Color, len(order))
		for i, k := range order {
			out[i] = colorOf(f.Matrix.IDs[k])
		}
		return out
	}
	return at(f.RowOrder()), at(f.ColOrder())
}
