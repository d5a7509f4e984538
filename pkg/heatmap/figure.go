package heatmap

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgeps"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/matzehuels/simheat/pkg/cluster"
	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/matrix"
)

// Supported output formats.
const (
	FormatPNG  = "png"
	FormatJPG  = "jpg"
	FormatJPEG = "jpeg"
	FormatTIFF = "tiff"
	FormatTIF  = "tif"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
	FormatEPS  = "eps"
)

var formats = map[string]bool{
	FormatPNG: true, FormatJPG: true, FormatJPEG: true, FormatTIFF: true,
	FormatTIF: true, FormatSVG: true, FormatPDF: true, FormatEPS: true,
}

// Formats returns the canonical output formats.
func Formats() []string {
	return []string{FormatPNG, FormatSVG, FormatPDF, FormatJPG, FormatTIFF, FormatEPS}
}

// ValidFormat reports whether format can be encoded.
func ValidFormat(format string) bool {
	return formats[strings.ToLower(format)]
}

// FormatFromPath infers the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !formats[ext] {
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer image format from %q", path)
	}
	return ext, nil
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatPNG:
		return "image/png"
	case FormatJPG, FormatJPEG:
		return "image/jpeg"
	case FormatTIFF, FormatTIF:
		return "image/tiff"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPDF:
		return "application/pdf"
	case FormatEPS:
		return "application/postscript"
	}
	return "application/octet-stream"
}

// Figure is a laid-out heatmap. It holds everything needed to draw the
// figure again on any canvas.
type Figure struct {
	Backend Backend
	Title   string

	// Width and Height are the page size; FontScale shrinks text when the
	// size was clamped.
	Width, Height vg.Length
	FontScale     float64

	Matrix *matrix.Matrix

	// Labels holds the display label for each id, indexed like Matrix.IDs.
	Labels []string

	Rows, Cols *cluster.Tree

	// VMin and VMax are the colour scale bounds after widening; Ticks are
	// the colourbar ticks.
	VMin, VMax float64
	Ticks      []float64
	Colormap   palette.ColorMap

	// ClassColors maps each category to its strip colour. RowStrip and
	// ColStrip hold the strip colour at each ordered position; both are nil
	// without classes.
	ClassColors        map[string]color.Color
	RowStrip, ColStrip []color.Color

	// integralTicks labels colourbar ticks without decimals.
	integralTicks bool

	layout func(f *Figure, c draw.Canvas)
}

// RowOrder returns matrix row indices in drawing order, top to bottom.
func (f *Figure) RowOrder() []int { return f.Rows.Leaves }

// ColOrder returns matrix column indices in drawing order, left to right.
func (f *Figure) ColOrder() []int { return f.Cols.Leaves }

// Ordered returns the reordered matrix data.
func (f *Figure) Ordered() *mat.Dense {
	return f.Matrix.Permute(f.RowOrder(), f.ColOrder())
}

// RowLabels returns display labels in row drawing order.
func (f *Figure) RowLabels() []string { return pick(f.Labels, f.RowOrder()) }

// ColLabels returns display labels in column drawing order.
func (f *Figure) ColLabels() []string { return pick(f.Labels, f.ColOrder()) }

func pick(labels []string, order []int) []string {
	out := make([]string, len(order))
	for i, k := range order {
		out[i] = labels[k]
	}
	return out
}

// Draw draws the figure onto c, filling c's rectangle.
func (f *Figure) Draw(c draw.Canvas) {
	c.SetColor(color.White)
	c.Fill(c.Rectangle.Path())
	if f.layout != nil {
		f.layout(f, c)
	}
}

// WriterTo returns an io.WriterTo that writes the figure in format.
func (f *Figure) WriterTo(format string) (io.WriterTo, error) {
	format = strings.ToLower(format)
	if !formats[format] {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported image format %q", format)
	}
	c, err := draw.NewFormattedCanvas(f.Width, f.Height, format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "create %s canvas", format)
	}
	f.Draw(draw.New(c))
	return c, nil
}

// Encode returns the figure encoded in format.
func (f *Figure) Encode(format string) ([]byte, error) {
	w, err := f.WriterTo(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Save writes the figure to path, inferring the format from the extension.
func (f *Figure) Save(path string) (err error) {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	w, err := f.WriterTo(format)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err := w.WriteTo(out); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// span is a [lo, hi] interval along one page axis.
type span struct{ lo, hi vg.Length }

// split divides [lo, hi] into cells with the given relative sizes separated
// by gaps of space times the mean cell size, like a matplotlib GridSpec.
// Cells are returned in increasing coordinate order.
func split(lo, hi vg.Length, space float64, ratios ...float64) []span {
	n := len(ratios)
	total := 0.0
	for _, r := range ratios {
		total += r
	}
	mean := float64(hi-lo) / (float64(n) + space*float64(n-1))
	gap := vg.Length(space * mean)
	out := make([]span, n)
	at := lo
	for i, r := range ratios {
		w := vg.Length(mean * float64(n) * r / total)
		out[i] = span{at, at + w}
		at += w + gap
	}
	return out
}

// splitDown is split for top-to-bottom layouts: the first ratio is the
// topmost cell.
func splitDown(lo, hi vg.Length, space float64, ratios ...float64) []span {
	rev := make([]float64, len(ratios))
	for i, r := range ratios {
		rev[len(ratios)-1-i] = r
	}
	cells := split(lo, hi, space, rev...)
	out := make([]span, len(cells))
	for i, c := range cells {
		out[len(cells)-1-i] = c
	}
	return out
}

func rect(x, y span) vg.Rectangle {
	return vg.Rectangle{Min: vg.Point{X: x.lo, Y: y.lo}, Max: vg.Point{X: x.hi, Y: y.hi}}
}
