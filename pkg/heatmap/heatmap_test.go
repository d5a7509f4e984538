package heatmap

import (
	"bytes"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/simheat/pkg/errors"
	"github.com/matzehuels/simheat/pkg/matrix"
)

func testMatrix(t *testing.T) *matrix.Matrix {
	t.Helper()
	m, err := matrix.FromRows([]string{"a", "b", "c", "d"}, [][]float64{
		{1.00, 0.98, 0.80, 0.81},
		{0.98, 1.00, 0.79, 0.80},
		{0.80, 0.79, 1.00, 0.97},
		{0.81, 0.80, 0.97, 1.00},
	})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return m
}

func ptr(v float64) *float64 { return &v }

func approxEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestColorbarTicks(t *testing.T) {
	tests := []struct {
		name       string
		vmin, vmax float64
		want       []float64
	}{
		{"unit", 0.7, 1, []float64{0.7, 0.775, 0.85, 0.925, 1}},
		{"degenerate", 5, 5, []float64{5, 5.0025, 5.005, 5.0075, 5.01}},
		{"large", 0, 1234, []float64{0, 300, 600, 900, 1200}},
		{"ten", 0, 10, []float64{0, 2.5, 5, 7.5, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorbarTicks(tt.vmin, tt.vmax); !approxEqual(got, tt.want) {
				t.Errorf("ColorbarTicks(%v, %v) = %v, want %v", tt.vmin, tt.vmax, got, tt.want)
			}
		})
	}
}

func TestFigureSize(t *testing.T) {
	tests := []struct {
		n         int
		perRow    float64
		wantSize  float64
		wantScale float64
	}{
		{1, 1.1, 8, 1},
		{4, 1.1, 8, 1},
		{20, 1.1, 22, 1},
		{200, 1.1, 120, 120.0 / 220.0},
		{40, 0.175, 8, 1},
		{1000, 0.175, 120, 120.0 / 175.0},
	}
	for _, tt := range tests {
		size, scale := FigureSize(tt.n, tt.perRow, 8, 120)
		if math.Abs(size-tt.wantSize) > 1e-9 || math.Abs(scale-tt.wantScale) > 1e-9 {
			t.Errorf("FigureSize(%d, %v) = (%v, %v), want (%v, %v)", tt.n, tt.perRow, size, scale, tt.wantSize, tt.wantScale)
		}
		if size < 8 || size > 120 {
			t.Errorf("FigureSize(%d, %v) = %v out of bounds", tt.n, tt.perRow, size)
		}
	}
}

func TestResolveLabels(t *testing.T) {
	got := ResolveLabels([]string{"a", "b", "c"}, map[string]string{"b": "Bee", "c": ""})
	want := []string{"a", "Bee", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("ResolveLabels = %v, want %v", got, want)
	}
	if got := ResolveLabels([]string{"x"}, nil); got[0] != "x" {
		t.Errorf("nil map: got %v", got)
	}
}

func TestClassColors(t *testing.T) {
	classes := map[string]string{"a": "beta", "b": "alpha", "c": "beta"}
	pal := []color.Color{color.Black, color.White}
	got := ClassColors(classes, pal)
	if len(got) != 2 {
		t.Fatalf("got %d colours, want 2", len(got))
	}
	if got["alpha"] != color.Black || got["beta"] != color.White {
		t.Errorf("colours not assigned in sorted order: %v", got)
	}
}

func TestValueRange(t *testing.T) {
	m := testMatrix(t)

	lo, hi, err := ValueRange(Input{Matrix: m})
	if err != nil || lo != 0.79 || hi != 1 {
		t.Errorf("data range = (%v, %v, %v)", lo, hi, err)
	}
	lo, hi, err = ValueRange(Input{Matrix: m, VMin: ptr(0.5)})
	if err != nil || lo != 0.5 || hi != 1 {
		t.Errorf("vmin only = (%v, %v, %v)", lo, hi, err)
	}
	if _, _, err := ValueRange(Input{Matrix: m, VMin: ptr(2)}); !errors.Is(err, errors.ErrCodeInvalidRange) {
		t.Errorf("vmin above data: err = %v", err)
	}
	if _, _, err := ValueRange(Input{Matrix: m, VMin: ptr(1), VMax: ptr(0)}); !errors.Is(err, errors.ErrCodeInvalidRange) {
		t.Errorf("inverted bounds: err = %v", err)
	}
}

func TestParseBackend(t *testing.T) {
	if b, err := ParseBackend(""); err != nil || b != BackendClustermap {
		t.Errorf("default = %v, %v", b, err)
	}
	if b, err := ParseBackend("grid"); err != nil || b != BackendGrid {
		t.Errorf("grid = %v, %v", b, err)
	}
	if _, err := ParseBackend("seaborn"); !errors.Is(err, errors.ErrCodeInvalidBackend) {
		t.Errorf("unknown: err = %v", err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	for _, backend := range Backends() {
		t.Run(string(backend), func(t *testing.T) {
			in := Input{
				Matrix:  testMatrix(t),
				Title:   "ANIm identity",
				Classes: map[string]string{"a": "x", "b": "x", "c": "y"},
			}
			first, err := Render(backend, in, "")
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			a, err := first.Encode(FormatPNG)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			second, err := Render(backend, in, "")
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			b, err := second.Encode(FormatPNG)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(a, b) {
				t.Error("two renders of the same input differ")
			}
			if !bytes.HasPrefix(a, []byte("\x89PNG")) {
				t.Error("output is not a PNG")
			}
		})
	}
}

func TestRenderOrder(t *testing.T) {
	f, err := RenderClustermap(Input{Matrix: testMatrix(t)}, "")
	if err != nil {
		t.Fatal(err)
	}
	// {a,b} and {c,d} are the tight pairs.
	order := f.RowOrder()
	pos := make(map[int]int)
	for i, k := range order {
		pos[k] = i
	}
	if d := pos[0] - pos[1]; d != 1 && d != -1 {
		t.Errorf("a and b not adjacent in %v", order)
	}
	if d := pos[2] - pos[3]; d != 1 && d != -1 {
		t.Errorf("c and d not adjacent in %v", order)
	}
	if !slices.Equal(f.RowOrder(), f.ColOrder()) {
		t.Errorf("symmetric input gave row order %v and column order %v", f.RowOrder(), f.ColOrder())
	}
}

func TestRenderLabelFallback(t *testing.T) {
	m := testMatrix(t)
	f, err := RenderGrid(Input{Matrix: m}, "")
	if err != nil {
		t.Fatal(err)
	}
	if want := m.IDsAt(f.RowOrder()); !slices.Equal(f.RowLabels(), want) {
		t.Errorf("row labels = %v, want raw ids %v", f.RowLabels(), want)
	}

	f, err = RenderGrid(Input{Matrix: m, Labels: map[string]string{"a": "Genome A"}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(f.ColLabels(), "Genome A") || !slices.Contains(f.ColLabels(), "b") {
		t.Errorf("col labels = %v", f.ColLabels())
	}
}

func TestRenderEqualBounds(t *testing.T) {
	for _, backend := range Backends() {
		f, err := Render(backend, Input{Matrix: testMatrix(t), VMin: ptr(0.9), VMax: ptr(0.9)}, "")
		if err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
		if math.Abs(f.VMax-f.VMin-MinRangeWidth) > 1e-12 {
			t.Errorf("%s: range [%v, %v] not widened", backend, f.VMin, f.VMax)
		}
		if _, err := f.Encode(FormatPNG); err != nil {
			t.Errorf("%s: encode: %v", backend, err)
		}
	}
}

func TestRenderConstantMatrix(t *testing.T) {
	m, err := matrix.FromRows([]string{"a", "b"}, [][]float64{{1, 1}, {1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	f, err := RenderClustermap(Input{Matrix: m}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Encode(FormatSVG); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func TestRenderSingle(t *testing.T) {
	m, err := matrix.FromRows([]string{"only"}, [][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	for _, backend := range Backends() {
		f, err := Render(backend, Input{Matrix: m}, "")
		if err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
		if !slices.Equal(f.RowOrder(), []int{0}) {
			t.Errorf("%s: order = %v", backend, f.RowOrder())
		}
		if _, err := f.Encode(FormatPNG); err != nil {
			t.Errorf("%s: encode: %v", backend, err)
		}
	}
}

func TestStripsAgree(t *testing.T) {
	classes := map[string]string{"a": "x", "b": "x", "c": "y"}

	f, err := RenderClustermap(Input{Matrix: testMatrix(t), Classes: classes}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.ClassColors) != 2 {
		t.Errorf("clustermap: %d class colours, want 2", len(f.ClassColors))
	}
	checkStrips(t, f, map[string]color.Color{"d": color.White})

	g, err := RenderGrid(Input{Matrix: testMatrix(t), Classes: classes}, "")
	if err != nil {
		t.Fatal(err)
	}
	// d has no class, so it is its own category.
	if len(g.ClassColors) != 3 {
		t.Errorf("grid: %d class colours, want 3", len(g.ClassColors))
	}
	checkStrips(t, g, nil)
}

// checkStrips verifies both strips give every id the same colour, and that
// ids in want get exactly that colour.
func checkStrips(t *testing.T, f *Figure, want map[string]color.Color) {
	t.Helper()
	byID := make(map[string]color.Color)
	for i, k := range f.RowOrder() {
		byID[f.Matrix.IDs[k]] = f.RowStrip[i]
	}
	for i, k := range f.ColOrder() {
		id := f.Matrix.IDs[k]
		if byID[id] != f.ColStrip[i] {
			t.Errorf("%s: row strip %v, column strip %v", id, byID[id], f.ColStrip[i])
		}
	}
	for id, c := range want {
		if byID[id] != c {
			t.Errorf("%s: strip colour %v, want %v", id, byID[id], c)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	if _, err := Render(BackendGrid, Input{}, ""); !errors.Is(err, errors.ErrCodeInvalidMatrix) {
		t.Errorf("nil matrix: err = %v", err)
	}
	if _, err := Render("plotly", Input{Matrix: testMatrix(t)}, ""); !errors.Is(err, errors.ErrCodeInvalidBackend) {
		t.Errorf("bad backend: err = %v", err)
	}
	if _, err := Render(BackendClustermap, Input{Matrix: testMatrix(t), Colormap: "jet"}, ""); !errors.Is(err, errors.ErrCodeInvalidColormap) {
		t.Errorf("bad colormap: err = %v", err)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	for _, format := range Formats() {
		path := filepath.Join(dir, "out."+format)
		if _, err := RenderGrid(Input{Matrix: testMatrix(t), Title: "t"}, path); err != nil {
			t.Errorf("%s: %v", format, err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			t.Errorf("%s: file missing or empty (%v)", format, err)
		}
	}

	_, err := RenderClustermap(Input{Matrix: testMatrix(t)}, filepath.Join(dir, "out.bmp"))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bmp: err = %v", err)
	}
}

func TestFigurePageSize(t *testing.T) {
	f, err := RenderClustermap(Input{Matrix: testMatrix(t)}, "")
	if err != nil {
		t.Fatal(err)
	}
	if f.Width != 8*vg.Inch || f.Height != 8*vg.Inch {
		t.Errorf("page = %v x %v, want 8in square", f.Width, f.Height)
	}
	if f.FontScale != 1 {
		t.Errorf("font scale = %v", f.FontScale)
	}
}

func TestSplit(t *testing.T) {
	got := split(0, 100, 0, 1, 1)
	if got[0] != (span{0, 50}) || got[1] != (span{50, 100}) {
		t.Errorf("split = %v", got)
	}
	down := splitDown(0, 130, 0, 0.3, 1)
	if math.Abs(float64(down[0].lo-100)) > 1e-9 || math.Abs(float64(down[1].hi-100)) > 1e-9 {
		t.Errorf("splitDown = %v, want top cell [100, 130]", down)
	}
	gapped := split(0, 210, 0.1, 1, 1)
	if math.Abs(float64(gapped[1].lo-gapped[0].hi-10)) > 1e-9 {
		t.Errorf("gap = %v, want 10", gapped[1].lo-gapped[0].hi)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path, want string
		ok         bool
	}{
		{"x.png", "png", true},
		{"dir/x.PDF", "pdf", true},
		{"x.jpeg", "jpeg", true},
		{"x.tif", "tif", true},
		{"x", "", false},
		{"x.gif", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestGridColorbarTitle(t *testing.T) {
	f, err := RenderGrid(Input{Matrix: testMatrix(t), Title: "ANIm identity"}, "")
	if err != nil {
		t.Fatal(err)
	}
	cb := gridColorbar(f)
	if cb.Y.Label.Text != "ANIm identity" {
		t.Errorf("colourbar label = %q", cb.Y.Label.Text)
	}
	want := vg.Points(gridTickPt) * vg.Length(f.FontScale)
	if got := cb.Y.Label.TextStyle.Font.Size; got != want {
		t.Errorf("label size = %v, want %v", got, want)
	}
	if got := cb.Y.Tick.Label.Font.Size; got != want {
		t.Errorf("tick size = %v, want %v", got, want)
	}

	svg, err := f.Encode(FormatSVG)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("ANIm identity")) {
		t.Error("title missing from grid figure")
	}
}
