package colormap

import (
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/plot/palette"

	"github.com/matzehuels/simheat/pkg/errors"
)

func nrgba(t *testing.T, c color.Color) color.NRGBA {
	t.Helper()
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func TestSpeciesBoundary(t *testing.T) {
	c := SpeciesBoundary()

	tests := []struct {
		v    float64
		want color.NRGBA
	}{
		{0, color.NRGBA{179, 179, 179, 255}},
		{0.5, color.NRGBA{179, 179, 179, 255}},
		{0.95, color.NRGBA{255, 255, 255, 255}},
		{1, color.NRGBA{255, 0, 0, 255}},
	}
	for _, tt := range tests {
		got, err := c.At(tt.v)
		if err != nil {
			t.Fatalf("At(%v): %v", tt.v, err)
		}
		if n := nrgba(t, got); n != tt.want {
			t.Errorf("At(%v) = %v, want %v", tt.v, n, tt.want)
		}
	}

	// Just above 0.7 the map jumps to blue.
	got, _ := c.At(0.7001)
	if n := nrgba(t, got); n.B < 250 || n.R > 5 {
		t.Errorf("At(0.7001) = %v, want near-pure blue", n)
	}
}

func TestSegmentedErrors(t *testing.T) {
	c := BlueRed()
	if _, err := c.At(math.NaN()); err != palette.ErrNaN {
		t.Errorf("NaN: got %v", err)
	}
	if _, err := c.At(-0.1); err != palette.ErrUnderflow {
		t.Errorf("underflow: got %v", err)
	}
	if _, err := c.At(1.1); err != palette.ErrOverflow {
		t.Errorf("overflow: got %v", err)
	}
}

func TestSegmentedRange(t *testing.T) {
	c := BlueRed()
	SetRange(c, 10, 20)
	got, err := c.At(15)
	if err != nil {
		t.Fatal(err)
	}
	if n := nrgba(t, got); n != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("midpoint = %v, want white", n)
	}
}

func TestPalette(t *testing.T) {
	c := BlueRed()
	p := c.Palette(3).Colors()
	if len(p) != 3 {
		t.Fatalf("len = %d", len(p))
	}
	want := []color.NRGBA{{0, 0, 255, 255}, {255, 255, 255, 255}, {255, 0, 0, 255}}
	for i, w := range want {
		if n := nrgba(t, p[i]); n != w {
			t.Errorf("p[%d] = %v, want %v", i, n, w)
		}
	}
}

func TestListed(t *testing.T) {
	l := NewListed("rgb", []color.Color{
		color.NRGBA{255, 0, 0, 255},
		color.NRGBA{0, 255, 0, 255},
	})
	a, _ := l.At(0.25)
	b, _ := l.At(1)
	if nrgba(t, a).R != 255 || nrgba(t, b).G != 255 {
		t.Errorf("bins wrong: %v %v", a, b)
	}
	if l.Index(3) != l.Index(1) {
		t.Error("Index should wrap")
	}
}

func TestGet(t *testing.T) {
	c, err := Get("")
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := c.(*Segmented); !ok || s.Name() != DefaultName {
		t.Errorf("default map = %T", c)
	}

	if _, err := Get("no-such-map"); !errors.Is(err, errors.ErrCodeInvalidColormap) {
		t.Errorf("unknown map error = %v", err)
	}

	for _, name := range Names() {
		c, err := Get(name)
		if err != nil {
			t.Errorf("Get(%q): %v", name, err)
			continue
		}
		if c.Min() != 0 || c.Max() != 1 {
			t.Errorf("%s: range [%v, %v]", name, c.Min(), c.Max())
		}
		if _, err := c.At(0.5); err != nil {
			t.Errorf("%s.At(0.5): %v", name, err)
		}
	}
}

func TestGetFreshInstance(t *testing.T) {
	a, _ := Get("BuRd")
	a.SetMax(50)
	b, _ := Get("BuRd")
	if b.Max() != 1 {
		t.Errorf("registry returned shared instance")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
	for _, want := range []string{"spbnd_BuRd", "hadamard_BuRd", "BuRd", "Paired", "coolwarm"} {
		if !Exists(want) {
			t.Errorf("missing builtin %q", want)
		}
	}
}

func TestCoolwarmDiverging(t *testing.T) {
	c, err := Get("coolwarm")
	if err != nil {
		t.Fatal(err)
	}
	lo, err := c.At(0)
	if err != nil {
		t.Fatal(err)
	}
	hi, err := c.At(1)
	if err != nil {
		t.Fatal(err)
	}
	if l, h := nrgba(t, lo), nrgba(t, hi); l.B <= l.R || h.R <= h.B {
		t.Errorf("coolwarm should run blue to red, got %v .. %v", l, h)
	}
	if n := len(c.Palette(7).Colors()); n != 7 {
		t.Errorf("Palette(7) has %d colours", n)
	}
}

func TestCubehelix(t *testing.T) {
	cs := Cubehelix(5, AnnotationCubehelix())
	if len(cs) != 5 {
		t.Fatalf("len = %d", len(cs))
	}
	// Reversed: first colour is the dark end.
	if Luminance(cs[0]) >= Luminance(cs[4]) {
		t.Errorf("expected dark to light, got %v .. %v", cs[0], cs[4])
	}
	if Cubehelix(0, AnnotationCubehelix()) != nil {
		t.Error("n=0 should be nil")
	}
}

func TestTextColor(t *testing.T) {
	if TextColor(color.White) != color.Black {
		t.Error("white background should get black text")
	}
	if TextColor(color.Black) != color.White {
		t.Error("black background should get white text")
	}
	if TextColor(color.NRGBA{0, 0, 255, 255}) != color.White {
		t.Error("blue background should get white text")
	}
}
