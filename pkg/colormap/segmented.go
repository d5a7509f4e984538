// Package colormap provides named colour maps for heatmap rendering.
//
// Every map implements gonum's [palette.ColorMap], so it can drive both
// [plotter.HeatMap] (through [palette.ColorMap.Palette]) and
// [plotter.ColorBar]. Maps are looked up by name from a process-wide
// registry populated at package load; see [Get] and [Register].
//
// [plotter.HeatMap]: https://pkg.go.dev/gonum.org/v1/plot/plotter#HeatMap
// [plotter.ColorBar]: https://pkg.go.dev/gonum.org/v1/plot/plotter#ColorBar
package colormap

import (
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot/palette"
)

// Segment is one anchor of a channel ramp. Approaching X from below the
// channel takes value Left; leaving X upwards it starts from Right. Equal
// Left and Right give a continuous ramp, different values a hard step.
type Segment struct {
	X, Left, Right float64
}

// Segmented is a piecewise-linear colour map defined per RGB channel.
type Segmented struct {
	name             string
	red, green, blue []Segment
	min, max, alpha  float64
}

// NewSegmented creates a segmented map over [0, 1]. Each channel must start
// at X=0 and end at X=1 with non-decreasing X.
func NewSegmented(name string, red, green, blue []Segment) *Segmented {
	return &Segmented{
		name:  name,
		red:   red,
		green: green,
		blue:  blue,
		max:   1,
		alpha: 1,
	}
}

// FromColors builds a continuous map that passes through colors at evenly
// spaced positions.
func FromColors(name string, colors []color.Color) *Segmented {
	n := len(colors)
	red := make([]Segment, n)
	green := make([]Segment, n)
	blue := make([]Segment, n)
	for i, c := range colors {
		x := 0.0
		if n > 1 {
			x = float64(i) / float64(n-1)
		}
		r, g, b := rgb(c)
		red[i] = Segment{x, r, r}
		green[i] = Segment{x, g, g}
		blue[i] = Segment{x, b, b}
	}
	if n == 1 {
		red = append(red, Segment{1, red[0].Left, red[0].Right})
		green = append(green, Segment{1, green[0].Left, green[0].Right})
		blue = append(blue, Segment{1, blue[0].Left, blue[0].Right})
	}
	return NewSegmented(name, red, green, blue)
}

// Name returns the registered name of the map.
func (s *Segmented) Name() string { return s.name }

// At implements palette.ColorMap.
func (s *Segmented) At(v float64) (color.Color, error) {
	if math.IsNaN(v) {
		return nil, palette.ErrNaN
	}
	x := 0.0
	if s.max > s.min {
		x = snap((v - s.min) / (s.max - s.min))
	}
	switch {
	case x < 0:
		return nil, palette.ErrUnderflow
	case x > 1:
		return nil, palette.ErrOverflow
	}
	return color.NRGBA{
		R: channel(interp(s.red, x)),
		G: channel(interp(s.green, x)),
		B: channel(interp(s.blue, x)),
		A: channel(s.alpha),
	}, nil
}

// Max implements palette.ColorMap.
func (s *Segmented) Max() float64 { return s.max }

// SetMax implements palette.ColorMap.
func (s *Segmented) SetMax(v float64) { s.max = v }

// Min implements palette.ColorMap.
func (s *Segmented) Min() float64 { return s.min }

// SetMin implements palette.ColorMap.
func (s *Segmented) SetMin(v float64) { s.min = v }

// Alpha implements palette.ColorMap.
func (s *Segmented) Alpha() float64 { return s.alpha }

// SetAlpha implements palette.ColorMap.
func (s *Segmented) SetAlpha(a float64) { s.alpha = a }

// Palette implements palette.ColorMap, sampling n evenly spaced colours
// from Min to Max inclusive.
func (s *Segmented) Palette(n int) palette.Palette {
	return sample(s, n)
}

// interp evaluates a channel ramp at x in [0, 1].
func interp(segs []Segment, x float64) float64 {
	if len(segs) == 0 {
		return 0
	}
	if x >= segs[len(segs)-1].X {
		return segs[len(segs)-1].Left
	}
	// k is the last anchor with X <= x.
	k := sort.Search(len(segs), func(i int) bool { return segs[i].X > x }) - 1
	if k < 0 {
		return segs[0].Right
	}
	lo, hi := segs[k], segs[k+1]
	if hi.X == lo.X {
		return lo.Right
	}
	t := (x - lo.X) / (hi.X - lo.X)
	return lo.Right + t*(hi.Left-lo.Right)
}

// snap absorbs rounding error at the ends of the unit range.
func snap(x float64) float64 {
	const eps = 1e-9
	switch {
	case x < 0 && x > -eps:
		return 0
	case x > 1 && x < 1+eps:
		return 1
	}
	return x
}

func channel(v float64) uint8 {
	v = math.Max(0, math.Min(1, v))
	return uint8(math.Round(v * 255))
}

// rgb returns the straight (non-premultiplied) channels of c in [0, 1].
func rgb(c color.Color) (r, g, b float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return float64(n.R) / 255, float64(n.G) / 255, float64(n.B) / 255
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

// sample returns n colours spanning the map's range.
func sample(c palette.ColorMap, n int) palette.Palette {
	if n < 1 {
		return colorList(nil)
	}
	out := make(colorList, n)
	lo, hi := c.Min(), c.Max()
	for i := range out {
		v := lo
		switch {
		case n > 1 && i == n-1:
			v = hi
		case n > 1:
			v = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		col, err := c.At(v)
		if err != nil {
			col = color.Transparent
		}
		out[i] = col
	}
	return out
}

// SetRange sets min and max on c in an order that never leaves min > max,
// for maps whose setters validate.
func SetRange(c palette.ColorMap, lo, hi float64) {
	if lo >= c.Max() {
		c.SetMax(hi)
		c.SetMin(lo)
		return
	}
	c.SetMin(lo)
	c.SetMax(hi)
}
