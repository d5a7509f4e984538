package colormap

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// Listed is a discrete colour map: the range [Min, Max] is divided into
// len(colors) equal bins, one colour per bin.
type Listed struct {
	name            string
	colors          []color.Color
	min, max, alpha float64
}

// NewListed creates a listed map over [0, 1].
func NewListed(name string, cs []color.Color) *Listed {
	return &Listed{name: name, colors: cs, max: 1, alpha: 1}
}

// Name returns the registered name of the map.
func (l *Listed) Name() string { return l.name }

// Len returns the number of distinct colours.
func (l *Listed) Len() int { return len(l.colors) }

// Index returns the i-th colour, wrapping around.
func (l *Listed) Index(i int) color.Color {
	n := len(l.colors)
	return l.colors[((i%n)+n)%n]
}

// At implements palette.ColorMap.
func (l *Listed) At(v float64) (color.Color, error) {
	if math.IsNaN(v) {
		return nil, palette.ErrNaN
	}
	x := 0.0
	if l.max > l.min {
		x = snap((v - l.min) / (l.max - l.min))
	}
	switch {
	case x < 0:
		return nil, palette.ErrUnderflow
	case x > 1:
		return nil, palette.ErrOverflow
	}
	i := int(x * float64(len(l.colors)))
	if i >= len(l.colors) {
		i = len(l.colors) - 1
	}
	r, g, b := rgb(l.colors[i])
	return color.NRGBA{R: channel(r), G: channel(g), B: channel(b), A: channel(l.alpha)}, nil
}

// Max implements palette.ColorMap.
func (l *Listed) Max() float64 { return l.max }

// SetMax implements palette.ColorMap.
func (l *Listed) SetMax(v float64) { l.max = v }

// Min implements palette.ColorMap.
func (l *Listed) Min() float64 { return l.min }

// SetMin implements palette.ColorMap.
func (l *Listed) SetMin(v float64) { l.min = v }

// Alpha implements palette.ColorMap.
func (l *Listed) Alpha() float64 { return l.alpha }

// SetAlpha implements palette.ColorMap.
func (l *Listed) SetAlpha(a float64) { l.alpha = a }

// Palette implements palette.ColorMap.
func (l *Listed) Palette(n int) palette.Palette {
	return sample(l, n)
}
