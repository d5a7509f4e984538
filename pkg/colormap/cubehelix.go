package colormap

import (
	"image/color"
	"math"
)

// CubehelixOptions parameterises a cubehelix ramp.
type CubehelixOptions struct {
	Start   float64 // starting hue, 0..3
	Rot     float64 // rotations through the hue wheel
	Hue     float64 // saturation
	Gamma   float64 // intensity exponent
	Light   float64 // intensity of the lightest colour, 0..1
	Dark    float64 // intensity of the darkest colour, 0..1
	Reverse bool    // dark to light instead of light to dark
}

// AnnotationCubehelix returns the options used for clustermap cells when
// discrete levels are listed: a green to purple ramp running dark to light.
func AnnotationCubehelix() CubehelixOptions {
	return CubehelixOptions{
		Start:   1,
		Rot:     -2,
		Hue:     0.8,
		Gamma:   1,
		Light:   0.9,
		Dark:    0.1,
		Reverse: true,
	}
}

// Cubehelix returns n colours along a cubehelix ramp.
func Cubehelix(n int, o CubehelixOptions) []color.Color {
	if n < 1 {
		return nil
	}
	out := make([]color.Color, n)
	for i := range out {
		x := o.Light
		if n > 1 {
			x = o.Light + (o.Dark-o.Light)*float64(i)/float64(n-1)
		}
		out[i] = helix(x, o)
	}
	if o.Reverse {
		out = reversed(out)
	}
	return out
}

func helix(x float64, o CubehelixOptions) color.Color {
	xg := math.Pow(x, o.Gamma)
	a := o.Hue * xg * (1 - xg) / 2
	phi := 2 * math.Pi * (o.Start/3 + o.Rot*x)
	c, s := math.Cos(phi), math.Sin(phi)
	return color.NRGBA{
		R: channel(xg + a*(-0.14861*c+1.78277*s)),
		G: channel(xg + a*(-0.29227*c-0.90649*s)),
		B: channel(xg + a*(1.97294*c)),
		A: 0xff,
	}
}

// Luminance returns the WCAG relative luminance of c.
func Luminance(c color.Color) float64 {
	r, g, b := rgb(c)
	return 0.2126*linear(r) + 0.7152*linear(g) + 0.0722*linear(b)
}

func linear(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// TextColor picks black or white text for legibility on background bg.
func TextColor(bg color.Color) color.Color {
	if bg == nil {
		return color.Black
	}
	if Luminance(bg) > 0.408 {
		return color.Black
	}
	return color.White
}
