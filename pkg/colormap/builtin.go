package colormap

import (
	"image/color"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// SpeciesBoundary is grey below 0.7 identity, blue from 0.7 to 0.9, fading
// to white at the 0.95 species boundary and to red at 1.0.
func SpeciesBoundary() *Segmented {
	return NewSegmented("spbnd_BuRd",
		[]Segment{{0, 0, 0.7}, {0.7, 0.7, 0}, {0.9, 0, 0}, {0.95, 1, 1}, {1, 1, 1}},
		[]Segment{{0, 0, 0.7}, {0.7, 0.7, 0}, {0.9, 0, 0}, {0.95, 1, 1}, {1, 0, 0}},
		[]Segment{{0, 0, 0.7}, {0.7, 0.7, 1}, {0.95, 1, 1}, {1, 0, 0}},
	)
}

// HadamardBoundary is the species boundary map for Hadamard products of
// identity and coverage: grey below 0.64 (0.8 squared), white at 0.81.
func HadamardBoundary() *Segmented {
	return NewSegmented("hadamard_BuRd",
		[]Segment{{0, 0, 0.7}, {0.64, 0.7, 0}, {0.64, 0, 0}, {0.81, 1, 1}, {1, 1, 1}},
		[]Segment{{0, 0, 0.7}, {0.64, 0.7, 0}, {0.64, 0, 0}, {0.81, 1, 1}, {1, 0, 0}},
		[]Segment{{0, 0, 0.7}, {0.64, 0.7, 1}, {0.81, 1, 1}, {1, 0, 0}},
	)
}

// BlueRed is a plain diverging map: blue at 0, white at 0.5, red at 1.
func BlueRed() *Segmented {
	return NewSegmented("BuRd",
		[]Segment{{0, 0, 0}, {0.5, 1, 1}, {1, 1, 1}},
		[]Segment{{0, 0, 0}, {0.5, 1, 1}, {1, 0, 0}},
		[]Segment{{0, 1, 1}, {0.5, 1, 1}, {1, 0, 0}},
	)
}

// Paired is the 12-colour qualitative ColorBrewer palette used for class
// strips.
func Paired() *Listed {
	return NewListed("Paired", brewerColors("Paired", 12))
}

// brewerColors returns a ColorBrewer palette, or a grey ramp if the name is
// unknown to the installed brewer tables.
func brewerColors(name string, n int) []color.Color {
	p, err := brewer.GetPalette(brewer.TypeAny, name, n)
	if err != nil {
		return []color.Color{color.Gray{Y: 0x40}, color.Gray{Y: 0xc0}}
	}
	return p.Colors()
}

func init() {
	Register("spbnd_BuRd", func() palette.ColorMap { return SpeciesBoundary() })
	Register("hadamard_BuRd", func() palette.ColorMap { return HadamardBoundary() })
	Register("BuRd", func() palette.ColorMap { return BlueRed() })
	Register("Paired", func() palette.ColorMap { return Paired() })

	Register("coolwarm", func() palette.ColorMap { return moreland.SmoothBlueRed() })
	Register("blackbody", moreland.BlackBody)
	Register("extended_blackbody", moreland.ExtendedBlackBody)
	Register("kindlmann", moreland.Kindlmann)
	Register("extended_kindlmann", moreland.ExtendedKindlmann)

	// Brewer diverging palettes run from the warm end; reverse them so high
	// identity maps to the first (red/brown) colour like BuRd.
	for _, name := range []string{"RdBu", "PuOr", "RdYlBu"} {
		name := name
		Register(name, func() palette.ColorMap {
			return FromColors(name, reversed(brewerColors(name, 11)))
		})
	}
}

func reversed(cs []color.Color) []color.Color {
	out := make([]color.Color, len(cs))
	for i, c := range cs {
		out[len(cs)-1-i] = c
	}
	return out
}
