package imaging

import (
	"image/color"
	"math/rand"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
)

// Named colors used by the visualizers.
var (
	White = color.NRGBA{255, 255, 255, 255}
	Black = color.NRGBA{0, 0, 0, 255}
	Gray  = color.NRGBA{128, 128, 128, 255}
	Green = color.NRGBA{0, 255, 0, 255}
	Red   = color.NRGBA{255, 0, 0, 255}
)

// RandomColors generates n visually distinct colors.
//
// Hues are spaced evenly around the HSV wheel (hue i/n, full saturation)
// with value 1.0 when bright is true and 0.7 otherwise. The list is then
// shuffled with rng so neighbouring instances do not get neighbouring hues.
// A nil rng leaves the colors in hue order.
func RandomColors(n int, bright bool, rng *rand.Rand) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	value := 1.0
	if !bright {
		value = 0.7
	}

	colors := make([]color.NRGBA, n)
	for i := range colors {
		c := colorful.Hsv(360*float64(i)/float64(n), 1, value)
		r, g, b := c.Clamped().RGB255()
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}

	if rng != nil {
		rng.Shuffle(len(colors), func(i, j int) {
			colors[i], colors[j] = colors[j], colors[i]
		})
	}
	return colors
}

// RandomColor returns a uniformly random opaque color.
func RandomColor(rng *rand.Rand) color.NRGBA {
	return color.NRGBA{
		R: uint8(rng.Intn(256)),
		G: uint8(rng.Intn(256)),
		B: uint8(rng.Intn(256)),
		A: 255,
	}
}

// WithAlpha returns c with its alpha replaced by alpha (0.0 to 1.0).
func WithAlpha(c color.Color, alpha float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(clampUnit(alpha)*255 + 0.5)
	return n
}

// ParseHexColor parses a hex color string like "#FF0000" or "#FF000080".
// The leading '#' is optional.
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, errors.New("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, errors.Wrapf(err, "invalid hex color %q", hex)
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, errors.Wrapf(err, "invalid hex color %q", hex)
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, errors.Errorf("invalid hex color length %d", len(hex))
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// Colormap maps scalars in [0, 1] to colors by interpolating between the
// stops of a sequential palette.
type Colormap struct {
	stops []colorful.Color
}

// Blues returns the ColorBrewer "Blues" sequential colormap (light to dark).
// With reversed set it runs dark to light, which makes background zeros
// dark and labelled pixels bright.
func Blues(reversed bool) (*Colormap, error) {
	p, err := brewer.GetPalette(brewer.TypeSequential, "Blues", 9)
	if err != nil {
		return nil, errors.Wrap(err, "load Blues palette")
	}
	src := p.Colors()
	stops := make([]colorful.Color, len(src))
	for i, c := range src {
		cf, _ := colorful.MakeColor(c)
		if reversed {
			stops[len(src)-1-i] = cf
		} else {
			stops[i] = cf
		}
	}
	return &Colormap{stops: stops}, nil
}

// At returns the color for t, clamped to [0, 1].
func (m *Colormap) At(t float64) color.NRGBA {
	t = clampUnit(t)
	n := len(m.stops) - 1
	if n <= 0 {
		r, g, b := m.stops[0].RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	pos := t * float64(n)
	i := int(pos)
	if i >= n {
		i = n - 1
	}
	c := m.stops[i].BlendRgb(m.stops[i+1], pos-float64(i))
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func clampUnit(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Palette samples n evenly spaced colors from the map for use with gonum
// plot's heat maps.
func (m *Colormap) Palette(n int) palette.Palette {
	if n < 2 {
		n = 2
	}
	out := make(sampled, n)
	for i := range out {
		out[i] = m.At(float64(i) / float64(n-1))
	}
	return out
}

type sampled []color.Color

func (s sampled) Colors() []color.Color { return s }
