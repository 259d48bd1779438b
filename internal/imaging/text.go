package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Metrics of the 7x13 bitmap face used for all text.
const (
	lineHeight  = 13
	fontAscent  = 11
	fontDescent = 2
	titlePad    = 4
)

var face = basicfont.Face7x13

// MeasureText returns the advance width of s in pixels.
func MeasureText(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// DrawString draws a single line of text with its baseline at y.
func DrawString(dst draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// TextAlign selects which edge of the text box the anchor y refers to.
type TextAlign int

const (
	// AlignBaseline anchors y at the first line's baseline.
	AlignBaseline TextAlign = iota
	// AlignTop anchors y at the top of the text box.
	AlignTop
)

// TextStyle controls caption rendering.
type TextStyle struct {
	Color color.Color

	// Background, when non-nil, is painted behind the text with
	// BackgroundAlpha opacity and Pad pixels of padding.
	Background      color.Color
	BackgroundAlpha float64
	Pad             int

	Align TextAlign
}

// Text draws s at data coordinate (x, y). Newlines start new lines below
// the first.
func (c *Canvas) Text(x, y float64, s string, st TextStyle) {
	if s == "" {
		return
	}
	lines := strings.Split(s, "\n")
	px, py := c.ToPixel(x, y)
	left := int(math.Round(px))
	baseline := int(math.Round(py))
	if st.Align == AlignTop {
		baseline += fontAscent
	}

	if st.Background != nil {
		width := 0
		for _, l := range lines {
			width = max(width, MeasureText(l))
		}
		r := image.Rect(
			left-st.Pad,
			baseline-fontAscent-st.Pad,
			left+width+st.Pad,
			baseline+(len(lines)-1)*lineHeight+fontDescent+st.Pad,
		)
		alpha := st.BackgroundAlpha
		if alpha == 0 {
			alpha = 1
		}
		bg := image.NewUniform(WithAlpha(st.Background, alpha))
		draw.Draw(c.img, r.Intersect(c.img.Bounds()), bg, image.Point{}, draw.Over)
	}

	fg := st.Color
	if fg == nil {
		fg = Black
	}
	for i, l := range lines {
		DrawString(c.img, left, baseline+i*lineHeight, l, fg)
	}
}
