package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// LineStyle selects the dash pattern of a stroke.
type LineStyle int

const (
	// LineSolid draws a continuous line.
	LineSolid LineStyle = iota
	// LineDashed draws long dashes.
	LineDashed
	// LineDotted draws short dots.
	LineDotted
)

// dashes returns the on/off pattern for the style, scaled by stroke width.
func (s LineStyle) dashes(width float64) []float64 {
	switch s {
	case LineDashed:
		return []float64{3.7 * width, 1.6 * width}
	case LineDotted:
		return []float64{1 * width, 1.65 * width}
	}
	return nil
}

// Point is a position in data coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke describes how an outline is drawn.
type Stroke struct {
	Color color.Color
	Width float64 // line width in pixels; 0 means 1
	// Alpha, when set, replaces Color's own alpha. A zero Alpha gives an
	// invisible stroke.
	Alpha *float64
	Style LineStyle
}

// Opacity returns a pointer to alpha, for Stroke.Alpha.
func Opacity(alpha float64) *float64 {
	return &alpha
}

func (s Stroke) paint() color.NRGBA {
	if s.Alpha == nil {
		return color.NRGBAModel.Convert(s.Color).(color.NRGBA)
	}
	return WithAlpha(s.Color, *s.Alpha)
}

// Canvas is a single rendered figure.
//
// The canvas has a white background, an optional title strip at the top and
// a data area spanning [xMin, xMax] × [yMin, yMax] at one pixel per data
// unit. Y grows downward, as in image coordinates, so the image drawn with
// DrawImage appears upright.
type Canvas struct {
	img        *image.RGBA
	xMin, yMin float64
	xMax, yMax float64
	top        int
}

// NewCanvas creates a figure whose data area covers the given limits. The
// title may contain newlines; the strip is sized to fit it.
func NewCanvas(xMin, xMax, yMin, yMax float64, title string) *Canvas {
	w := int(math.Ceil(xMax - xMin))
	h := int(math.Ceil(yMax - yMin))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	top := titleHeight(title)

	img := image.NewRGBA(image.Rect(0, 0, w, h+top))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	c := &Canvas{img: img, xMin: xMin, yMin: yMin, xMax: xMax, yMax: yMax, top: top}
	c.SetTitle(title)
	return c
}

// Image returns the rendered figure.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Limits returns the data-space limits of the canvas.
func (c *Canvas) Limits() (xMin, xMax, yMin, yMax float64) {
	return c.xMin, c.xMax, c.yMin, c.yMax
}

// ToPixel converts a data coordinate to a pixel coordinate in the figure.
func (c *Canvas) ToPixel(x, y float64) (float64, float64) {
	return x - c.xMin, y - c.yMin + float64(c.top)
}

// SetTitle clears the title strip and writes title centered in it. Lines
// that do not fit in the strip are dropped.
func (c *Canvas) SetTitle(title string) {
	if c.top == 0 {
		return
	}
	strip := image.Rect(0, 0, c.img.Bounds().Dx(), c.top)
	draw.Draw(c.img, strip, image.White, image.Point{}, draw.Src)
	if title == "" {
		return
	}
	lines := strings.Split(title, "\n")
	for i, line := range lines {
		baseline := titlePad + (i+1)*lineHeight - fontDescent
		if baseline > c.top {
			break
		}
		x := (strip.Dx() - MeasureText(line)) / 2
		DrawString(c.img, x, baseline, line, Black)
	}
}

// DrawImage paints src into the data area with its top-left corner at data
// coordinate (0, 0), replacing whatever was there.
func (c *Canvas) DrawImage(src image.Image) {
	px, py := c.ToPixel(0, 0)
	dp := image.Pt(int(math.Round(px)), int(math.Round(py)))
	r := image.Rectangle{Min: dp, Max: dp.Add(src.Bounds().Size())}
	draw.Draw(c.img, r, src, src.Bounds().Min, draw.Src)
}

// StrokeRect outlines the rectangle with corners (x1, y1) and (x2, y2).
func (c *Canvas) StrokeRect(x1, y1, x2, y2 float64, s Stroke) {
	c.stroke([]Point{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}, true, s)
}

// StrokeLine draws a segment from (x1, y1) to (x2, y2).
func (c *Canvas) StrokeLine(x1, y1, x2, y2 float64, s Stroke) {
	c.stroke([]Point{{x1, y1}, {x2, y2}}, false, s)
}

// StrokePolygon outlines a closed polygon.
func (c *Canvas) StrokePolygon(pts []Point, s Stroke) {
	c.stroke(pts, true, s)
}

// FillRect paints an axis-aligned rectangle, composited over the canvas.
func (c *Canvas) FillRect(x1, y1, x2, y2 float64, fill color.Color) {
	px1, py1 := c.ToPixel(x1, y1)
	px2, py2 := c.ToPixel(x2, y2)
	r := image.Rect(int(math.Floor(px1)), int(math.Floor(py1)), int(math.Ceil(px2)), int(math.Ceil(py2)))
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.NewUniform(fill), image.Point{}, draw.Over)
}

// stroke rasterizes a polyline through rasterx. Drawing outside the figure
// is clipped by the scanner.
func (c *Canvas) stroke(pts []Point, closed bool, s Stroke) {
	paint := s.paint()
	if len(pts) < 2 || paint.A == 0 {
		return
	}
	width := s.Width
	if width <= 0 {
		width = 1
	}

	b := c.img.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), c.img, b)
	dasher := rasterx.NewDasher(b.Dx(), b.Dy(), scanner)
	dasher.SetStroke(
		fixed.Int26_6(width*64), fixed.Int26_6(4*64),
		rasterx.ButtCap, rasterx.ButtCap, rasterx.FlatGap, rasterx.Miter,
		s.Style.dashes(width), 0,
	)
	dasher.SetColor(paint)

	x, y := c.ToPixel(pts[0].X, pts[0].Y)
	dasher.Start(rasterx.ToFixedP(x, y))
	for _, p := range pts[1:] {
		x, y = c.ToPixel(p.X, p.Y)
		dasher.Line(rasterx.ToFixedP(x, y))
	}
	dasher.Stop(closed)
	dasher.Draw()
}

// titleHeight returns the height of the strip needed for title, or 0 when
// there is no title.
func titleHeight(title string) int {
	if title == "" {
		return 0
	}
	n := strings.Count(title, "\n") + 1
	return n*lineHeight + 2*titlePad
}
