package instances

import (
	"encoding/json"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Mask is a binary instance mask.
//
// Pix holds Width*Height bytes in row-major order. A value of 1 marks a
// pixel covered by the instance; any other value is treated as background.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates an empty mask of the given size.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At reports whether (x, y) is set. Coordinates outside the mask are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] == 1
}

// Set marks or clears (x, y). Coordinates outside the mask are ignored.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	if on {
		m.Pix[y*m.Width+x] = 1
	} else {
		m.Pix[y*m.Width+x] = 0
	}
}

// Area returns the number of set pixels.
func (m *Mask) Area() int {
	n := 0
	for _, v := range m.Pix {
		if v == 1 {
			n++
		}
	}
	return n
}

// Pad returns a copy of the mask surrounded by n background pixels on every
// side. Contour tracing pads by one so that instances touching the image
// border still produce closed outlines.
func (m *Mask) Pad(n int) *Mask {
	out := NewMask(m.Width+2*n, m.Height+2*n)
	for y := 0; y < m.Height; y++ {
		copy(out.Pix[(y+n)*out.Width+n:], m.Pix[y*m.Width:(y+1)*m.Width])
	}
	return out
}

// MaskFromImage builds a mask from a decoded image. Any pixel whose gray
// value is non-zero is set, so both 0/1 and 0/255 mask PNGs work.
func MaskFromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y > 0 {
				m.Pix[(y-b.Min.Y)*m.Width+(x-b.Min.X)] = 1
			}
		}
	}
	return m
}

// MarshalJSON encodes the mask as an array of rows of 0/1 values.
func (m *Mask) MarshalJSON() ([]byte, error) {
	rows := make([][]int, m.Height)
	for y := range rows {
		row := make([]int, m.Width)
		for x := range row {
			if m.Pix[y*m.Width+x] == 1 {
				row[x] = 1
			}
		}
		rows[y] = row
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes a mask from an array of equal-length rows. Non-zero
// entries are set.
func (m *Mask) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "mask must be an array of rows")
	}
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}
	out := NewMask(width, height)
	for y, row := range rows {
		if len(row) != width {
			return errors.Wrapf(ErrShapeMismatch, "mask row %d has %d columns, want %d", y, len(row), width)
		}
		for x, v := range row {
			if v != 0 {
				out.Pix[y*width+x] = 1
			}
		}
	}
	*m = *out
	return nil
}

// FloatMask is a low-resolution soft mask as produced by a mask head, with
// values in [0, 1]. It is turned into a full-size binary Mask by UnmoldMask.
type FloatMask struct {
	Width  int
	Height int
	Pix    []float64
}

// UnmarshalJSON decodes a float mask from an array of equal-length rows.
func (f *FloatMask) UnmarshalJSON(data []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return errors.Wrap(err, "float mask must be an array of rows")
	}
	f.Height = len(rows)
	f.Width = 0
	if f.Height > 0 {
		f.Width = len(rows[0])
	}
	f.Pix = make([]float64, 0, f.Width*f.Height)
	for y, row := range rows {
		if len(row) != f.Width {
			return errors.Wrapf(ErrShapeMismatch, "float mask row %d has %d columns, want %d", y, len(row), f.Width)
		}
		f.Pix = append(f.Pix, row...)
	}
	return nil
}
