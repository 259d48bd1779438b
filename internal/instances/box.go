package instances

import (
	"encoding/json"
	"image"
	"math"

	"github.com/pkg/errors"
)

// Box is an axis-aligned bounding box in (y1, x1, y2, x2) order.
//
// The JSON form is a four-element array [y1, x1, y2, x2], the layout the
// model emits.
type Box struct {
	Y1 float64
	X1 float64
	Y2 float64
	X2 float64
}

// IsZero reports whether all four coordinates are zero.
//
// Zero boxes are padding rows in fixed-size detection arrays and are skipped
// when drawing.
func (b Box) IsZero() bool {
	return b.Y1 == 0 && b.X1 == 0 && b.Y2 == 0 && b.X2 == 0
}

// Width returns X2 - X1.
func (b Box) Width() float64 { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Box) Height() float64 { return b.Y2 - b.Y1 }

// Rect converts the box to an integer image.Rectangle, truncating toward
// zero the way an int32 cast does.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
}

// MarshalJSON encodes the box as [y1, x1, y2, x2].
func (b Box) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.Y1, b.X1, b.Y2, b.X2})
}

// UnmarshalJSON decodes a box from [y1, x1, y2, x2].
func (b *Box) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "box must be an array of numbers")
	}
	if len(v) != 4 {
		return errors.Wrapf(ErrShapeMismatch, "box has %d coordinates, want 4", len(v))
	}
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return errors.New("box coordinates must be finite")
		}
	}
	b.Y1, b.X1, b.Y2, b.X2 = v[0], v[1], v[2], v[3]
	return nil
}
