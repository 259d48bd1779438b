package instances

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// unmoldThreshold is the soft-mask value at or above which a resized pixel
// belongs to the instance.
const unmoldThreshold = 0.5

// UnmoldMask converts a small soft mask predicted for box into a binary mask
// the size of the full image.
//
// The soft mask is resized to the box's (integer) width and height with
// bilinear filtering, thresholded at 0.5, and placed at the box position.
// Parts of the box that fall outside the image are clipped.
func UnmoldMask(small *FloatMask, box Box, width, height int) (*Mask, error) {
	if small == nil || small.Width == 0 || small.Height == 0 {
		return nil, errors.Wrap(ErrEmptyInput, "unmold: soft mask is empty")
	}
	if len(small.Pix) != small.Width*small.Height {
		return nil, errors.Wrapf(ErrShapeMismatch, "unmold: soft mask has %d values, want %d", len(small.Pix), small.Width*small.Height)
	}

	full := NewMask(width, height)
	r := box.Rect()
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return full, nil
	}

	src := image.NewGray(image.Rect(0, 0, small.Width, small.Height))
	for i, v := range small.Pix {
		src.Pix[i] = uint8(math.Round(clamp01(v) * 255))
	}
	resized := imaging.Resize(src, r.Dx(), r.Dy(), imaging.Linear)

	cutoff := uint8(math.Round(unmoldThreshold * 255))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			g := color.GrayModel.Convert(resized.At(x, y)).(color.Gray)
			if g.Y >= cutoff {
				full.Set(r.Min.X+x, r.Min.Y+y, true)
			}
		}
	}
	return full, nil
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
