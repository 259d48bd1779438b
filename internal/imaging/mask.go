package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"

	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// ApplyMask tints the pixels covered by mask with c, in place.
//
// For every pixel where the mask is set, each of R, G and B becomes
//
//	channel*(1-alpha) + alpha*c.channel
//
// Pixels outside the mask are left untouched, as is the alpha channel. The
// mask is aligned with the image's top-left corner; mask pixels that fall
// outside the image are ignored.
func ApplyMask(img *image.RGBA, mask *instances.Mask, c color.Color, alpha float64) {
	if mask == nil {
		return
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	cr, cg, cb := float64(nc.R), float64(nc.G), float64(nc.B)
	keep := 1 - alpha

	b := img.Bounds()
	w := min(b.Dx(), mask.Width)
	h := min(b.Dy(), mask.Height)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Pix[y*mask.Width+x] != 1 {
				continue
			}
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			p := img.Pix[i : i+3 : i+3]
			p[0] = blendChannel(p[0], cr, keep, alpha)
			p[1] = blendChannel(p[1], cg, keep, alpha)
			p[2] = blendChannel(p[2], cb, keep, alpha)
		}
	}
}

func blendChannel(v uint8, c, keep, alpha float64) uint8 {
	out := float64(v)*keep + alpha*c
	if out < 0 {
		return 0
	}
	if out > 255 {
		return 255
	}
	return uint8(out)
}

// Copy returns an RGBA copy of img with its origin moved to (0, 0), so mask
// pixel (x, y) addresses image pixel (x, y).
func Copy(img image.Image) *image.RGBA {
	out := clone.AsRGBA(img)
	if out.Bounds().Min != (image.Point{}) {
		out.Rect = out.Rect.Sub(out.Rect.Min)
	}
	return out
}
