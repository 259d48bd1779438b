package visualize

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/maskviz-mcp/internal/imaging"
	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// Visibility levels accepted by DrawBoxes.
const (
	VisibilityHidden = 0 // gray, dotted, half transparent
	VisibilityFaint  = 1 // instance color, dotted
	VisibilityFull   = 2 // instance color, solid
)

// DrawBox paints a 2 pixel wide rectangle outline directly into img's
// pixels. Coordinates are truncated to integers and the outline is clipped
// to the image.
func DrawBox(img draw.Image, box instances.Box, c color.Color) {
	y1, x1 := int(box.Y1), int(box.X1)
	y2, x2 := int(box.Y2), int(box.X2)
	src := image.NewUniform(c)
	o := img.Bounds().Min
	for _, r := range []image.Rectangle{
		image.Rect(x1, y1, x2, y1+2),
		image.Rect(x1, y2, x2, y2+2),
		image.Rect(x1, y1, x1+2, y2),
		image.Rect(x2, y1, x2+2, y2),
	} {
		r = r.Add(o).Intersect(img.Bounds())
		if !r.Empty() {
			draw.Draw(img, r, src, image.Point{}, draw.Src)
		}
	}
}

// BoxesOptions describes what DrawBoxes draws. At least one of Boxes and
// RefinedBoxes is required; every other non-nil slice must have the same
// length.
type BoxesOptions struct {
	Boxes        []instances.Box
	RefinedBoxes []instances.Box
	Masks        []*instances.Mask
	Captions     []string

	// Visibilities holds one VisibilityHidden/Faint/Full value per box.
	// Nil means VisibilityFaint for all.
	Visibilities []int

	Title  string
	Canvas *imaging.Canvas
}

// count validates the options against a width x height image and returns
// the number of boxes.
func (o *BoxesOptions) count(width, height int) (int, error) {
	var n int
	switch {
	case o.Boxes != nil:
		n = len(o.Boxes)
	case o.RefinedBoxes != nil:
		n = len(o.RefinedBoxes)
	default:
		return 0, errors.New("either boxes or refined boxes are required")
	}
	check := func(name string, got int, present bool) error {
		if present && got != n {
			return errors.Wrapf(instances.ErrShapeMismatch, "%s=%d boxes=%d", name, got, n)
		}
		return nil
	}
	for _, err := range []error{
		check("refined_boxes", len(o.RefinedBoxes), o.RefinedBoxes != nil),
		check("masks", len(o.Masks), o.Masks != nil),
		check("captions", len(o.Captions), len(o.Captions) > 0),
		check("visibilities", len(o.Visibilities), o.Visibilities != nil),
	} {
		if err != nil {
			return 0, err
		}
	}
	for i, m := range o.Masks {
		if m == nil {
			return 0, errors.Wrapf(instances.ErrShapeMismatch, "mask %d is missing", i)
		}
		if m.Width != width || m.Height != height {
			return 0, errors.Wrapf(instances.ErrShapeMismatch, "mask %d is %dx%d, image is %dx%d", i, m.Width, m.Height, width, height)
		}
	}
	for i, v := range o.Visibilities {
		if v < VisibilityHidden || v > VisibilityFull {
			return 0, errors.Errorf("visibility %d of box %d out of range", v, i)
		}
	}
	return n, nil
}

// DrawBoxes draws detection boxes with optional refined boxes, masks and
// captions. It is the general-purpose overlay used to inspect anchors and
// proposals at various pipeline stages.
func (r *Renderer) DrawBoxes(img image.Image, opts BoxesOptions) (*image.RGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n, err := opts.count(w, h)
	if err != nil {
		return nil, err
	}
	colors := r.RandomColors(n)

	canvas := opts.Canvas
	if canvas == nil {
		margin := float64(h / 10)
		canvas = imaging.NewCanvas(-margin, float64(w)+margin, -margin, float64(h)+margin, opts.Title)
	} else {
		canvas.SetTitle(opts.Title)
	}

	styles := make([]imaging.Stroke, n)
	for i := range styles {
		vis := VisibilityFaint
		if opts.Visibilities != nil {
			vis = opts.Visibilities[i]
		}
		switch vis {
		case VisibilityHidden:
			styles[i] = imaging.Stroke{Color: imaging.Gray, Alpha: imaging.Opacity(0.5), Style: imaging.LineDotted}
		case VisibilityFaint:
			styles[i] = imaging.Stroke{Color: colors[i], Style: imaging.LineDotted}
		default:
			styles[i] = imaging.Stroke{Color: colors[i], Style: imaging.LineSolid}
		}
		styles[i].Width = r.lineWidth()
	}

	masked := imaging.Copy(img)
	for i, m := range opts.Masks {
		imaging.ApplyMask(masked, m, styles[i].Color, r.maskAlpha())
	}
	canvas.DrawImage(masked)

	for i := 0; i < n; i++ {
		st := styles[i]
		var box instances.Box
		if opts.Boxes != nil {
			box = opts.Boxes[i]
			if !box.IsZero() {
				canvas.StrokeRect(box.X1, box.Y1, box.X2, box.Y2, st)
			}
		}
		visible := opts.Visibilities == nil || opts.Visibilities[i] > VisibilityHidden
		if opts.RefinedBoxes != nil && visible {
			ref := truncate(opts.RefinedBoxes[i])
			canvas.StrokeRect(ref.X1, ref.Y1, ref.X2, ref.Y2, imaging.Stroke{Color: st.Color, Width: st.Width})
			if opts.Boxes != nil && !box.IsZero() {
				canvas.StrokeLine(box.X1, box.Y1, ref.X1, ref.Y1, imaging.Stroke{Color: st.Color})
			}
		}
		if opts.Masks != nil {
			for _, poly := range imaging.FindContours(opts.Masks[i]) {
				canvas.StrokePolygon(poly, imaging.Stroke{Color: st.Color})
			}
		}
	}

	for i := 0; i < n && len(opts.Captions) > 0; i++ {
		var anchor instances.Box
		if opts.RefinedBoxes != nil {
			anchor = truncate(opts.RefinedBoxes[i])
		} else {
			anchor = opts.Boxes[i]
		}
		canvas.Text(anchor.X1, anchor.Y1, opts.Captions[i], imaging.TextStyle{
			Color:           imaging.White,
			Background:      styles[i].Color,
			BackgroundAlpha: 0.5,
			Pad:             2,
			Align:           imaging.AlignTop,
		})
	}

	r.logger.Debug("rendered boxes", zap.Int("boxes", n), zap.Bool("refined", opts.RefinedBoxes != nil))
	return canvas.Image(), nil
}

// truncate drops the fractional part of each coordinate.
func truncate(b instances.Box) instances.Box {
	return instances.Box{
		Y1: math.Trunc(b.Y1),
		X1: math.Trunc(b.X1),
		Y2: math.Trunc(b.Y2),
		X2: math.Trunc(b.X2),
	}
}
