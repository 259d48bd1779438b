package visualize

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ironsheep/maskviz-mcp/internal/imaging"
	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// ROIStats summarizes the class balance of a batch of ROIs.
type ROIStats struct {
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	PositiveRatio float64 `json:"positive_ratio"`
}

// ROIInput is a batch of region proposals as produced by a detection head.
// All slices are indexed by ROI.
type ROIInput struct {
	ROIs     []instances.Box
	Refined  []instances.Box
	Masks    []*instances.FloatMask
	ClassIDs []int
}

func (in *ROIInput) validate() error {
	n := len(in.ROIs)
	if n == 0 {
		return errors.Wrap(instances.ErrEmptyInput, "no rois")
	}
	if len(in.Refined) != n || len(in.Masks) != n || len(in.ClassIDs) != n {
		return errors.Wrapf(instances.ErrShapeMismatch, "rois=%d refined=%d masks=%d class_ids=%d",
			n, len(in.Refined), len(in.Masks), len(in.ClassIDs))
	}
	return nil
}

// DrawROIs draws up to limit randomly chosen ROIs over img. Background
// ROIs (class 0) get a gray dashed box. Positive ROIs get a dashed box in
// a random color, the refined box drawn solid, a line joining the two
// top-left corners, the class label and the mask resized into the ROI.
// A limit of zero uses the configured default.
func (r *Renderer) DrawROIs(img image.Image, in ROIInput, names instances.ClassNames, limit int) (*image.RGBA, ROIStats, error) {
	if err := in.validate(); err != nil {
		return nil, ROIStats{}, err
	}
	if limit <= 0 {
		limit = r.cfg.ROILimit
	}
	if limit <= 0 {
		limit = 10
	}

	n := len(in.ROIs)
	ids := r.sample(n, limit)
	title := fmt.Sprintf("%d ROIs", len(ids))
	if n > limit {
		title = fmt.Sprintf("Showing %d random ROIs out of %d", len(ids), n)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	canvas := imaging.NewCanvas(-50, float64(w+20), -20, float64(h+20), title)

	colors := make([]color.NRGBA, len(ids))
	masked := imaging.Copy(img)
	for k, id := range ids {
		colors[k] = r.randomColor()
		if in.ClassIDs[id] == 0 {
			continue
		}
		m, err := instances.UnmoldMask(in.Masks[id], in.ROIs[id], w, h)
		if err != nil {
			return nil, ROIStats{}, errors.Wrapf(err, "unmold mask of roi %d", id)
		}
		imaging.ApplyMask(masked, m, colors[k], r.maskAlpha())
	}
	canvas.DrawImage(masked)

	width := r.lineWidth()
	for k, id := range ids {
		roi := in.ROIs[id]
		edge := color.Color(colors[k])
		if in.ClassIDs[id] == 0 {
			edge = imaging.Gray
		}
		canvas.StrokeRect(roi.X1, roi.Y1, roi.X2, roi.Y2, imaging.Stroke{Color: edge, Width: width, Style: imaging.LineDashed})
		if in.ClassIDs[id] == 0 {
			continue
		}

		ref := in.Refined[id]
		canvas.StrokeRect(ref.X1, ref.Y1, ref.X2, ref.Y2, imaging.Stroke{Color: colors[k], Width: width})
		canvas.StrokeLine(roi.X1, roi.Y1, ref.X1, ref.Y1, imaging.Stroke{Color: colors[k]})
		canvas.Text(ref.X1, ref.Y1+8, names.Name(in.ClassIDs[id]), imaging.TextStyle{Color: imaging.White})
	}

	stats := roiStats(in.ClassIDs)
	r.logger.Info("roi stats",
		zap.Int("positive", stats.Positive),
		zap.Int("negative", stats.Negative),
		zap.String("positive_ratio", fmt.Sprintf("%.2f", stats.PositiveRatio)),
	)
	return canvas.Image(), stats, nil
}

func roiStats(classIDs []int) ROIStats {
	var s ROIStats
	for _, id := range classIDs {
		switch {
		case id > 0:
			s.Positive++
		case id == 0:
			s.Negative++
		}
	}
	if len(classIDs) > 0 {
		s.PositiveRatio = float64(s.Positive) / float64(len(classIDs))
	}
	return s
}
