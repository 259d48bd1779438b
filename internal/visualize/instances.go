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

// instanceMargin is the white border, in pixels, around overlay figures.
const instanceMargin = 10

// DefaultDifferencesTitle is used by DisplayDifferences when no title is set.
const DefaultDifferencesTitle = "Ground Truth and Detections\n GT=green, pred=red, captions: score/IoU"

// Colors used to tell ground truth from predictions.
var (
	GroundTruthColor = color.NRGBA{R: 0, G: 255, B: 0, A: 204}
	PredictionColor  = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

// InstanceOptions controls DisplayInstances.
type InstanceOptions struct {
	Title string

	// HideMasks skips mask blending; outlines are still drawn.
	HideMasks bool
	// HideBoxes skips the dashed bounding boxes.
	HideBoxes bool

	// Colors, when non-empty, gives one color per instance. Otherwise random
	// bright colors are used.
	Colors []color.Color

	// Captions, when non-empty, replaces the "<label> <score>" captions.
	Captions []string

	// Canvas, when set, is drawn into instead of a new figure.
	Canvas *imaging.Canvas
}

// DisplayInstances draws each detection of set over img: its mask blended
// into the image, the mask outline, a dashed bounding box and a caption.
// Instances with an all-zero box are skipped.
//
// An empty set is not an error; the figure then shows the bare image.
func (r *Renderer) DisplayInstances(img image.Image, set *instances.Set, names instances.ClassNames, opts InstanceOptions) (*image.RGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	n := set.Len()

	if n == 0 {
		r.logger.Info("no instances to display")
	} else if err := set.Validate(w, h); err != nil {
		return nil, err
	}
	if len(opts.Captions) > 0 && len(opts.Captions) != n {
		return nil, errors.Wrapf(instances.ErrShapeMismatch, "captions=%d instances=%d", len(opts.Captions), n)
	}

	colors := opts.Colors
	if len(colors) == 0 {
		for _, c := range r.RandomColors(n) {
			colors = append(colors, c)
		}
	} else if len(colors) < n {
		return nil, errors.Wrapf(instances.ErrShapeMismatch, "colors=%d instances=%d", len(colors), n)
	}

	canvas := opts.Canvas
	if canvas == nil {
		canvas = imaging.NewCanvas(-instanceMargin, float64(w+instanceMargin), -instanceMargin, float64(h+instanceMargin), opts.Title)
	} else {
		canvas.SetTitle(opts.Title)
	}

	masked := imaging.Copy(img)
	if !opts.HideMasks {
		for i := 0; i < n; i++ {
			if set.Boxes[i].IsZero() {
				continue
			}
			imaging.ApplyMask(masked, set.Masks[i], colors[i], r.maskAlpha())
		}
	}
	canvas.DrawImage(masked)

	for i := 0; i < n; i++ {
		box := set.Boxes[i]
		if box.IsZero() {
			continue
		}
		if !opts.HideBoxes {
			canvas.StrokeRect(box.X1, box.Y1, box.X2, box.Y2, imaging.Stroke{
				Color: colors[i],
				Width: r.lineWidth(),
				Alpha: imaging.Opacity(r.cfg.BoxAlpha),
				Style: imaging.LineDashed,
			})
		}
		for _, poly := range imaging.FindContours(set.Masks[i]) {
			canvas.StrokePolygon(poly, imaging.Stroke{Color: colors[i]})
		}
	}

	for i := 0; i < n; i++ {
		box := set.Boxes[i]
		if box.IsZero() {
			continue
		}
		caption := instanceCaption(set, names, i)
		if len(opts.Captions) > 0 {
			caption = opts.Captions[i]
		}
		canvas.Text(box.X1, box.Y1+8, caption, imaging.TextStyle{Color: imaging.White})
	}

	r.logger.Debug("rendered instances", zap.Int("instances", n), zap.Int("width", w), zap.Int("height", h))
	return canvas.Image(), nil
}

// instanceCaption returns "<label> <score>" or just the label when the
// instance has no score or scored exactly zero.
func instanceCaption(set *instances.Set, names instances.ClassNames, i int) string {
	label := names.Name(set.ClassIDs[i])
	if set.Scores == nil || set.Scores[i] == 0 {
		return label
	}
	return fmt.Sprintf("%s %.3f", label, set.Scores[i])
}

// DifferenceOptions controls DisplayDifferences.
type DifferenceOptions struct {
	Title     string
	HideMasks bool
	HideBoxes bool

	// Thresholds handed to the matcher.
	IoUThreshold   float64
	ScoreThreshold float64

	Canvas *imaging.Canvas
}

// DisplayDifferences overlays ground truth (green) and predictions (red) on
// one figure. Predictions are captioned "<score> / <IoU>", where IoU is the
// overlap with the matched ground truth or, for unmatched predictions, the
// best overlap with any ground truth. The match result is returned along
// with the figure.
func (r *Renderer) DisplayDifferences(img image.Image, gt, pred *instances.Set, names instances.ClassNames, matcher instances.Matcher, opts DifferenceOptions) (*image.RGBA, *instances.Matches, error) {
	if matcher == nil {
		return nil, nil, errors.New("no matcher")
	}
	if pred.Len() > 0 && len(pred.Scores) != pred.Len() {
		return nil, nil, errors.Wrapf(instances.ErrShapeMismatch, "predictions=%d scores=%d", pred.Len(), len(pred.Scores))
	}

	matches, err := matcher.Match(gt, pred, opts.IoUThreshold, opts.ScoreThreshold)
	if err != nil {
		return nil, nil, errors.Wrap(err, "match ground truth to predictions")
	}
	if err := matches.Validate(pred.Len(), gt.Len()); err != nil {
		return nil, nil, err
	}

	nGT, nPred := gt.Len(), pred.Len()
	colors := make([]color.Color, 0, nGT+nPred)
	captions := make([]string, 0, nGT+nPred)
	for i := 0; i < nGT; i++ {
		colors = append(colors, GroundTruthColor)
		captions = append(captions, "")
	}
	for i := 0; i < nPred; i++ {
		colors = append(colors, PredictionColor)
		captions = append(captions, fmt.Sprintf("%.2f / %.2f", pred.Scores[i], matches.MatchedIoU(i)))
	}

	title := opts.Title
	if title == "" {
		title = DefaultDifferencesTitle
	}

	out, err := r.DisplayInstances(img, instances.Concat(gt, pred), names, InstanceOptions{
		Title:     title,
		HideMasks: opts.HideMasks,
		HideBoxes: opts.HideBoxes,
		Colors:    colors,
		Captions:  captions,
		Canvas:    opts.Canvas,
	})
	if err != nil {
		return nil, nil, err
	}
	return out, matches, nil
}
