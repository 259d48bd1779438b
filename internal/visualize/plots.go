package visualize

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ironsheep/maskviz-mcp/internal/imaging"
	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// plotDPI makes one point one pixel, so plot sizes are given in pixels.
const plotDPI = 72

// PlotPrecisionRecall draws the precision-recall curve with its average
// precision in the title. Both axes span 0 to 1.1.
func (r *Renderer) PlotPrecisionRecall(ap float64, precisions, recalls []float64) (*image.RGBA, error) {
	if len(precisions) != len(recalls) {
		return nil, errors.Wrapf(instances.ErrShapeMismatch, "precisions=%d recalls=%d", len(precisions), len(recalls))
	}
	if len(precisions) == 0 {
		return nil, errors.Wrap(instances.ErrEmptyInput, "no precision-recall points")
	}

	xys := make(plotter.XYs, len(recalls))
	for i := range recalls {
		xys[i].X = recalls[i]
		xys[i].Y = precisions[i]
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, errors.Wrap(err, "build precision-recall line")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Precision-Recall Curve. AP@50 = %.3f", ap)
	p.X.Label.Text = "Recall"
	p.Y.Label.Text = "Precision"
	p.Add(line)
	p.X.Min, p.X.Max = 0, 1.1
	p.Y.Min, p.Y.Max = 0, 1.1

	r.logger.Debug("rendered precision-recall curve", zap.Float64("ap", ap), zap.Int("points", len(xys)))
	return r.renderPlot(p)
}

// OverlapInput holds the data for PlotOverlaps. Overlaps[i][j] is the IoU
// of prediction i with ground truth j, after background ground truth has
// been dropped.
type OverlapInput struct {
	GTClassIDs   []int
	PredClassIDs []int
	PredScores   []float64
	Overlaps     [][]float64
}

// PlotOverlaps draws the prediction × ground-truth IoU matrix as a heat
// map. Ground-truth entries with class 0 (background) are ignored. Every
// cell shows its IoU; cells above threshold are marked "match" when the
// classes agree and "wrong" otherwise.
func (r *Renderer) PlotOverlaps(in OverlapInput, names instances.ClassNames, threshold float64) (*image.RGBA, error) {
	gtIDs := nonBackground(in.GTClassIDs)
	nPred, nGT := len(in.PredClassIDs), len(gtIDs)
	if len(in.PredScores) != nPred {
		return nil, errors.Wrapf(instances.ErrShapeMismatch, "pred_class_ids=%d pred_scores=%d", nPred, len(in.PredScores))
	}
	if len(in.Overlaps) != nPred {
		return nil, errors.Wrapf(instances.ErrShapeMismatch, "overlaps has %d rows, want %d", len(in.Overlaps), nPred)
	}
	for i, row := range in.Overlaps {
		if len(row) != nGT {
			return nil, errors.Wrapf(instances.ErrShapeMismatch, "overlaps row %d has %d columns, want %d", i, len(row), nGT)
		}
	}
	if nPred == 0 || nGT == 0 {
		return nil, errors.Wrap(instances.ErrEmptyInput, "overlap matrix is empty")
	}

	cmap, err := imaging.Blues(false)
	if err != nil {
		return nil, err
	}
	grid := overlapGrid(in.Overlaps)
	heat := plotter.NewHeatMap(grid, cmap.Palette(256))
	if heat.Max <= heat.Min {
		heat.Max = heat.Min + 1
	}
	heat.NaN = color.Transparent

	all := make([]float64, 0, nPred*nGT)
	for _, row := range in.Overlaps {
		all = append(all, row...)
	}
	half := floats.Max(all) / 2

	cells := plotter.XYLabels{}
	var cellColors []color.Color
	for i := 0; i < nPred; i++ {
		for j := 0; j < nGT; j++ {
			v := in.Overlaps[i][j]
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(j), Y: grid.Y(nPred - 1 - i)})
			cells.Labels = append(cells.Labels, overlapCellText(v, threshold, gtIDs[j], in.PredClassIDs[i]))
			cellColors = append(cellColors, overlapTextColor(v, half))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, errors.Wrap(err, "build overlap labels")
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = cellColors[i]
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(9)
	}

	xTicks := make(plot.ConstantTicks, nGT)
	for j, id := range gtIDs {
		xTicks[j] = plot.Tick{Value: float64(j), Label: names.Name(id)}
	}
	yTicks := make(plot.ConstantTicks, nPred)
	for i, id := range in.PredClassIDs {
		yTicks[i] = plot.Tick{
			Value: grid.Y(nPred - 1 - i),
			Label: fmt.Sprintf("%s (%.2f)", names.Name(id), in.PredScores[i]),
		}
	}

	p := plot.New()
	p.Add(heat, labels)
	p.X.Tick.Marker = xTicks
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	p.Y.Tick.Marker = yTicks
	p.X.Label.Text = "Ground Truth"
	p.Y.Label.Text = "Predictions"

	r.logger.Debug("rendered overlaps", zap.Int("predictions", nPred), zap.Int("ground_truth", nGT))
	return r.renderPlot(p)
}

// nonBackground returns ids without the background class 0, in order.
func nonBackground(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

// overlapCellText is the annotation of one heat map cell: the IoU, then
// "match" or "wrong" when the IoU exceeds threshold.
func overlapCellText(iou, threshold float64, gtID, predID int) string {
	word := ""
	if iou > threshold {
		word = "wrong"
		if gtID == predID {
			word = "match"
		}
	}
	return fmt.Sprintf("%.3f\n%s", iou, word)
}

// overlapGrid adapts the IoU matrix to plotter.GridXYZ. Rows are flipped so
// that prediction 0 is drawn at the top, as in an image.
type overlapGrid [][]float64

func (g overlapGrid) Dims() (c, r int) { return len(g[0]), len(g) }

func (g overlapGrid) Z(c, r int) float64 { return g[len(g)-1-r][c] }

func (g overlapGrid) X(c int) float64 { return float64(c) }

func (g overlapGrid) Y(r int) float64 { return float64(r) }

func overlapTextColor(v, half float64) color.Color {
	switch {
	case v > half:
		return color.White
	case v > 0:
		return color.Black
	}
	return imaging.Gray
}

// renderPlot rasterizes p at the configured plot size.
func (r *Renderer) renderPlot(p *plot.Plot) (img *image.RGBA, err error) {
	w, h := r.cfg.PlotWidth, r.cfg.PlotHeight
	if w <= 0 || h <= 0 {
		w, h = 640, 640
	}

	// gonum/plot panics on degenerate ranges instead of returning errors.
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, errors.Errorf("plot rendering failed: %v", rec)
		}
	}()

	c := vgimg.NewWith(vgimg.UseWH(vg.Length(w), vg.Length(h)), vgimg.UseDPI(plotDPI))
	p.Draw(vgdraw.New(c))
	return imaging.Copy(c.Image()), nil
}
