package visualize

import (
	"errors"
	"image/color"
	"testing"

	"github.com/ironsheep/maskviz-mcp/internal/imaging"
	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

func TestPlotPrecisionRecall(t *testing.T) {
	r := newTestRenderer()
	out, err := r.PlotPrecisionRecall(0.8125, []float64{1, 1, 0.75, 0.6}, []float64{0, 0.25, 0.5, 0.75})
	if err != nil {
		t.Fatalf("PlotPrecisionRecall failed: %v", err)
	}
	if out.Bounds().Dx() != 300 || out.Bounds().Dy() != 200 {
		t.Errorf("size: got %v, want 300x200", out.Bounds())
	}

	dark := 0
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			if out.RGBAAt(x, y).R < 100 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("plot appears blank")
	}
}

func TestPlotPrecisionRecall_Errors(t *testing.T) {
	r := newTestRenderer()
	if _, err := r.PlotPrecisionRecall(0, []float64{1}, []float64{}); !errors.Is(err, instances.ErrShapeMismatch) {
		t.Errorf("length mismatch: got %v", err)
	}
	if _, err := r.PlotPrecisionRecall(0, nil, nil); !errors.Is(err, instances.ErrEmptyInput) {
		t.Errorf("empty: got %v", err)
	}
}

func TestPlotOverlaps(t *testing.T) {
	r := newTestRenderer()
	names := instances.ClassNames{"BG", "cat", "dog"}

	// Ground-truth background entries are dropped before matching columns.
	in := OverlapInput{
		GTClassIDs:   []int{0, 1, 2},
		PredClassIDs: []int{1, 2},
		PredScores:   []float64{0.9, 0.4},
		Overlaps:     [][]float64{{0.8, 0.1}, {0, 0.55}},
	}
	out, err := r.PlotOverlaps(in, names, 0.5)
	if err != nil {
		t.Fatalf("PlotOverlaps failed: %v", err)
	}
	if out.Bounds().Dx() != 300 || out.Bounds().Dy() != 200 {
		t.Errorf("size: got %v, want 300x200", out.Bounds())
	}

	zeros := in
	zeros.Overlaps = [][]float64{{0, 0}, {0, 0}}
	if _, err := r.PlotOverlaps(zeros, names, 0.5); err != nil {
		t.Errorf("all-zero overlaps should still render: %v", err)
	}
}

func TestPlotOverlaps_Errors(t *testing.T) {
	r := newTestRenderer()

	tests := []struct {
		name string
		in   OverlapInput
		want error
	}{
		{
			name: "columns include background",
			in: OverlapInput{
				GTClassIDs:   []int{0, 1},
				PredClassIDs: []int{1},
				PredScores:   []float64{0.9},
				Overlaps:     [][]float64{{0.1, 0.8}},
			},
			want: instances.ErrShapeMismatch,
		},
		{
			name: "scores mismatch",
			in: OverlapInput{
				GTClassIDs:   []int{1},
				PredClassIDs: []int{1},
				Overlaps:     [][]float64{{0.8}},
			},
			want: instances.ErrShapeMismatch,
		},
		{
			name: "only background",
			in: OverlapInput{
				GTClassIDs:   []int{0},
				PredClassIDs: []int{1},
				PredScores:   []float64{0.9},
				Overlaps:     [][]float64{{}},
			},
			want: instances.ErrEmptyInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.PlotOverlaps(tt.in, nil, 0.5); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOverlapCellText(t *testing.T) {
	tests := []struct {
		name      string
		iou       float64
		threshold float64
		gtID      int
		predID    int
		want      string
	}{
		{"below threshold", 0.3, 0.5, 1, 1, "0.300\n"},
		{"at threshold", 0.5, 0.5, 1, 1, "0.500\n"},
		{"same class", 0.8, 0.5, 2, 2, "0.800\nmatch"},
		{"different class", 0.8, 0.5, 2, 3, "0.800\nwrong"},
		{"zero threshold", 0.001, 0, 4, 4, "0.001\nmatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overlapCellText(tt.iou, tt.threshold, tt.gtID, tt.predID); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOverlapCellText_BackgroundShiftsColumns(t *testing.T) {
	// Column j of the overlap matrix refers to the j-th non-background
	// ground truth, not to GTClassIDs[j].
	gt := nonBackground([]int{0, 3, 0, 5})
	if len(gt) != 2 || gt[0] != 3 || gt[1] != 5 {
		t.Fatalf("nonBackground: got %v, want [3 5]", gt)
	}

	predID := 5
	overlaps := []float64{0.2, 0.9}
	if got := overlapCellText(overlaps[1], 0.5, gt[1], predID); got != "0.900\nmatch" {
		t.Errorf("column 1: got %q, want a match with class 5", got)
	}
	if got := overlapCellText(overlaps[0], 0.5, gt[0], predID); got != "0.200\n" {
		t.Errorf("column 0: got %q, want no word", got)
	}
}

func TestOverlapGrid(t *testing.T) {
	g := overlapGrid{{1, 2, 3}, {4, 5, 6}}
	c, r := g.Dims()
	if c != 3 || r != 2 {
		t.Fatalf("dims: got %dx%d, want 3x2", c, r)
	}
	// Row 0 of the grid is the bottom row of the matrix.
	if g.Z(0, 0) != 4 || g.Z(2, 1) != 3 {
		t.Errorf("Z: got %v and %v, want 4 and 3", g.Z(0, 0), g.Z(2, 1))
	}
}

func TestOverlapTextColor(t *testing.T) {
	tests := []struct {
		v    float64
		want color.Color
	}{
		{0.9, color.White},
		{0.3, color.Black},
		{0, imaging.Gray},
	}
	for _, tt := range tests {
		if got := overlapTextColor(tt.v, 0.4); got != tt.want {
			t.Errorf("overlapTextColor(%v): got %v, want %v", tt.v, got, tt.want)
		}
	}
}
