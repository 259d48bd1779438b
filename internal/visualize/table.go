package visualize

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// RenderedTable is a table rendered both for terminals and for HTML.
type RenderedTable struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// DisplayTable renders rows as a plain text table and an HTML <table>.
// Cells are inserted into the HTML unescaped, so they may carry markup.
func DisplayTable(rows [][]string) RenderedTable {
	return renderTable(nil, rows)
}

func renderTable(header []string, rows [][]string) RenderedTable {
	tw := table.NewWriter()
	tw.Style().HTML.EscapeText = false
	if header != nil {
		tw.AppendHeader(toRow(header))
	}
	for _, r := range rows {
		tw.AppendRow(toRow(r))
	}
	return RenderedTable{Text: tw.Render(), HTML: tw.RenderHTML()}
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

// Weight is one weight tensor of a layer, flattened in row-major order.
type Weight struct {
	Name   string    `json:"name"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

// Layer is a trainable layer. Kind is the layer type, such as "Conv2D" or
// "Dense".
type Layer struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Weights []Weight `json:"weights"`
}

// WeightRow is one line of the weight statistics table.
type WeightRow struct {
	Name     string  `json:"name"`
	Shape    string  `json:"shape"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Std      float64 `json:"std"`
	Dead     bool    `json:"dead,omitempty"`
	Overflow bool    `json:"overflow,omitempty"`
}

// WeightTable is the result of WeightStats.
type WeightTable struct {
	Rows []WeightRow `json:"rows"`
	RenderedTable
}

// WeightStatsHeader is the header row of the weight statistics table.
var WeightStatsHeader = []string{"WEIGHT NAME", "SHAPE", "MIN", "MAX", "STD"}

// overflowLimit flags weights whose magnitude suggests divergence.
const overflowLimit = 1000

// WeightStats summarizes every weight tensor of layers: shape, min, max and
// population standard deviation. A tensor whose values are all equal is
// flagged "dead?" unless it is the bias of a Conv2D layer; one with a value
// beyond ±1000 is flagged "Overflow?".
func WeightStats(layers []Layer) (*WeightTable, error) {
	out := &WeightTable{}
	var text, html [][]string
	for _, l := range layers {
		for i, w := range l.Weights {
			if len(w.Values) == 0 {
				return nil, errors.Wrapf(instances.ErrEmptyInput, "weight %s has no values", w.Name)
			}
			if n := shapeSize(w.Shape); n != len(w.Values) {
				return nil, errors.Wrapf(instances.ErrShapeMismatch, "weight %s has shape %s but %d values", w.Name, formatShape(w.Shape), len(w.Values))
			}

			lo, hi := floats.Min(w.Values), floats.Max(w.Values)
			_, std := stat.PopMeanStdDev(w.Values, nil)
			row := WeightRow{
				Name:     w.Name,
				Shape:    formatShape(w.Shape),
				Min:      lo,
				Max:      hi,
				Std:      std,
				Dead:     lo == hi && !(l.Kind == "Conv2D" && i == 1),
				Overflow: math.Abs(lo) > overflowLimit || math.Abs(hi) > overflowLimit,
			}
			out.Rows = append(out.Rows, row)

			cells := []string{
				"",
				row.Shape,
				fmt.Sprintf("%+9.4f", lo),
				fmt.Sprintf("%+10.4f", hi),
				fmt.Sprintf("%+9.4f", std),
			}
			plain := append([]string(nil), cells...)
			plain[0] = w.Name + row.alerts(" %s")
			marked := append([]string(nil), cells...)
			marked[0] = w.Name + row.alerts("<span style='color:red'>%s</span>")
			text = append(text, plain)
			html = append(html, marked)
		}
	}

	out.Text = renderTable(WeightStatsHeader, text).Text
	out.HTML = renderTable(WeightStatsHeader, html).HTML
	return out, nil
}

// alerts formats the row's warnings, each wrapped by format.
func (r WeightRow) alerts(format string) string {
	var sb strings.Builder
	if r.Dead {
		fmt.Fprintf(&sb, format, "*** dead?")
	}
	if r.Overflow {
		fmt.Fprintf(&sb, format, "*** Overflow?")
	}
	return sb.String()
}

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// formatShape renders a shape as a tuple: "(3, 3, 64)", "(64,)" or "()".
func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
