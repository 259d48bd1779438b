package visualize

import (
	"fmt"
	"image"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/maskviz-mcp/internal/imaging"
	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

// DisplayImages lays images out in a grid with cols columns, each under its
// title. Missing titles are left blank and a cols of zero uses the
// configured default.
func (r *Renderer) DisplayImages(images []image.Image, titles []string, cols int) (*image.RGBA, error) {
	if cols <= 0 {
		cols = r.cfg.GridColumns
	}
	if cols <= 0 {
		cols = 4
	}
	return imaging.ComposeGrid(images, titles, cols, r.cellSize())
}

func (r *Renderer) cellSize() int {
	if r.cfg.GridCellSize <= 0 {
		return 224
	}
	return r.cfg.GridCellSize
}

// DisplayTopMasks shows img followed by the label maps of the limit classes
// with the largest total mask area. Each label map numbers the instances of
// its class 1, 2, ... and is drawn with a reversed Blues colormap. Columns
// without a class are titled "-". A limit of zero uses the configured
// default.
func (r *Renderer) DisplayTopMasks(img image.Image, masks []*instances.Mask, classIDs []int, names instances.ClassNames, limit int) (*image.RGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(masks) != len(classIDs) {
		return nil, errors.Wrapf(instances.ErrShapeMismatch, "masks=%d class_ids=%d", len(masks), len(classIDs))
	}
	for i, m := range masks {
		if m == nil || m.Width != w || m.Height != h {
			return nil, errors.Wrapf(instances.ErrShapeMismatch, "mask %d does not match the %dx%d image", i, w, h)
		}
	}
	if limit <= 0 {
		limit = r.cfg.TopMasksLimit
	}
	if limit <= 0 {
		limit = 4
	}

	cmap, err := imaging.Blues(true)
	if err != nil {
		return nil, err
	}

	top := topClasses(masks, classIDs)
	cells := []image.Image{img}
	titles := []string{fmt.Sprintf("H x W = %d x %d", h, w)}
	for i := 0; i < limit; i++ {
		classID := -1
		title := "-"
		if i < len(top) {
			classID = top[i]
			title = names.Name(classID)
		}
		cells = append(cells, labelImage(labelMap(masks, classIDs, classID, w, h), w, h, cmap))
		titles = append(titles, title)
	}

	return imaging.ComposeGrid(cells, titles, limit+1, r.cellSize())
}

// topClasses returns the class ids with a non-zero total mask area, largest
// first. Ties keep ascending id order.
func topClasses(masks []*instances.Mask, classIDs []int) []int {
	area := map[int]int{}
	for i, id := range classIDs {
		area[id] += masks[i].Area()
	}
	ids := make([]int, 0, len(area))
	for id := range area {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	sort.SliceStable(ids, func(a, b int) bool { return area[ids[a]] > area[ids[b]] })

	out := ids[:0]
	for _, id := range ids {
		if area[id] > 0 {
			out = append(out, id)
		}
	}
	return out
}

// labelMap sums the masks of classID, weighting the k-th one by k.
func labelMap(masks []*instances.Mask, classIDs []int, classID, w, h int) []float64 {
	out := make([]float64, w*h)
	k := 0
	for i, id := range classIDs {
		if id != classID {
			continue
		}
		k++
		for p, v := range masks[i].Pix {
			if v == 1 {
				out[p] += float64(k)
			}
		}
	}
	return out
}

// labelImage maps values onto cmap, scaled to their own min..max range.
func labelImage(values []float64, w, h int, cmap *imaging.Colormap) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	for i, v := range values {
		t := 0.0
		if hi > lo {
			t = (v - lo) / (hi - lo)
		}
		out.Set(i%w, i/w, cmap.At(t))
	}
	return out
}
