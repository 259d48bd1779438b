package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// gridTitleHeight is the strip above each grid cell reserved for its title.
const gridTitleHeight = lineHeight + 2*titlePad

// ComposeGrid lays images out in a table with cols columns.
//
// The number of rows is len(images)/cols + 1, so a full last row is
// followed by an empty one; this keeps figure heights stable across calls
// that differ only slightly in image count. Each image is scaled to fit a
// cellSize × cellSize box, preserving aspect ratio, with its title centered
// above it. titles may be nil or shorter than images; missing titles are
// blank.
func ComposeGrid(images []image.Image, titles []string, cols, cellSize int) (*image.RGBA, error) {
	if len(images) == 0 {
		return nil, errors.New("no images to lay out")
	}
	if cols <= 0 {
		return nil, errors.Errorf("invalid column count %d", cols)
	}
	if cellSize <= 0 {
		return nil, errors.Errorf("invalid cell size %d", cellSize)
	}

	rows := len(images)/cols + 1
	cellH := cellSize + gridTitleHeight
	bg := imaging.New(cols*cellSize, rows*cellH, color.White)

	for i, img := range images {
		col, row := i%cols, i/cols
		fitted := imaging.Fit(img, cellSize, cellSize, imaging.NearestNeighbor)
		fb := fitted.Bounds()
		x := col*cellSize + (cellSize-fb.Dx())/2
		y := row*cellH + gridTitleHeight + (cellSize-fb.Dy())/2
		bg = imaging.Paste(bg, fitted, image.Pt(x, y))
	}

	out := clone.AsRGBA(bg)
	for i := range images {
		if i >= len(titles) || titles[i] == "" {
			continue
		}
		col, row := i%cols, i/cols
		x := col*cellSize + (cellSize-MeasureText(titles[i]))/2
		y := row*cellH + titlePad + fontAscent
		DrawString(out, x, y, titles[i], Black)
	}
	return out, nil
}
