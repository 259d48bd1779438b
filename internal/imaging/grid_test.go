package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestComposeGrid(t *testing.T) {
	images := []image.Image{
		createInMemoryImage(50, 50, color.RGBA{255, 0, 0, 255}),
		createInMemoryImage(50, 50, color.RGBA{0, 255, 0, 255}),
		createInMemoryImage(50, 50, color.RGBA{0, 0, 255, 255}),
	}

	out, err := ComposeGrid(images, []string{"red", "green"}, 2, 100)
	if err != nil {
		t.Fatalf("ComposeGrid failed: %v", err)
	}

	// 3 images in 2 columns -> 3/2+1 = 2 rows
	cellH := 100 + gridTitleHeight
	if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 2*cellH {
		t.Errorf("size: got %dx%d, want 200x%d", out.Bounds().Dx(), out.Bounds().Dy(), 2*cellH)
	}

	// Small images are centered in their cell, not upscaled.
	if got := out.RGBAAt(50, gridTitleHeight+50); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("cell 0 center: got %v, want red", got)
	}
	if got := out.RGBAAt(150, gridTitleHeight+50); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("cell 1 center: got %v, want green", got)
	}
	if got := out.RGBAAt(50, cellH+gridTitleHeight+50); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("cell 2 center: got %v, want blue", got)
	}
	if got := out.RGBAAt(5, gridTitleHeight+5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("cell padding: got %v, want white", got)
	}
}

func TestComposeGrid_FullRowAddsEmptyRow(t *testing.T) {
	images := []image.Image{
		createInMemoryImage(10, 10, color.Black),
		createInMemoryImage(10, 10, color.Black),
	}
	out, err := ComposeGrid(images, nil, 2, 20)
	if err != nil {
		t.Fatalf("ComposeGrid failed: %v", err)
	}
	if want := 2 * (20 + gridTitleHeight); out.Bounds().Dy() != want {
		t.Errorf("height: got %d, want %d", out.Bounds().Dy(), want)
	}
}

func TestComposeGrid_ScalesDownLargeImages(t *testing.T) {
	images := []image.Image{createInMemoryImage(400, 200, color.RGBA{255, 0, 0, 255})}
	out, err := ComposeGrid(images, nil, 1, 100)
	if err != nil {
		t.Fatalf("ComposeGrid failed: %v", err)
	}
	// 400x200 fits as 100x50, vertically centered in the cell.
	top := gridTitleHeight + 25
	if got := out.RGBAAt(50, top+10); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("fitted image: got %v, want red", got)
	}
	if got := out.RGBAAt(50, top-5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("above fitted image: got %v, want white", got)
	}
}

func TestComposeGrid_InvalidArgs(t *testing.T) {
	img := []image.Image{createInMemoryImage(4, 4, color.Black)}

	tests := []struct {
		name   string
		images []image.Image
		cols   int
		cell   int
	}{
		{"no images", nil, 2, 10},
		{"zero columns", img, 0, 10},
		{"zero cell", img, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ComposeGrid(tt.images, nil, tt.cols, tt.cell); err == nil {
				t.Error("ComposeGrid should fail")
			}
		})
	}
}
