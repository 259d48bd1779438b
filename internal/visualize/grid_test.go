package visualize

import (
	"errors"
	"image"
	"reflect"
	"testing"

	"github.com/ironsheep/maskviz-mcp/internal/instances"
)

func TestDisplayImages(t *testing.T) {
	r := newTestRenderer()
	images := []image.Image{
		solidImage(10, 10, black),
		solidImage(10, 10, red),
		solidImage(10, 10, gray100),
	}

	out, err := r.DisplayImages(images, nil, 0)
	if err != nil {
		t.Fatalf("DisplayImages failed: %v", err)
	}
	// default of 2 columns at 50px cells
	if out.Bounds().Dx() != 100 {
		t.Errorf("width: got %d, want 100", out.Bounds().Dx())
	}

	out, err = r.DisplayImages(images, []string{"a", "b", "c"}, 3)
	if err != nil {
		t.Fatalf("DisplayImages failed: %v", err)
	}
	if out.Bounds().Dx() != 150 {
		t.Errorf("width: got %d, want 150", out.Bounds().Dx())
	}

	if _, err := r.DisplayImages(nil, nil, 2); err == nil {
		t.Error("DisplayImages should fail without images")
	}
}

func TestTopClasses(t *testing.T) {
	tests := []struct {
		name  string
		areas []int
		ids   []int
		want  []int
	}{
		{"by total area", []int{4, 10, 7, 0}, []int{1, 2, 1, 3}, []int{1, 2}},
		{"ties keep id order", []int{3, 3}, []int{5, 2}, []int{2, 5}},
		{"all empty", []int{0}, []int{1}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masks := make([]*instances.Mask, len(tt.areas))
			for i, a := range tt.areas {
				masks[i] = rectMask(20, 1, 0, 0, a, 1)
			}
			got := topClasses(masks, tt.ids)
			if len(got) != len(tt.want) || (len(got) > 0 && !reflect.DeepEqual(got, tt.want)) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLabelMap(t *testing.T) {
	masks := []*instances.Mask{
		rectMask(4, 1, 0, 0, 2, 1),
		rectMask(4, 1, 3, 0, 4, 1),
		rectMask(4, 1, 1, 0, 3, 1),
	}
	// Class 7 owns masks 0 and 2, numbered 1 and 2.
	got := labelMap(masks, []int{7, 9, 7}, 7, 4, 1)
	want := []float64{1, 3, 2, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := labelMap(masks, []int{7, 9, 7}, -1, 4, 1); !reflect.DeepEqual(got, []float64{0, 0, 0, 0}) {
		t.Errorf("unknown class should give an empty map, got %v", got)
	}
}

func TestDisplayTopMasks(t *testing.T) {
	r := newTestRenderer()
	img := solidImage(20, 20, gray100)
	masks := []*instances.Mask{rectMask(20, 20, 0, 0, 10, 10), rectMask(20, 20, 5, 5, 20, 20)}

	out, err := r.DisplayTopMasks(img, masks, []int{1, 2}, instances.ClassNames{"BG", "a", "b"}, 3)
	if err != nil {
		t.Fatalf("DisplayTopMasks failed: %v", err)
	}
	// image plus 3 classes in one row of 50px cells
	if out.Bounds().Dx() != 4*50 {
		t.Errorf("width: got %d, want 200", out.Bounds().Dx())
	}

	_, err = r.DisplayTopMasks(img, []*instances.Mask{instances.NewMask(5, 5)}, []int{1}, nil, 0)
	if !errors.Is(err, instances.ErrShapeMismatch) {
		t.Errorf("mask size mismatch: got %v", err)
	}
	_, err = r.DisplayTopMasks(img, masks, []int{1}, nil, 0)
	if !errors.Is(err, instances.ErrShapeMismatch) {
		t.Errorf("class id count mismatch: got %v", err)
	}
}
