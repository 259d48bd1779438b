package instances

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when parallel detection arrays disagree
	// in length or a mask does not match the image size.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyInput is returned when an operation needs at least one element.
	ErrEmptyInput = errors.New("empty input")
)

// Set holds N detections as parallel slices.
//
// Boxes[i], Masks[i], ClassIDs[i] and (when present) Scores[i] all describe
// instance i. Scores may be nil for ground truth.
type Set struct {
	Boxes    []Box     `json:"boxes"`
	Masks    []*Mask   `json:"masks,omitempty"`
	ClassIDs []int     `json:"class_ids"`
	Scores   []float64 `json:"scores,omitempty"`
}

// Len returns the number of instances, taken from the box count.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Boxes)
}

// Validate checks that the parallel slices agree in length and, when width
// and height are positive, that every mask matches the image size.
func (s *Set) Validate(width, height int) error {
	n := s.Len()
	if len(s.Masks) != n || len(s.ClassIDs) != n {
		return errors.Wrapf(ErrShapeMismatch, "boxes=%d masks=%d class_ids=%d", n, len(s.Masks), len(s.ClassIDs))
	}
	if s.Scores != nil && len(s.Scores) != n {
		return errors.Wrapf(ErrShapeMismatch, "boxes=%d scores=%d", n, len(s.Scores))
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	for i, m := range s.Masks {
		if m == nil {
			return errors.Wrapf(ErrShapeMismatch, "mask %d is missing", i)
		}
		if m.Width != width || m.Height != height {
			return errors.Wrapf(ErrShapeMismatch, "mask %d is %dx%d, image is %dx%d", i, m.Width, m.Height, width, height)
		}
	}
	return nil
}

// Concat returns a new Set holding the instances of a followed by those of
// b. If exactly one side has scores, the other side is padded with zeros.
func Concat(a, b *Set) *Set {
	out := &Set{
		Boxes:    make([]Box, 0, a.Len()+b.Len()),
		Masks:    make([]*Mask, 0, a.Len()+b.Len()),
		ClassIDs: make([]int, 0, a.Len()+b.Len()),
	}
	for _, s := range []*Set{a, b} {
		if s == nil {
			continue
		}
		out.Boxes = append(out.Boxes, s.Boxes...)
		out.Masks = append(out.Masks, s.Masks...)
		out.ClassIDs = append(out.ClassIDs, s.ClassIDs...)
	}
	if (a != nil && a.Scores != nil) || (b != nil && b.Scores != nil) {
		out.Scores = make([]float64, 0, out.Len())
		for _, s := range []*Set{a, b} {
			if s == nil {
				continue
			}
			if s.Scores != nil {
				out.Scores = append(out.Scores, s.Scores...)
			} else {
				out.Scores = append(out.Scores, make([]float64, len(s.Boxes))...)
			}
		}
	}
	return out
}

// ClassNames maps class ids to display names. Index 0 is conventionally the
// background class.
type ClassNames []string

// Name returns the label for id, or "class_<id>" when the id is outside the
// table.
func (c ClassNames) Name(id int) string {
	if id >= 0 && id < len(c) {
		return c[id]
	}
	return fmt.Sprintf("class_%d", id)
}
