// Package instances defines the detection data consumed by the visualizers.
//
// Nothing in this package computes detections. Boxes, class ids, scores and
// binary masks come from an external model; ground-truth/prediction matches
// come from an external Matcher. The types here only carry that data,
// validate that the shapes agree, and convert between representations
// (for example, unmolding a small float mask into a full-size binary mask).
//
// # Coordinate System
//
// Boxes use the model's (y1, x1, y2, x2) ordering in pixel coordinates with
// the origin at the top-left corner. (y1, x1) is inclusive and (y2, x2) is
// exclusive, matching image.Rectangle semantics.
//
// # Masks
//
// A Mask is a binary H×W bitmap stored row-major, one byte per pixel, where
// 1 marks a pixel belonging to the instance. Every mask in a Set must have
// the dimensions of the image it is drawn onto.
//
// # Error Handling
//
// Shape disagreements are reported as ErrShapeMismatch wrapped with context
// describing which lengths differ. Callers can test for it with errors.Is
// or errors.Cause.
package instances
