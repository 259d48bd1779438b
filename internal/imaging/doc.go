// Package imaging provides the drawing primitives used to render detection
// overlays.
//
// The package implements the low-level operations the visualizers are built
// from: loading and caching source images, generating instance palettes,
// alpha-blending binary masks, tracing mask contours, stroking boxes and
// polylines, drawing captions, laying images out in a grid, and encoding the
// result as PNG. All operations work with standard Go image types and use a
// coordinate system where (0,0) is at the top-left corner, X increases
// rightward, and Y increases downward.
//
// # Canvas
//
// A Canvas is one rendered figure. It owns an *image.RGBA with an optional
// title strip above a data area. The data area has explicit limits, so a
// figure can show a margin around the image (negative coordinates are valid
// and land in the margin). Drawing calls take data coordinates; the canvas
// converts them to pixels.
//
// # Strokes
//
// Boxes, connector lines and contours are rasterized with anti-aliasing via
// rasterx. Three line styles are supported: solid, dashed and dotted, with
// dash lengths proportional to the stroke width.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. A Canvas is not; each
// figure should be drawn by a single goroutine.
//
// # Color Representation
//
// Instance colors are color.NRGBA values. Hex strings ("#RRGGBB" or
// "#RRGGBBAA") are accepted wherever colors come from the tool protocol.
package imaging
