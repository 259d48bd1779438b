// Package visualize renders detections, masks and evaluation diagnostics
// for an instance-segmentation model.
//
// Every routine consumes already computed results (boxes, class ids,
// scores, masks and, for comparisons, ground-truth matches) and returns a
// finished figure as an *image.RGBA. Nothing here runs a model or computes
// matches; see instances.Matcher for the seam where matching plugs in.
//
// # Figures
//
// Overlay figures (DisplayInstances, DisplayDifferences, DrawROIs,
// DrawBoxes) are drawn on an imaging.Canvas: the source image at one pixel
// per data unit, surrounded by a white margin, with a title strip on top.
// Masks are blended into a copy of the image; outlines and captions are
// stroked over it. Plots (PlotPrecisionRecall, PlotOverlaps) are rendered
// with gonum/plot.
//
// # Randomness
//
// Instance colors and ROI sampling draw from the Renderer's *rand.Rand.
// Seed it for reproducible figures. A Renderer is safe for concurrent use.
package visualize
