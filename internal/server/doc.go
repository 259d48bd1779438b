// Package server implements the MCP (Model Context Protocol) server for
// instance-segmentation visualization tools.
//
// The server speaks JSON-RPC 2.0 over stdio and exposes each renderer in
// package visualize as a tool. Detections, masks and match results are
// arguments; the server never runs a model.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Instance Overlays:
//   - viz_display_instances: Boxes, masks, contours and captions
//   - viz_display_differences: Ground truth vs. predictions
//   - viz_draw_rois: Proposals, refinements and unmolded masks
//   - viz_draw_boxes: Boxes and refined boxes by visibility
//   - viz_draw_box: Burn one box into the pixels
//
// Grids:
//   - viz_display_top_masks: Label maps of the largest classes
//   - viz_display_images: Titled image grid
//
// Plots and Tables:
//   - viz_plot_precision_recall: PR curve
//   - viz_plot_overlaps: IoU heatmap
//   - viz_weights_stats: Weight statistics table
//   - viz_display_table: Generic text/HTML table
//
// Rendering tools return a base64 PNG and, when output_path is set, also
// write the PNG to disk.
//
// # Image Caching
//
// Source images and mask PNGs are cached by path for the lifetime of the
// process. Tools that modify pixels work on a copy.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Options{Logger: logger, Metrics: m})
//	if err := srv.Run(); err != nil {
//	    logger.Fatal("server stopped", zap.Error(err))
//	}
package server
