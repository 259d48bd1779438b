package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Shared schema fragments.

func pathProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func outputPathProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional path; the figure is also written there as PNG",
	}
}

func boxesProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": desc + ". Each box is [y1, x1, y2, x2] in pixels",
		"items": map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "number"},
			"minItems": 4,
			"maxItems": 4,
		},
	}
}

func masksProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Binary masks, one per instance, each an array of rows of 0/1 at image size",
		"items": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "integer"},
			},
		},
	}
}

func maskPathsProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Mask PNG files, one per instance; non-zero pixels are set. Alternative to masks",
		"items":       map[string]interface{}{"type": "string"},
	}
}

func intsProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": desc,
		"items":       map[string]interface{}{"type": "integer"},
	}
}

func numbersProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": desc,
		"items":       map[string]interface{}{"type": "number"},
	}
}

func stringsProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": desc,
		"items":       map[string]interface{}{"type": "string"},
	}
}

func classNamesProp() map[string]interface{} {
	return stringsProp("Class names indexed by class id; index 0 is the background")
}

func instanceSetProp(desc string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": desc,
		"properties": map[string]interface{}{
			"boxes":      boxesProp("Instance boxes"),
			"masks":      masksProp(),
			"mask_paths": maskPathsProp(),
			"class_ids":  intsProp("Class id per instance"),
			"scores":     numbersProp("Optional confidence per instance"),
		},
		"required": []string{"boxes", "class_ids"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for the rendering tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
				},
				"required": []string{"path"},
			},
		},

		// Instance Overlays
		{
			Name:        "viz_display_instances",
			Description: "Overlay detected instances on an image: dashed boxes, translucent masks, mask contours and captions. Returns a base64 PNG figure.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProp(),
					"boxes":       boxesProp("Instance boxes"),
					"masks":       masksProp(),
					"mask_paths":  maskPathsProp(),
					"class_ids":   intsProp("Class id per instance"),
					"scores":      numbersProp("Optional confidence per instance"),
					"class_names": classNamesProp(),
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Optional figure title",
					},
					"show_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Blend masks and draw contours. Default true",
						"default":     true,
					},
					"show_bbox": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw bounding boxes. Default true",
						"default":     true,
					},
					"colors":      stringsProp("Optional per-instance colors as #RRGGBB; random when omitted"),
					"captions":    stringsProp("Optional per-instance captions replacing '<class> <score>'"),
					"output_path": outputPathProp(),
				},
				"required": []string{"path", "boxes", "class_ids"},
			},
		},
		{
			Name:        "viz_display_differences",
			Description: "Draw ground truth (green) and predictions (red) on one image, captioning each prediction with score / IoU from precomputed matches.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
					"gt":   instanceSetProp("Ground-truth instances"),
					"pred": instanceSetProp("Predicted instances; scores are required"),
					"matches": map[string]interface{}{
						"type":        "object",
						"description": "Result of matching predictions to ground truth",
						"properties": map[string]interface{}{
							"gt_match":   intsProp("Matched prediction index per ground truth, or -1"),
							"pred_match": intsProp("Matched ground-truth index per prediction, or -1"),
							"overlaps": map[string]interface{}{
								"type":        "array",
								"description": "IoU matrix, one row per prediction, one column per ground truth",
								"items": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"type": "number"},
								},
							},
						},
						"required": []string{"gt_match", "pred_match", "overlaps"},
					},
					"class_names": classNamesProp(),
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Optional title; a legend title is used when omitted",
					},
					"show_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Blend masks. Default true",
						"default":     true,
					},
					"show_box": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw boxes. Default true",
						"default":     true,
					},
					"iou_threshold": map[string]interface{}{
						"type":        "number",
						"description": "IoU threshold the matches were computed with. Default 0.5",
						"default":     0.5,
					},
					"score_threshold": map[string]interface{}{
						"type":        "number",
						"description": "Score threshold the matches were computed with. Default 0.5",
						"default":     0.5,
					},
					"output_path": outputPathProp(),
				},
				"required": []string{"path", "gt", "pred", "matches"},
			},
		},
		{
			Name:        "viz_draw_rois",
			Description: "Show a random sample of region proposals with their refinements and unmolded masks. Also returns positive/negative ROI counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProp(),
					"rois":         boxesProp("Proposal boxes"),
					"refined_rois": boxesProp("Refined boxes, one per proposal"),
					"masks": map[string]interface{}{
						"type":        "array",
						"description": "Small soft masks in [0, 1], one per proposal, each an array of rows",
						"items": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type":  "array",
								"items": map[string]interface{}{"type": "number"},
							},
						},
					},
					"class_ids":   intsProp("Class id per proposal; 0 marks a negative"),
					"class_names": classNamesProp(),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of proposals to draw. Default from config (10)",
					},
					"output_path": outputPathProp(),
				},
				"required": []string{"path", "rois", "refined_rois", "masks", "class_ids"},
			},
		},
		{
			Name:        "viz_draw_boxes",
			Description: "Draw boxes and/or refined boxes with optional masks and captions. Visibility 0 is gray dotted, 1 dotted, 2 solid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProp(),
					"boxes":         boxesProp("Boxes before refinement"),
					"refined_boxes": boxesProp("Boxes after refinement"),
					"masks":         masksProp(),
					"mask_paths":    maskPathsProp(),
					"captions":      stringsProp("Optional caption per box"),
					"visibilities": map[string]interface{}{
						"type":        "array",
						"description": "Per-box visibility: 0, 1 or 2. Default 1",
						"items": map[string]interface{}{
							"type": "integer",
							"enum": []int{0, 1, 2},
						},
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Optional figure title",
					},
					"output_path": outputPathProp(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "viz_draw_box",
			Description: "Burn a 2-pixel box directly into the image pixels and return the modified image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp(),
					"box": map[string]interface{}{
						"type":        "array",
						"description": "Box as [y1, x1, y2, x2] in pixels",
						"items":       map[string]interface{}{"type": "number"},
						"minItems":    4,
						"maxItems":    4,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Box color as #RRGGBB. Default #FF0000",
						"default":     "#FF0000",
					},
					"output_path": outputPathProp(),
				},
				"required": []string{"path", "box"},
			},
		},

		// Grids
		{
			Name:        "viz_display_top_masks",
			Description: "Show the image next to per-class label maps for the classes with the largest total mask area.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProp(),
					"masks":       masksProp(),
					"mask_paths":  maskPathsProp(),
					"class_ids":   intsProp("Class id per mask"),
					"class_names": classNamesProp(),
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Number of class cells. Default from config (4)",
					},
					"output_path": outputPathProp(),
				},
				"required": []string{"path", "class_ids"},
			},
		},
		{
			Name:        "viz_display_images",
			Description: "Lay out several images in a titled grid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths":  stringsProp("Absolute paths of the images"),
					"titles": stringsProp("Optional title per image"),
					"cols": map[string]interface{}{
						"type":        "integer",
						"description": "Images per row. Default from config (4)",
					},
					"output_path": outputPathProp(),
				},
				"required": []string{"paths"},
			},
		},

		// Plots and Tables
		{
			Name:        "viz_plot_precision_recall",
			Description: "Plot a precision-recall curve titled with the AP@50 value.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ap": map[string]interface{}{
						"type":        "number",
						"description": "Average precision at IoU 0.5",
					},
					"precisions":  numbersProp("Precision values"),
					"recalls":     numbersProp("Recall values, same length as precisions"),
					"output_path": outputPathProp(),
				},
				"required": []string{"ap", "precisions", "recalls"},
			},
		},
		{
			Name:        "viz_plot_overlaps",
			Description: "Plot the prediction x ground-truth IoU matrix as a heatmap with match/wrong annotations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"gt_class_ids":   intsProp("Ground-truth class ids; background (0) entries are dropped"),
					"pred_class_ids": intsProp("Predicted class ids"),
					"pred_scores":    numbersProp("Prediction scores"),
					"overlaps": map[string]interface{}{
						"type":        "array",
						"description": "IoU matrix, one row per prediction, one column per ground truth",
						"items": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "number"},
						},
					},
					"class_names": classNamesProp(),
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "IoU above which a cell is annotated. Default 0.5",
						"default":     0.5,
					},
					"output_path": outputPathProp(),
				},
				"required": []string{"gt_class_ids", "pred_class_ids", "pred_scores", "overlaps"},
			},
		},
		{
			Name:        "viz_weights_stats",
			Description: "Tabulate min, max and std of each layer's weights, flagging dead and overflowing tensors. Returns text and HTML tables.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"layers": map[string]interface{}{
						"type":        "array",
						"description": "Trainable layers",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name": map[string]interface{}{"type": "string"},
								"kind": map[string]interface{}{
									"type":        "string",
									"description": "Layer type, e.g. Conv2D or Dense",
								},
								"weights": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"name":   map[string]interface{}{"type": "string"},
											"shape":  intsProp("Tensor shape"),
											"values": numbersProp("Values in row-major order"),
										},
										"required": []string{"name", "shape", "values"},
									},
								},
							},
							"required": []string{"name", "weights"},
						},
					},
				},
				"required": []string{"layers"},
			},
		},
		{
			Name:        "viz_display_table",
			Description: "Render rows of cells as a text table and an HTML table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"rows": map[string]interface{}{
						"type":        "array",
						"description": "Table rows, each an array of cell strings",
						"items": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
					},
				},
				"required": []string{"rows"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
