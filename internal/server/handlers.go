package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/maskviz-mcp/internal/imaging"
	"github.com/ironsheep/maskviz-mcp/internal/instances"
	"github.com/ironsheep/maskviz-mcp/internal/visualize"
)

// Defaults applied by the tool layer when an argument is omitted.
const (
	defaultIoUThreshold     = 0.5
	defaultScoreThreshold   = 0.5
	defaultOverlapThreshold = 0.5
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "viz_draw_boxes").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	s.observe(params.Name, start, err)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images and mask files through the cache
//  4. Calls the visualize renderer
//  5. Encodes the figure, saving it when output_path is set
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Instance Overlays
	case "viz_display_instances":
		return s.handleDisplayInstances(args)
	case "viz_display_differences":
		return s.handleDisplayDifferences(args)
	case "viz_draw_rois":
		return s.handleDrawROIs(args)
	case "viz_draw_boxes":
		return s.handleDrawBoxes(args)
	case "viz_draw_box":
		return s.handleDrawBox(args)

	// Grids
	case "viz_display_top_masks":
		return s.handleDisplayTopMasks(args)
	case "viz_display_images":
		return s.handleDisplayImages(args)

	// Plots and Tables
	case "viz_plot_precision_recall":
		return s.handlePlotPrecisionRecall(args)
	case "viz_plot_overlaps":
		return s.handlePlotOverlaps(args)
	case "viz_weights_stats":
		return s.handleWeightsStats(args)
	case "viz_display_table":
		return s.handleDisplayTable(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments into v. Absent arguments are an error.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return errors.New("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}

// finish encodes a figure and writes it to outputPath when one is given.
func (s *Server) finish(img image.Image, outputPath string) (*imaging.RenderResult, error) {
	b := img.Bounds()
	s.metrics.ObserveFigure(b.Dx(), b.Dy())

	res, err := imaging.Encode(img)
	if err != nil {
		return nil, err
	}
	if outputPath != "" {
		if err := imaging.SavePNG(outputPath, img); err != nil {
			return nil, err
		}
		res.OutputPath = outputPath
	}
	return res, nil
}

// loadMasks returns inline masks, or loads mask PNGs when paths are given.
func (s *Server) loadMasks(inline []*instances.Mask, paths []string) ([]*instances.Mask, error) {
	if len(paths) == 0 {
		return inline, nil
	}
	if len(inline) > 0 {
		return nil, errors.New("give either masks or mask_paths, not both")
	}
	masks := make([]*instances.Mask, len(paths))
	for i, p := range paths {
		m, err := s.cache.LoadMask(p)
		if err != nil {
			return nil, errors.Wrapf(err, "mask %d", i)
		}
		masks[i] = m
	}
	return masks, nil
}

// parseColors converts "#RRGGBB" strings to colors.
func parseColors(hex []string) ([]color.Color, error) {
	if len(hex) == 0 {
		return nil, nil
	}
	out := make([]color.Color, len(hex))
	for i, h := range hex {
		c, err := imaging.ParseHexColor(h)
		if err != nil {
			return nil, errors.Wrapf(err, "color %d", i)
		}
		out[i] = c
	}
	return out, nil
}

// boolOr dereferences b, falling back to def when unset.
func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// floatOr dereferences f, falling back to def when unset. An explicit zero
// is kept.
func floatOr(f *float64, def float64) float64 {
	if f == nil {
		return def
	}
	return *f
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// dimensionsResult is the reply of image_dimensions.
type dimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &dimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
}

// === Instance Overlay Handlers ===

// instanceSetArgs is a detection set as it arrives on the wire. Masks are
// either inline row arrays or PNG paths.
type instanceSetArgs struct {
	Boxes     []instances.Box   `json:"boxes"`
	Masks     []*instances.Mask `json:"masks"`
	MaskPaths []string          `json:"mask_paths"`
	ClassIDs  []int             `json:"class_ids"`
	Scores    []float64         `json:"scores"`
}

func (s *Server) loadSet(a instanceSetArgs) (*instances.Set, error) {
	masks, err := s.loadMasks(a.Masks, a.MaskPaths)
	if err != nil {
		return nil, err
	}
	return &instances.Set{
		Boxes:    a.Boxes,
		Masks:    masks,
		ClassIDs: a.ClassIDs,
		Scores:   a.Scores,
	}, nil
}

type displayInstancesArgs struct {
	Path string `json:"path"`
	instanceSetArgs
	ClassNames []string `json:"class_names"`
	Title      string   `json:"title"`
	ShowMask   *bool    `json:"show_mask"`
	ShowBBox   *bool    `json:"show_bbox"`
	Colors     []string `json:"colors"`
	Captions   []string `json:"captions"`
	OutputPath string   `json:"output_path"`
}

func (s *Server) handleDisplayInstances(args json.RawMessage) (interface{}, error) {
	var a displayInstancesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	set, err := s.loadSet(a.instanceSetArgs)
	if err != nil {
		return nil, err
	}
	colors, err := parseColors(a.Colors)
	if err != nil {
		return nil, err
	}

	fig, err := s.renderer.DisplayInstances(img, set, a.ClassNames, visualize.InstanceOptions{
		Title:     a.Title,
		HideMasks: !boolOr(a.ShowMask, true),
		HideBoxes: !boolOr(a.ShowBBox, true),
		Colors:    colors,
		Captions:  a.Captions,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(fig, a.OutputPath)
}

type displayDifferencesArgs struct {
	Path           string             `json:"path"`
	GroundTruth    instanceSetArgs    `json:"gt"`
	Predictions    instanceSetArgs    `json:"pred"`
	Matches        *instances.Matches `json:"matches"`
	ClassNames     []string           `json:"class_names"`
	Title          string             `json:"title"`
	ShowMask       *bool              `json:"show_mask"`
	ShowBox        *bool              `json:"show_box"`
	IoUThreshold   *float64           `json:"iou_threshold"`
	ScoreThreshold *float64           `json:"score_threshold"`
	OutputPath     string             `json:"output_path"`
}

// differencesResult carries the figure and the matches it was drawn from.
type differencesResult struct {
	*imaging.RenderResult
	Matches *instances.Matches `json:"matches"`
}

func (s *Server) handleDisplayDifferences(args json.RawMessage) (interface{}, error) {
	var a displayDifferencesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Matches == nil {
		return nil, errors.New("matches are required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	gt, err := s.loadSet(a.GroundTruth)
	if err != nil {
		return nil, errors.Wrap(err, "ground truth")
	}
	pred, err := s.loadSet(a.Predictions)
	if err != nil {
		return nil, errors.Wrap(err, "predictions")
	}

	fig, matches, err := s.renderer.DisplayDifferences(img, gt, pred, a.ClassNames,
		instances.StaticMatcher{Result: a.Matches},
		visualize.DifferenceOptions{
			Title:          a.Title,
			HideMasks:      !boolOr(a.ShowMask, true),
			HideBoxes:      !boolOr(a.ShowBox, true),
			IoUThreshold:   floatOr(a.IoUThreshold, defaultIoUThreshold),
			ScoreThreshold: floatOr(a.ScoreThreshold, defaultScoreThreshold),
		})
	if err != nil {
		return nil, err
	}
	res, err := s.finish(fig, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &differencesResult{RenderResult: res, Matches: matches}, nil
}

type drawROIsArgs struct {
	Path       string                 `json:"path"`
	ROIs       []instances.Box        `json:"rois"`
	Refined    []instances.Box        `json:"refined_rois"`
	Masks      []*instances.FloatMask `json:"masks"`
	ClassIDs   []int                  `json:"class_ids"`
	ClassNames []string               `json:"class_names"`
	Limit      int                    `json:"limit"`
	OutputPath string                 `json:"output_path"`
}

// roisResult carries the figure and the positive/negative counts.
type roisResult struct {
	*imaging.RenderResult
	Stats visualize.ROIStats `json:"stats"`
}

func (s *Server) handleDrawROIs(args json.RawMessage) (interface{}, error) {
	var a drawROIsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	fig, stats, err := s.renderer.DrawROIs(img, visualize.ROIInput{
		ROIs:     a.ROIs,
		Refined:  a.Refined,
		Masks:    a.Masks,
		ClassIDs: a.ClassIDs,
	}, a.ClassNames, a.Limit)
	if err != nil {
		return nil, err
	}
	res, err := s.finish(fig, a.OutputPath)
	if err != nil {
		return nil, err
	}
	return &roisResult{RenderResult: res, Stats: stats}, nil
}

type drawBoxesArgs struct {
	Path         string            `json:"path"`
	Boxes        []instances.Box   `json:"boxes"`
	RefinedBoxes []instances.Box   `json:"refined_boxes"`
	Masks        []*instances.Mask `json:"masks"`
	MaskPaths    []string          `json:"mask_paths"`
	Captions     []string          `json:"captions"`
	Visibilities []int             `json:"visibilities"`
	Title        string            `json:"title"`
	OutputPath   string            `json:"output_path"`
}

func (s *Server) handleDrawBoxes(args json.RawMessage) (interface{}, error) {
	var a drawBoxesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	masks, err := s.loadMasks(a.Masks, a.MaskPaths)
	if err != nil {
		return nil, err
	}
	fig, err := s.renderer.DrawBoxes(img, visualize.BoxesOptions{
		Boxes:        a.Boxes,
		RefinedBoxes: a.RefinedBoxes,
		Masks:        masks,
		Captions:     a.Captions,
		Visibilities: a.Visibilities,
		Title:        a.Title,
	})
	if err != nil {
		return nil, err
	}
	return s.finish(fig, a.OutputPath)
}

type drawBoxArgs struct {
	Path       string         `json:"path"`
	Box        *instances.Box `json:"box"`
	Color      string         `json:"color"`
	OutputPath string         `json:"output_path"`
}

func (s *Server) handleDrawBox(args json.RawMessage) (interface{}, error) {
	var a drawBoxArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Box == nil {
		return nil, errors.New("box is required")
	}
	if a.Color == "" {
		a.Color = "#FF0000"
	}
	c, err := imaging.ParseHexColor(a.Color)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	// The cached image is shared, so draw on a copy.
	out := imaging.Copy(img)
	visualize.DrawBox(out, *a.Box, c)
	return s.finish(out, a.OutputPath)
}

// === Grid Handlers ===

type displayTopMasksArgs struct {
	Path       string            `json:"path"`
	Masks      []*instances.Mask `json:"masks"`
	MaskPaths  []string          `json:"mask_paths"`
	ClassIDs   []int             `json:"class_ids"`
	ClassNames []string          `json:"class_names"`
	Limit      int               `json:"limit"`
	OutputPath string            `json:"output_path"`
}

func (s *Server) handleDisplayTopMasks(args json.RawMessage) (interface{}, error) {
	var a displayTopMasksArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	masks, err := s.loadMasks(a.Masks, a.MaskPaths)
	if err != nil {
		return nil, err
	}
	fig, err := s.renderer.DisplayTopMasks(img, masks, a.ClassIDs, a.ClassNames, a.Limit)
	if err != nil {
		return nil, err
	}
	return s.finish(fig, a.OutputPath)
}

type displayImagesArgs struct {
	Paths      []string `json:"paths"`
	Titles     []string `json:"titles"`
	Cols       int      `json:"cols"`
	OutputPath string   `json:"output_path"`
}

func (s *Server) handleDisplayImages(args json.RawMessage) (interface{}, error) {
	var a displayImagesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.Wrap(instances.ErrEmptyInput, "paths")
	}
	images := make([]image.Image, len(a.Paths))
	for i, p := range a.Paths {
		img, err := s.cache.Load(p)
		if err != nil {
			return nil, err
		}
		images[i] = img
	}
	fig, err := s.renderer.DisplayImages(images, a.Titles, a.Cols)
	if err != nil {
		return nil, err
	}
	return s.finish(fig, a.OutputPath)
}

// === Plot and Table Handlers ===

type plotPrecisionRecallArgs struct {
	AP         float64   `json:"ap"`
	Precisions []float64 `json:"precisions"`
	Recalls    []float64 `json:"recalls"`
	OutputPath string    `json:"output_path"`
}

func (s *Server) handlePlotPrecisionRecall(args json.RawMessage) (interface{}, error) {
	var a plotPrecisionRecallArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	fig, err := s.renderer.PlotPrecisionRecall(a.AP, a.Precisions, a.Recalls)
	if err != nil {
		return nil, err
	}
	return s.finish(fig, a.OutputPath)
}

type plotOverlapsArgs struct {
	GTClassIDs   []int       `json:"gt_class_ids"`
	PredClassIDs []int       `json:"pred_class_ids"`
	PredScores   []float64   `json:"pred_scores"`
	Overlaps     [][]float64 `json:"overlaps"`
	ClassNames   []string    `json:"class_names"`
	Threshold    *float64    `json:"threshold"`
	OutputPath   string      `json:"output_path"`
}

func (s *Server) handlePlotOverlaps(args json.RawMessage) (interface{}, error) {
	var a plotOverlapsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	threshold := floatOr(a.Threshold, defaultOverlapThreshold)
	fig, err := s.renderer.PlotOverlaps(visualize.OverlapInput{
		GTClassIDs:   a.GTClassIDs,
		PredClassIDs: a.PredClassIDs,
		PredScores:   a.PredScores,
		Overlaps:     a.Overlaps,
	}, a.ClassNames, threshold)
	if err != nil {
		return nil, err
	}
	return s.finish(fig, a.OutputPath)
}

type weightsStatsArgs struct {
	Layers []visualize.Layer `json:"layers"`
}

func (s *Server) handleWeightsStats(args json.RawMessage) (interface{}, error) {
	var a weightsStatsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return visualize.WeightStats(a.Layers)
}

type displayTableArgs struct {
	Rows [][]string `json:"rows"`
}

func (s *Server) handleDisplayTable(args json.RawMessage) (interface{}, error) {
	var a displayTableArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Rows) == 0 {
		return nil, errors.Wrap(instances.ErrEmptyInput, "rows")
	}
	return visualize.DisplayTable(a.Rows), nil
}
