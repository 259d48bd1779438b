package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp("", "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// createTestMaskFile writes a grayscale mask PNG with the rectangle r set.
func createTestMaskFile(t *testing.T, width, height int, r image.Rectangle) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "mask.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create mask file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode mask: %v", err)
	}
	return path
}

// maskRows builds an inline mask with the rectangle r set.
func maskRows(width, height int, r image.Rectangle) [][]int {
	rows := make([][]int, height)
	for y := range rows {
		rows[y] = make([]int, width)
		for x := range rows[y] {
			if (image.Point{X: x, Y: y}).In(r) {
				rows[y][x] = 1
			}
		}
	}
	return rows
}

// callTool runs a tools/call request and decodes the text content into out.
// It returns the protocol error, if any.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", result["content"])
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode tool result: %v", err)
		}
	}
	return nil
}

// figure mirrors the JSON of a rendered figure.
type figure struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	OutputPath  string `json:"output_path"`
}

func (f *figure) decode(t *testing.T) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(f.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not a PNG: %v", err)
	}
	return img
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	if perr := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}, &info); perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if info.Width != 100 || info.Height != 80 || info.Format != "png" {
		t.Errorf("info: got %+v", info)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var dims dimensionsResult
	if perr := callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}, &dims); perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", dims.Width, dims.Height)
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 20, 20, color.White)

	tests := []struct {
		name string
		tool string
		args map[string]interface{}
	}{
		{"non-existent file", "image_load", map[string]interface{}{"path": "/nonexistent/image.png"}},
		{"unknown tool", "nonexistent_tool", map[string]interface{}{}},
		{"missing path", "image_load", map[string]interface{}{}},
		{"differences without matches", "viz_display_differences", map[string]interface{}{"path": imgPath}},
		{"draw_box without box", "viz_draw_box", map[string]interface{}{"path": imgPath}},
		{"bad color", "viz_draw_box", map[string]interface{}{"path": imgPath, "box": []int{1, 1, 5, 5}, "color": "red"}},
		{"draw_boxes without boxes", "viz_draw_boxes", map[string]interface{}{"path": imgPath}},
		{"masks and mask_paths", "viz_draw_boxes", map[string]interface{}{
			"path":       imgPath,
			"boxes":      [][]int{{1, 1, 5, 5}},
			"masks":      [][][]int{maskRows(20, 20, image.Rect(1, 1, 5, 5))},
			"mask_paths": []string{"/nonexistent/mask.png"},
		}},
		{"draw_boxes mask size mismatch", "viz_draw_boxes", map[string]interface{}{
			"path":  imgPath,
			"boxes": [][]int{{1, 1, 5, 5}},
			"masks": [][][]int{maskRows(10, 10, image.Rect(1, 1, 5, 5))},
		}},
		{"empty table", "viz_display_table", map[string]interface{}{"rows": [][]string{}}},
		{"no images", "viz_display_images", map[string]interface{}{}},
		{"pr length mismatch", "viz_plot_precision_recall", map[string]interface{}{"ap": 0.5, "precisions": []float64{1}, "recalls": []float64{0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perr := callTool(t, s, tt.tool, tt.args, nil)
			if perr == nil {
				t.Fatal("expected an error")
			}
			if perr.Code != -32000 {
				t.Errorf("Error code: got %d, want -32000", perr.Code)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := New(Options{})

	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`{invalid`),
	}

	resp := s.handleToolsCall(req)

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_DisplayInstances(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 40, 30, color.RGBA{100, 100, 100, 255})
	outPath := filepath.Join(t.TempDir(), "out", "instances.png")

	var fig figure
	perr := callTool(t, s, "viz_display_instances", map[string]interface{}{
		"path":        imgPath,
		"boxes":       [][]int{{5, 5, 20, 25}},
		"masks":       [][][]int{maskRows(40, 30, image.Rect(8, 8, 20, 20))},
		"class_ids":   []int{1},
		"scores":      []float64{0.9},
		"class_names": []string{"BG", "cat"},
		"colors":      []string{"#FF0000"},
		"output_path": outPath,
	}, &fig)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}

	if fig.MimeType != "image/png" || fig.Width < 40 || fig.Height < 30 {
		t.Errorf("figure: got %dx%d %s", fig.Width, fig.Height, fig.MimeType)
	}
	if fig.OutputPath != outPath {
		t.Errorf("output_path: got %q, want %q", fig.OutputPath, outPath)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("figure not written: %v", err)
	}
	fig.decode(t)
}

func TestHandleToolsCall_DisplayInstances_MaskPaths(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 40, 30, color.RGBA{100, 100, 100, 255})
	maskPath := createTestMaskFile(t, 40, 30, image.Rect(8, 8, 20, 20))

	var fig figure
	perr := callTool(t, s, "viz_display_instances", map[string]interface{}{
		"path":       imgPath,
		"boxes":      [][]int{{5, 5, 20, 25}},
		"mask_paths": []string{maskPath},
		"class_ids":  []int{1},
		"show_bbox":  false,
	}, &fig)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if fig.OutputPath != "" {
		t.Errorf("output_path should be empty, got %q", fig.OutputPath)
	}
}

func TestHandleToolsCall_DisplayInstances_MaskSizeMismatch(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 40, 30, color.White)

	perr := callTool(t, s, "viz_display_instances", map[string]interface{}{
		"path":      imgPath,
		"boxes":     [][]int{{5, 5, 20, 25}},
		"masks":     [][][]int{maskRows(10, 10, image.Rect(0, 0, 5, 5))},
		"class_ids": []int{1},
	}, nil)
	if perr == nil || !strings.Contains(perr.Data.(string), "shape mismatch") {
		t.Errorf("expected a shape mismatch, got %v", perr)
	}
}

func TestHandleToolsCall_DisplayInstances_EmptyCaptions(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 40, 30, color.RGBA{100, 100, 100, 255})

	var fig figure
	perr := callTool(t, s, "viz_display_instances", map[string]interface{}{
		"path":      imgPath,
		"boxes":     [][]int{{5, 5, 20, 25}},
		"masks":     [][][]int{maskRows(40, 30, image.Rect(8, 8, 20, 20))},
		"class_ids": []int{1},
		"captions":  []string{},
		"colors":    []string{},
	}, &fig)
	if perr != nil {
		t.Fatalf("empty captions should fall back to labels: %v", perr)
	}
}

func TestDisplayDifferencesArgs_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantIoU   float64
		wantScore float64
	}{
		{"omitted", `{}`, defaultIoUThreshold, defaultScoreThreshold},
		{"explicit zero", `{"iou_threshold":0,"score_threshold":0}`, 0, 0},
		{"explicit values", `{"iou_threshold":0.75,"score_threshold":0.1}`, 0.75, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a displayDifferencesArgs
			if err := json.Unmarshal([]byte(tt.json), &a); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := floatOr(a.IoUThreshold, defaultIoUThreshold); got != tt.wantIoU {
				t.Errorf("iou threshold: got %v, want %v", got, tt.wantIoU)
			}
			if got := floatOr(a.ScoreThreshold, defaultScoreThreshold); got != tt.wantScore {
				t.Errorf("score threshold: got %v, want %v", got, tt.wantScore)
			}
		})
	}
}

func TestHandleToolsCall_DisplayDifferences(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 40, 40, color.RGBA{100, 100, 100, 255})

	set := func(box []int, r image.Rectangle, scores []float64) map[string]interface{} {
		m := map[string]interface{}{
			"boxes":     [][]int{box},
			"masks":     [][][]int{maskRows(40, 40, r)},
			"class_ids": []int{1},
		}
		if scores != nil {
			m["scores"] = scores
		}
		return m
	}

	var res struct {
		figure
		Matches struct {
			GTMatch   []int       `json:"gt_match"`
			PredMatch []int       `json:"pred_match"`
			Overlaps  [][]float64 `json:"overlaps"`
		} `json:"matches"`
	}
	perr := callTool(t, s, "viz_display_differences", map[string]interface{}{
		"path": imgPath,
		"gt":   set([]int{5, 5, 20, 20}, image.Rect(5, 5, 20, 20), nil),
		"pred": set([]int{6, 6, 22, 22}, image.Rect(6, 6, 22, 22), []float64{0.95}),
		"matches": map[string]interface{}{
			"gt_match":   []int{0},
			"pred_match": []int{0},
			"overlaps":   [][]float64{{0.7}},
		},
		"class_names": []string{"BG", "cat"},
	}, &res)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if res.Width < 40 || res.ImageBase64 == "" {
		t.Errorf("figure: got %dx%d", res.Width, res.Height)
	}
	if len(res.Matches.PredMatch) != 1 || res.Matches.PredMatch[0] != 0 {
		t.Errorf("matches: got %+v", res.Matches)
	}
}

func TestHandleToolsCall_DrawROIs(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 40, 40, color.RGBA{100, 100, 100, 255})

	var res struct {
		figure
		Stats struct {
			Positive      int     `json:"positive"`
			Negative      int     `json:"negative"`
			PositiveRatio float64 `json:"positive_ratio"`
		} `json:"stats"`
	}
	perr := callTool(t, s, "viz_draw_rois", map[string]interface{}{
		"path":         imgPath,
		"rois":         [][]int{{2, 2, 12, 12}, {20, 20, 30, 30}},
		"refined_rois": [][]int{{3, 3, 13, 13}, {20, 20, 30, 30}},
		"masks":        [][][]float64{{{1, 1}, {1, 1}}, {{0, 0}, {0, 0}}},
		"class_ids":    []int{1, 0},
		"class_names":  []string{"BG", "cat"},
	}, &res)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if res.Stats.Positive != 1 || res.Stats.Negative != 1 || res.Stats.PositiveRatio != 0.5 {
		t.Errorf("stats: got %+v", res.Stats)
	}
}

func TestHandleToolsCall_DrawBoxes(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 50, 50, color.Black)

	var fig figure
	perr := callTool(t, s, "viz_draw_boxes", map[string]interface{}{
		"path":          imgPath,
		"boxes":         [][]int{{5, 5, 20, 20}, {0, 0, 0, 0}},
		"refined_boxes": [][]int{{6, 6, 22, 22}, {30, 30, 40, 40}},
		"captions":      []string{"a", "b"},
		"visibilities":  []int{2, 0},
		"title":         "boxes",
	}, &fig)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if fig.Width <= 50 {
		t.Errorf("figure width: got %d, want margins around 50", fig.Width)
	}
}

func TestHandleToolsCall_DrawBox(t *testing.T) {
	s := New(Options{})
	gray := color.RGBA{128, 128, 128, 255}
	imgPath := createTestImageFile(t, 40, 40, gray)

	var fig figure
	perr := callTool(t, s, "viz_draw_box", map[string]interface{}{
		"path":  imgPath,
		"box":   []int{5, 5, 20, 20},
		"color": "#00FF00",
	}, &fig)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if fig.Width != 40 || fig.Height != 40 {
		t.Fatalf("figure: got %dx%d, want 40x40", fig.Width, fig.Height)
	}

	img := fig.decode(t)
	if r, g, b, _ := img.At(5, 5).RGBA(); r != 0 || g != 0xffff || b != 0 {
		t.Errorf("box corner: got (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}
	if r, _, _, _ := img.At(30, 30).RGBA(); r>>8 != 128 {
		t.Errorf("outside box: got r=%d, want 128", r>>8)
	}

	cached, err := s.cache.Load(imgPath)
	if err != nil {
		t.Fatalf("cache.Load failed: %v", err)
	}
	if r, _, _, _ := cached.At(5, 5).RGBA(); r>>8 != 128 {
		t.Error("viz_draw_box modified the cached image")
	}
}

func TestHandleToolsCall_DisplayTopMasks(t *testing.T) {
	s := New(Options{})
	imgPath := createTestImageFile(t, 20, 20, color.White)

	var fig figure
	perr := callTool(t, s, "viz_display_top_masks", map[string]interface{}{
		"path": imgPath,
		"masks": [][][]int{
			maskRows(20, 20, image.Rect(0, 0, 10, 10)),
			maskRows(20, 20, image.Rect(5, 5, 20, 20)),
		},
		"class_ids":   []int{1, 2},
		"class_names": []string{"BG", "cat", "dog"},
		"limit":       2,
	}, &fig)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if fig.Width <= fig.Height {
		t.Errorf("top masks should be a single wide row, got %dx%d", fig.Width, fig.Height)
	}
}

func TestHandleToolsCall_DisplayImages(t *testing.T) {
	s := New(Options{})
	a := createTestImageFile(t, 30, 20, color.White)
	b := createTestImageFile(t, 20, 30, color.Black)

	var fig figure
	perr := callTool(t, s, "viz_display_images", map[string]interface{}{
		"paths":  []string{a, b},
		"titles": []string{"a", "b"},
		"cols":   2,
	}, &fig)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if fig.Width == 0 || fig.Height == 0 {
		t.Errorf("figure: got %dx%d", fig.Width, fig.Height)
	}
}

func TestHandleToolsCall_Plots(t *testing.T) {
	s := New(Options{})

	var pr figure
	perr := callTool(t, s, "viz_plot_precision_recall", map[string]interface{}{
		"ap":         0.75,
		"precisions": []float64{1, 1, 0.66, 0.5},
		"recalls":    []float64{0, 0.33, 0.66, 1},
	}, &pr)
	if perr != nil {
		t.Fatalf("precision-recall: %v", perr)
	}
	if pr.Width == 0 {
		t.Error("precision-recall figure is empty")
	}

	var ov figure
	perr = callTool(t, s, "viz_plot_overlaps", map[string]interface{}{
		"gt_class_ids":   []int{1, 2},
		"pred_class_ids": []int{1},
		"pred_scores":    []float64{0.9},
		"overlaps":       [][]float64{{0.8, 0.1}},
		"class_names":    []string{"BG", "cat", "dog"},
	}, &ov)
	if perr != nil {
		t.Fatalf("overlaps: %v", perr)
	}
	if ov.Width == 0 {
		t.Error("overlaps figure is empty")
	}
}

func TestHandleToolsCall_WeightsStats(t *testing.T) {
	s := New(Options{})

	var res struct {
		Rows []struct {
			Name string `json:"name"`
			Dead bool   `json:"dead"`
		} `json:"rows"`
		Text string `json:"text"`
		HTML string `json:"html"`
	}
	perr := callTool(t, s, "viz_weights_stats", map[string]interface{}{
		"layers": []map[string]interface{}{
			{
				"name": "conv1",
				"kind": "Conv2D",
				"weights": []map[string]interface{}{
					{"name": "conv1/kernel", "shape": []int{2, 2}, "values": []float64{0.1, -0.2, 0.3, 0.4}},
					{"name": "conv1/bias", "shape": []int{2}, "values": []float64{0, 0}},
				},
			},
		},
	}, &res)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(res.Rows))
	}
	if res.Rows[0].Dead || res.Rows[1].Dead {
		t.Error("conv bias with equal values should not be flagged dead")
	}
	if !strings.Contains(res.Text, "conv1/kernel") || !strings.Contains(res.HTML, "<table") {
		t.Error("rendered tables are missing content")
	}
}

func TestHandleToolsCall_DisplayTable(t *testing.T) {
	s := New(Options{})

	var res struct {
		Text string `json:"text"`
		HTML string `json:"html"`
	}
	perr := callTool(t, s, "viz_display_table", map[string]interface{}{
		"rows": [][]string{{"a", "b"}, {"1", "2"}},
	}, &res)
	if perr != nil {
		t.Fatalf("Unexpected error: %v", perr)
	}
	if !strings.Contains(res.Text, "a") || !strings.Contains(res.HTML, ">2</td>") {
		t.Errorf("table: text %q html %q", res.Text, res.HTML)
	}
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := New(Options{})

	// Every defined tool must be dispatched, even when its arguments are bad.
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			_, err := s.executeTool(tool.Name, json.RawMessage(`{}`))
			if err != nil && strings.HasPrefix(err.Error(), "unknown tool") {
				t.Errorf("executeTool(%s) is not dispatched", tool.Name)
			}
		})
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := New(Options{})

	_, err := s.executeTool("unknown_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("executeTool should fail for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := New(Options{})

	_, err := s.executeTool("image_load", json.RawMessage(`{invalid`))
	if err == nil {
		t.Error("executeTool should fail for invalid JSON")
	}
}

func TestExecuteTool_MissingArguments(t *testing.T) {
	s := New(Options{})

	_, err := s.executeTool("viz_display_table", nil)
	if err == nil || !strings.Contains(err.Error(), "missing arguments") {
		t.Errorf("expected missing arguments error, got %v", err)
	}
}
