package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"
)

// RenderResult is a rendered figure encoded for the tool protocol.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`

	// OutputPath is set when the figure was also written to disk.
	OutputPath string `json:"output_path,omitempty"`
}

// Encode converts img to a base64 PNG result.
func Encode(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}

	b := img.Bounds()
	return &RenderResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// SavePNG writes img to path as PNG, creating parent directories as needed.
func SavePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create output directory %s", dir)
		}
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}
