// Package config loads the server's settings from an optional YAML file and
// environment variables.
//
// Precedence, lowest first: built-in defaults, the YAML file passed with
// --config, then MASKVIZ_* environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLogLevel    = "MASKVIZ_LOG_LEVEL"
	EnvMetricsAddr = "MASKVIZ_METRICS_ADDR"
	EnvSeed        = "MASKVIZ_SEED"
)

// Config is the top-level configuration.
type Config struct {
	// LogLevel is a zap level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// MetricsAddr, when set, serves Prometheus metrics on that address
	// (for example ":9090").
	MetricsAddr string `yaml:"metrics_addr"`

	// Seed drives the random colors and ROI sampling. Zero means a
	// time-based seed.
	Seed int64 `yaml:"seed"`

	Render Render `yaml:"render"`
}

// Render holds drawing defaults.
type Render struct {
	MaskAlpha    float64 `yaml:"mask_alpha"`
	BoxLineWidth float64 `yaml:"box_line_width"`
	BoxAlpha     float64 `yaml:"box_alpha"`

	// GridCellSize is the edge in pixels of one display_images cell.
	GridCellSize int `yaml:"grid_cell_size"`
	GridColumns  int `yaml:"grid_columns"`

	// PlotWidth and PlotHeight size the gonum plots, in pixels.
	PlotWidth  int `yaml:"plot_width"`
	PlotHeight int `yaml:"plot_height"`

	ROILimit      int `yaml:"roi_limit"`
	TopMasksLimit int `yaml:"top_masks_limit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Render: Render{
			MaskAlpha:     0.5,
			BoxLineWidth:  2,
			BoxAlpha:      0.7,
			GridCellSize:  224,
			GridColumns:   4,
			PlotWidth:     640,
			PlotHeight:    640,
			ROILimit:      10,
			TopMasksLimit: 4,
		},
	}
}

// Load reads path (when non-empty) over the defaults, then applies the
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok {
		c.MetricsAddr = v
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", EnvSeed)
		}
		c.Seed = seed
	}
	return nil
}

// Validate rejects settings the renderer cannot use.
func (c *Config) Validate() error {
	r := c.Render
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.LogLevel)
	}
	if r.MaskAlpha < 0 || r.MaskAlpha > 1 {
		return errors.Errorf("render.mask_alpha must be in [0,1], got %v", r.MaskAlpha)
	}
	if r.BoxAlpha < 0 || r.BoxAlpha > 1 {
		return errors.Errorf("render.box_alpha must be in [0,1], got %v", r.BoxAlpha)
	}
	if r.BoxLineWidth <= 0 {
		return errors.Errorf("render.box_line_width must be positive, got %v", r.BoxLineWidth)
	}
	if r.GridCellSize <= 0 || r.GridColumns <= 0 {
		return errors.New("render.grid_cell_size and render.grid_columns must be positive")
	}
	if r.PlotWidth <= 0 || r.PlotHeight <= 0 {
		return errors.New("render.plot_width and render.plot_height must be positive")
	}
	if r.ROILimit <= 0 || r.TopMasksLimit <= 0 {
		return errors.New("render.roi_limit and render.top_masks_limit must be positive")
	}
	return nil
}
