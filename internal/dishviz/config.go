package dishviz

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Animation formats.
const (
	AnimNone = ""
	AnimGIF  = "gif"
	AnimAVI  = "avi"
)

type Config struct {
	OutDir       string  `yaml:"outDir" env:"DISHVIZ_OUT_DIR"`
	Workers      int     `yaml:"workers" env:"DISHVIZ_WORKERS"` // 0 means one per CPU
	FigureInches float64 `yaml:"figureInches" env:"DISHVIZ_FIGURE_INCHES"`
	DPI          int     `yaml:"dpi" env:"DISHVIZ_DPI"`
	Quiet        bool    `yaml:"quiet" env:"DISHVIZ_QUIET"` // suppress progress output

	Animate     string `yaml:"animate" env:"DISHVIZ_ANIMATE"` // "", "gif" or "avi"
	AnimCellPx  int    `yaml:"animCellPx" env:"DISHVIZ_ANIM_CELL_PX"`
	AnimDelay   int    `yaml:"animDelay" env:"DISHVIZ_ANIM_DELAY"`
	AnimFPS     int    `yaml:"animFPS" env:"DISHVIZ_ANIM_FPS"`
	JPEGQuality int    `yaml:"jpegQuality" env:"DISHVIZ_JPEG_QUALITY"`

	SummaryWidth  int `yaml:"summaryWidth" env:"DISHVIZ_SUMMARY_WIDTH"`
	SummaryHeight int `yaml:"summaryHeight" env:"DISHVIZ_SUMMARY_HEIGHT"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	if cfg.Workers < 0 {
		cfg.Workers = 0
	}
	if cfg.FigureInches <= 0 {
		cfg.FigureInches = DefaultFigureInches
	}
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultDPI
	}
	if cfg.AnimCellPx <= 0 {
		cfg.AnimCellPx = DefaultAnimCellPx
	}
	if cfg.AnimDelay <= 0 {
		cfg.AnimDelay = DefaultAnimDelay
	}
	if cfg.AnimFPS <= 0 {
		cfg.AnimFPS = DefaultAnimFPS
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultJPEGQuality
	}
	if cfg.SummaryWidth <= 0 {
		cfg.SummaryWidth = DefaultSummaryWidth
	}
	if cfg.SummaryHeight <= 0 {
		cfg.SummaryHeight = DefaultSummaryHeight
	}
}

// Validate checks values that have no sensible default.
func (cfg *Config) Validate() error {
	switch cfg.Animate {
	case AnimNone, AnimGIF, AnimAVI:
	default:
		return fmt.Errorf("animate must be one of %q, %q or empty, got %q", AnimGIF, AnimAVI, cfg.Animate)
	}
	return nil
}

// LoadConfig reads an optional YAML file, overlays DISHVIZ_* environment variables and
// fills in defaults. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	DebugLog("Loaded config from %q: out=%s, workers=%d, figure=%.1fin@%ddpi, animate=%q", path, cfg.OutDir, cfg.Workers, cfg.FigureInches, cfg.DPI, cfg.Animate)
	return &cfg, nil
}
