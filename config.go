package bloom

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the engine configuration, normally read from bloom.toml.
type Config struct {
	Loading   LoadingConfig   `toml:"loading"`
	Buffering BufferingConfig `toml:"buffering"`
	Input     InputConfig     `toml:"input"`
	Stage     StageConfig     `toml:"stage"`
	Logging   LoggingConfig   `toml:"logging"`
}

// LoadingConfig controls asset-list scheduling and fetching.
type LoadingConfig struct {
	Order            []string      `toml:"order"`             // staggered order; "required" is always first
	Politeness       int           `toml:"politeness"`        // withhold the Nth staggered list until first interaction; 0 none, -1 never
	Language         string        `toml:"language"`          // BCP-47 code for localized sheets
	FetchConcurrency int           `toml:"fetch_concurrency"` // parallel fetches within one list
	FontTimeout      time.Duration `toml:"font_timeout"`
}

// BufferingConfig controls waits on asset lists.
type BufferingConfig struct {
	TestDelay   time.Duration `toml:"test_delay"` // debug only: hold every wait this long before it may complete
	ShowOverlay bool          `toml:"show_overlay"`
}

// InputConfig holds the click synthesis thresholds.
type InputConfig struct {
	ClickTime     time.Duration `toml:"click_time"`
	ClickDistance float64       `toml:"click_distance"` // fraction of the stage's larger dimension
}

// StageConfig sizes the stage and the host window.
type StageConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	TPS    int    `toml:"tps"`
	Debug  bool   `toml:"debug"` // tree-shape warnings, per-frame timing logs, FPS readout

	ScreenshotDir string `toml:"screenshot_dir"`
}

// LoggingConfig selects the log level and encoder.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML over the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Loading: LoadingConfig{
			Order:            []string{"required"},
			Politeness:       0,
			Language:         "en",
			FetchConcurrency: 4,
			FontTimeout:      3 * time.Second,
		},
		Buffering: BufferingConfig{
			ShowOverlay: true,
		},
		Input: InputConfig{
			ClickTime:     defaultClickTime,
			ClickDistance: defaultClickDistance,
		},
		Stage: StageConfig{
			Width:  640,
			Height: 960,
			Title:  "bloom",
			TPS:    60,

			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
