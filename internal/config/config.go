// Package config loads reader defaults from FOLIO_* environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/metcalfc/folio/internal/paging"
)

// Prefix is prepended to every variable name.
const Prefix = "FOLIO_"

// Config holds the defaults a book opens with. Per-book settings saved in the state store
// take precedence over TextSize and Font.
type Config struct {
	// TextSize is the text size multiplier in percent.
	TextSize int `env:"TEXT_SIZE" envDefault:"100"`
	// Font is the font family. Empty picks the default for the book language.
	Font string `env:"FONT"`
	// FontSize is the base point size. Zero lets the UI choose.
	FontSize float64 `env:"FONT_SIZE"`

	// Page size in layout units. Zero fills the terminal or window.
	PageWidth  int `env:"PAGE_WIDTH"`
	PageHeight int `env:"PAGE_HEIGHT"`
	Margin     int `env:"MARGIN" envDefault:"2"`

	// Workers bounds background pagination. Zero uses GOMAXPROCS.
	Workers int `env:"WORKERS" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	// StateDir holds reading records, bookmarks and the log. Empty means XDG_STATE_HOME/folio.
	StateDir string `env:"STATE_DIR"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.TextSize = paging.ClampMultiplier(cfg.TextSize)
	return cfg, nil
}

// Validate rejects values no layout can use.
func (c *Config) Validate() error {
	switch {
	case c.PageWidth < 0 || c.PageHeight < 0:
		return fmt.Errorf("config: page size %dx%d is negative", c.PageWidth, c.PageHeight)
	case c.Margin < 0:
		return fmt.Errorf("config: margin %d is negative", c.Margin)
	case c.FontSize < 0:
		return fmt.Errorf("config: font size %g is negative", c.FontSize)
	case c.Workers < 0:
		return fmt.Errorf("config: workers %d is negative", c.Workers)
	}
	return nil
}
