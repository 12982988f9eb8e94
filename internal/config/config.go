// Package config handles dem2mesh configuration loading and validation.
package config

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/multierr"

	"github.com/Faultbox/dem2mesh/internal/export"
	"github.com/Faultbox/dem2mesh/internal/logger"
	"github.com/Faultbox/dem2mesh/internal/terrain"
)

// Compaction orders.
const (
	OrderFetch   = "fetch"
	OrderHilbert = "hilbert"
)

// Export formats.
const (
	FormatJSON = export.JSON
	FormatOBJ  = export.OBJ
)

// Config holds all generator settings.
type Config struct {
	Tile     TileConfig     `yaml:"tile"`
	Simplify SimplifyConfig `yaml:"simplify"`
	Compact  CompactConfig  `yaml:"compact"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TileConfig holds tessellation settings.
type TileConfig struct {
	Size     float32 `yaml:"size"`     // Edge length of the tile in world units
	Segments int     `yaml:"segments"` // Grid subdivisions per axis
	Sampling string  `yaml:"sampling"` // "nearest" or "bilinear"
}

// SimplifyConfig holds the reduction budget.
type SimplifyConfig struct {
	TargetRatio   float32 `yaml:"target_ratio"`
	MaxError      float32 `yaml:"max_error"`
	AbsoluteError bool    `yaml:"absolute_error"`
}

// CompactConfig selects the vertex ordering after reduction.
type CompactConfig struct {
	Order string `yaml:"order"`
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Tile: TileConfig{
			Size:     10,
			Segments: 128,
			Sampling: terrain.SamplingNearest,
		},
		Simplify: SimplifyConfig{
			TargetRatio: 0.2,
			MaxError:    0.01,
		},
		Compact: CompactConfig{
			Order: OrderFetch,
		},
		Output: OutputConfig{
			Format: FormatJSON,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// TileParams returns the tessellation parameters of the config.
func (c *Config) TileParams() terrain.TileParams {
	return terrain.TileParams{Size: c.Tile.Size, Segments: c.Tile.Segments}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error

	if err1 := c.TileParams().Validate(); err1 != nil {
		err = multierr.Append(err, fmt.Errorf("tile: %w", err1))
	}
	if _, err1 := terrain.ParseSampler(c.Tile.Sampling); err1 != nil {
		err = multierr.Append(err, fmt.Errorf("tile.sampling: %w", err1))
	}

	ratio := float64(c.Simplify.TargetRatio)
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		err = multierr.Append(err, fmt.Errorf("simplify.target_ratio: %v not in [0, 1]", c.Simplify.TargetRatio))
	}
	maxErr := float64(c.Simplify.MaxError)
	if math.IsNaN(maxErr) || math.IsInf(maxErr, 0) || maxErr < 0 {
		err = multierr.Append(err, fmt.Errorf("simplify.max_error: %v must be a finite non-negative number", c.Simplify.MaxError))
	}

	if !slices.Contains([]string{OrderFetch, OrderHilbert}, c.Compact.Order) {
		err = multierr.Append(err, fmt.Errorf("compact.order: unknown order %q", c.Compact.Order))
	}
	if !slices.Contains([]string{FormatJSON, FormatOBJ}, c.Output.Format) {
		err = multierr.Append(err, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	if _, err1 := logger.ParseLevel(c.Logging.Level); err1 != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", err1))
	}

	return err
}
