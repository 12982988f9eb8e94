package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagSize     = flag.Float64("size", 0, "Tile edge length in world units")
	flagSegments = flag.Int("segments", -1, "Grid subdivisions per axis")
	flagRatio    = flag.Float64("ratio", -1, "Target fraction of triangles to keep")
	flagMaxError = flag.Float64("max-error", -1, "Maximum simplification error")
	flagOrder    = flag.String("order", "", "Vertex order after reduction (fetch, hilbert)")
	flagFormat   = flag.String("format", "", "Export format (json, obj)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSize > 0 {
		cfg.Tile.Size = float32(*flagSize)
	}
	if *flagSegments >= 0 {
		cfg.Tile.Segments = *flagSegments
	}
	if *flagRatio >= 0 {
		cfg.Simplify.TargetRatio = float32(*flagRatio)
	}
	if *flagMaxError >= 0 {
		cfg.Simplify.MaxError = float32(*flagMaxError)
	}
	if *flagOrder != "" {
		cfg.Compact.Order = *flagOrder
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
