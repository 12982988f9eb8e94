package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/dem2mesh/internal/export"
	"github.com/Faultbox/dem2mesh/internal/logger"
	"github.com/Faultbox/dem2mesh/internal/pipeline"
	"github.com/Faultbox/dem2mesh/internal/terrain"
)

type batchCmd struct {
	outDir string
	format string
}

func (c *batchCmd) Name() string     { return "batch" }
func (c *batchCmd) Synopsis() string { return "generate meshes for many tiles" }
func (c *batchCmd) Usage() string {
	return "dem2mesh batch [-out <dir>] [-format json|obj] <dir-or-tile.png>...\n" +
		"Each tile is written to <dir>/<name>.<format>. Failed tiles are reported and skipped.\n"
}
func (c *batchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outDir, "out", "", "Output directory (default from config)")
	f.StringVar(&c.format, "format", "", "Output format: json, obj (default from config)")
}

func (c *batchCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg := configFrom(args)

	outDir := cfg.Output.Dir
	if c.outDir != "" {
		outDir = c.outDir
	}
	if outDir == "" {
		outDir = "."
	}
	format := cfg.Output.Format
	if c.format != "" {
		format = c.format
	}

	return run(c.Name(), func() error {
		tiles, err := collectTiles(f.Args())
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}

		g, err := pipeline.NewDefault(cfg, logger.Nop())
		if err != nil {
			return err
		}
		params := cfg.TileParams()

		bar := progressbar.NewOptions(len(tiles),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("tiles"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
		)

		var errs error
		var written int64
		for _, tile := range tiles {
			n, err := c.convert(g, tile, outDir, format, params)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", tile, err))
			}
			written += n
			_ = bar.Add(1)
		}
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)

		failed := len(multierr.Errors(errs))
		logger.Info("batch finished",
			zap.Int("tiles", len(tiles)),
			zap.Int("failed", failed),
			zap.String("written", humanize.Bytes(uint64(written))),
			zap.String("out", outDir))
		return errs
	})
}

func (c *batchCmd) convert(g *pipeline.Generator, tile, outDir, format string, params terrain.TileParams) (int64, error) {
	data, err := os.ReadFile(tile)
	if err != nil {
		return 0, err
	}
	mesh, err := g.Generate(data, params)
	if err != nil {
		return 0, err
	}

	name := strings.TrimSuffix(filepath.Base(tile), filepath.Ext(tile))
	return writeMeshFile(filepath.Join(outDir, name+export.Ext(format)), mesh, format)
}

// collectTiles expands directories into their .png files, sorted by name.
func collectTiles(paths []string) ([]string, error) {
	var tiles []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			tiles = append(tiles, p)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(p, "*.png"))
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		tiles = append(tiles, matches...)
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no tiles found in %s", strings.Join(paths, ", "))
	}
	return tiles, nil
}
