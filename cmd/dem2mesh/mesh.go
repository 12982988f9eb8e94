package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/Faultbox/dem2mesh/internal/config"
	"github.com/Faultbox/dem2mesh/internal/export"
	"github.com/Faultbox/dem2mesh/internal/logger"
	"github.com/Faultbox/dem2mesh/internal/pipeline"
	"github.com/Faultbox/dem2mesh/internal/terrain"
)

type meshCmd struct {
	size     float64
	segments int
	format   string
}

func (c *meshCmd) Name() string     { return "mesh" }
func (c *meshCmd) Synopsis() string { return "generate a simplified mesh from a tile" }
func (c *meshCmd) Usage() string {
	return "dem2mesh mesh [-size <units>] [-segments <n>] [-format json|obj] <tile.png> [out]\n" +
		"Writes to stdout when no output path is given.\n"
}
func (c *meshCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.size, "size", 0, "Tile edge length (default from config)")
	f.IntVar(&c.segments, "segments", -1, "Grid subdivisions per axis (default from config)")
	f.StringVar(&c.format, "format", "", "Output format: json, obj (default from config)")
}

// apply overrides cfg with the flags that were set.
func (c *meshCmd) apply(cfg *config.Config) (terrain.TileParams, string) {
	p := cfg.TileParams()
	if c.size > 0 {
		p.Size = float32(c.size)
	}
	if c.segments >= 0 {
		p.Segments = c.segments
	}
	format := cfg.Output.Format
	if c.format != "" {
		format = c.format
	}
	return p, format
}

func (c *meshCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg := configFrom(args)
	params, format := c.apply(cfg)
	in, out := f.Arg(0), f.Arg(1)

	return run(c.Name(), func() error {
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}

		g, err := pipeline.NewDefault(cfg, logger.Named("pipeline"))
		if err != nil {
			return err
		}
		mesh, err := g.Generate(data, params)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}

		if out == "" {
			return export.Write(os.Stdout, mesh, format)
		}
		n, err := writeMeshFile(out, mesh, format)
		if err != nil {
			return err
		}
		logger.Info("wrote mesh",
			zap.String("path", out),
			zap.String("size", humanize.Bytes(uint64(n))),
			zap.Int("triangles", mesh.TriangleCount()))
		return nil
	})
}

// writeMeshFile exports mesh to path and returns the number of bytes written.
func writeMeshFile(path string, mesh *terrain.Mesh, format string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cw := &countingWriter{w: f}
	if err := export.Write(cw, mesh, format); err != nil {
		return 0, err
	}
	return cw.n, f.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
