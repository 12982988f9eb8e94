package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/Faultbox/dem2mesh/internal/logger"
	"github.com/Faultbox/dem2mesh/internal/pipeline"
)

type elevationCmd struct {
	dumpPath string
}

func (c *elevationCmd) Name() string     { return "elevation" }
func (c *elevationCmd) Synopsis() string { return "decode a tile and report its elevation range" }
func (c *elevationCmd) Usage() string {
	return "dem2mesh elevation [-dump <out.f32>] <tile.png>\n"
}
func (c *elevationCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dumpPath, "dump", "", "Write samples as raw little-endian float32, row-major")
}

func (c *elevationCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg := configFrom(args)
	path := f.Arg(0)

	return run(c.Name(), func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		g, err := pipeline.NewDefault(cfg, logger.Named("pipeline"))
		if err != nil {
			return err
		}
		hf, err := g.Elevation(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		lo, hi := hf.MinMax()
		fmt.Printf("File:      %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
		fmt.Printf("Size:      %dx%d (%s samples)\n", hf.Width, hf.Height, humanize.Comma(int64(len(hf.Samples))))
		fmt.Printf("Elevation: %.3f .. %.3f m\n", lo, hi)

		if c.dumpPath == "" {
			return nil
		}
		if err := dumpSamples(c.dumpPath, hf.Samples); err != nil {
			return err
		}
		logger.Info("wrote samples", zap.String("path", c.dumpPath), zap.Int("count", len(hf.Samples)))
		return nil
	})
}

func dumpSamples(path string, samples []float32) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := binary.Write(w, binary.LittleEndian, samples); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return out.Close()
}
