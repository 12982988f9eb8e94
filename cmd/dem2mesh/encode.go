package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/Faultbox/dem2mesh/internal/logger"
	"github.com/Faultbox/dem2mesh/pkg/dem"
)

type encodeCmd struct {
	elevation float64
}

func (c *encodeCmd) Name() string     { return "encode" }
func (c *encodeCmd) Synopsis() string { return "write a constant-elevation tile" }
func (c *encodeCmd) Usage() string {
	return "dem2mesh encode -elevation <meters> <out.png>\n"
}
func (c *encodeCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.elevation, "elevation", 0, "Elevation of every sample in meters")
}

func (c *encodeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	out := f.Arg(0)

	return run(c.Name(), func() error {
		if c.elevation < dem.MinElevation || c.elevation > dem.MaxElevation {
			return fmt.Errorf("elevation %v outside [%v, %v]", c.elevation, dem.MinElevation, dem.MaxElevation)
		}

		hf := dem.NewHeightField(dem.TileWidth, dem.TileHeight, float32(c.elevation))
		data, err := dem.Encode(hf)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0644); err != nil {
			return err
		}

		r, g, b := dem.RGB(float32(c.elevation))
		logger.Info("wrote tile", zap.String("path", out), zap.Uint8("r", r), zap.Uint8("g", g), zap.Uint8("b", b))
		return nil
	})
}
