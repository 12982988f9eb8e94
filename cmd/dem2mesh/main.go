// dem2mesh converts terrarium elevation tiles into simplified terrain meshes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/Faultbox/dem2mesh/internal/config"
	"github.com/Faultbox/dem2mesh/internal/crash"
	"github.com/Faultbox/dem2mesh/internal/logger"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&elevationCmd{}, "")
	subcommands.Register(&meshCmd{}, "")
	subcommands.Register(&batchCmd{}, "")
	subcommands.Register(&encodeCmd{}, "")

	// Global flags come before the subcommand name
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	crash.Init(logger.Log)
	logger.Sugar.Debugf("Config: %+v", cfg)

	status := subcommands.Execute(context.Background(), cfg)
	logger.Sync()
	os.Exit(int(status))
}

// run executes a command body with panic recovery and maps its error to an
// exit status.
func run(name string, fn func() error) subcommands.ExitStatus {
	if err := crash.Guard(fn); err != nil {
		logger.Error(name+" failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// configFrom extracts the configuration passed to subcommands.Execute.
func configFrom(args []any) *config.Config {
	for _, a := range args {
		if cfg, ok := a.(*config.Config); ok {
			return cfg
		}
	}
	return config.Default()
}
