package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/sgemm/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	// fileConfig is loaded once in setup and consulted by each command
	// for values its flags left unset.
	fileConfig Config
)

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       configPath(),
			Sources:     cli.EnvVars("SGEMM_CONFIG"),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// engineFlags configure how the multiply is blocked and parallelised.
// Sizes are in bytes; zero means "detect or derive".
func engineFlags(o *engineOptions) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "threads",
			Aliases:     []string{"t"},
			Usage:       "worker threads (0 = GOMAXPROCS)",
			Destination: &o.threads,
		},
		&cli.BoolFlag{
			Name:        "detect-cache",
			Usage:       "read cache sizes from sysfs instead of the built-in defaults",
			Destination: &o.detectCache,
		},
		&cli.IntFlag{Name: "l1", Usage: "L1 data cache size in bytes", Destination: &o.l1},
		&cli.IntFlag{Name: "l2", Usage: "L2 cache size in bytes", Destination: &o.l2},
		&cli.IntFlag{Name: "l3", Usage: "L3 cache size in bytes", Destination: &o.l3},
		&cli.IntFlag{Name: "kc", Usage: "override reduction block depth", Destination: &o.kc},
		&cli.IntFlag{Name: "mc", Usage: "override row block height (multiple of 4)", Destination: &o.mc},
		&cli.IntFlag{Name: "nc", Usage: "override column block width (multiple of 12)", Destination: &o.nc},
	}
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	fileConfig = cfg
	applyLogConfig(cmd, cfg)

	level := logLevel
	if debug {
		level = "debug"
	}
	log, err := logger.Open(os.Stderr, logFormat, level)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	return logger.WithContext(ctx, log), nil
}
