package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/umbra-photometry/umbra/internal/logger"
)

var (
	gridPath   string
	gridJSON   string
	strategy   string
	precision  string
	logLevel   string
	logFormat  string
	configFile string
	debug      bool
)

func gridSourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "grid",
			Aliases:     []string{"g"},
			Usage:       "path to a .utg grid file",
			Destination: &gridPath,
		},
		&cli.StringFlag{
			Name:        "grid-json",
			Usage:       "path to a JSON grid (bare array or {\"values\": [...]})",
			Destination: &gridJSON,
		},
	}
}

func evalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "strategy",
			Usage:       "execution strategy (auto, serial, parallel)",
			Value:       "auto",
			Destination: &strategy,
		},
		&cli.StringFlag{
			Name:        "precision",
			Usage:       "numeric precision (float32, float64)",
			Value:       "float64",
			Destination: &precision,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "override the config file path",
			Destination: &configFile,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// newLog builds the process logger from the logging flags. Logs go to
// stderr so stdout stays clean for result documents.
func newLog() logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	return logger.ForFormat(logFormat, os.Stderr, level)
}
