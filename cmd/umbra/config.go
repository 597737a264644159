package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the umbra configuration file (~/.config/umbra/config.yaml).
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Evaluation defaults
	Grid      string `yaml:"grid"`
	Strategy  string `yaml:"strategy"`
	Precision string `yaml:"precision"`

	// Server
	Listen string   `yaml:"listen"`
	Rate   *float64 `yaml:"rate"`
	DB     string   `yaml:"db"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "umbra", "config.yaml")
}

// applyLogConfig applies config file defaults to the logging flags when the
// corresponding CLI flag was not explicitly set.
func applyLogConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyEvalConfig applies config file defaults to the shared evaluation flags.
func applyEvalConfig(c *cli.Command, cfg Config) {
	if cfg.Grid != "" && !c.IsSet("grid") && !c.IsSet("grid-json") {
		gridPath = cfg.Grid
	}
	if cfg.Strategy != "" && !c.IsSet("strategy") {
		strategy = cfg.Strategy
	}
	if cfg.Precision != "" && !c.IsSet("precision") {
		precision = cfg.Precision
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, rateLimit *float64, dbPath *string) {
	if cfg.Listen != "" && !c.IsSet("listen") {
		*addr = cfg.Listen
	}
	if cfg.Rate != nil && !c.IsSet("rate") {
		*rateLimit = *cfg.Rate
	}
	if cfg.DB != "" && !c.IsSet("db") {
		*dbPath = cfg.DB
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the resolved configuration and its origin",
		Flags: loggingFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := configPath()
			cfg := LoadConfig()

			origin := "defaults (no config file)"
			if path != "" {
				if _, err := os.Stat(path); err == nil {
					origin = path
				}
			}

			section("Configuration")
			row("origin", origin)
			row("grid", orElse(cfg.Grid, "(none)"))
			row("strategy", orElse(cfg.Strategy, "auto"))
			row("precision", orElse(cfg.Precision, "float64"))
			row("listen", orElse(cfg.Listen, "127.0.0.1:8080"))
			if cfg.Rate != nil {
				row("rate", fmt.Sprintf("%g req/s", *cfg.Rate))
			} else {
				row("rate", "unlimited")
			}
			row("db", orElse(cfg.DB, "(none)"))
			row("log level", orElse(cfg.LogLevel, logLevel))
			row("log format", orElse(cfg.LogFormat, logFormat))
			return nil
		},
	}
}

func orElse(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
