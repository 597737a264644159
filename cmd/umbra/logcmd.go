package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/umbra-photometry/umbra/internal/evalog"
)

func logCmd() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Inspect the evaluation log",
		Commands: []*cli.Command{
			logSummaryCmd(),
		},
	}
}

func logSummaryCmd() *cli.Command {
	var dbPath string

	return &cli.Command{
		Name:  "summary",
		Usage: "Print per-strategy timing percentiles of recorded runs",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "db",
				Usage:       "path to the evaluation log",
				Destination: &dbPath,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyLogConfig(cmd, cfg)
			if cfg.DB != "" && !cmd.IsSet("db") {
				dbPath = cfg.DB
			}
			if dbPath == "" {
				return cli.Exit("error: --db is required (or set db in the config file)", 1)
			}

			evals, err := evalog.Open(dbPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open log: %v", err), 1)
			}
			defer func() { _ = evals.Close() }()

			s, err := evals.Summary(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: summarize: %v", err), 1)
			}

			section("Evaluation Log")
			row("db", dbPath)
			rowInt("runs", s.Total)
			if s.Total == 0 {
				fmt.Println("(no recorded runs)")
				return nil
			}

			fmt.Printf("\n%-10s %8s %12s %12s %12s %12s\n", "Strategy", "Runs", "Mean", "P50", "P95", "P99")
			for _, st := range s.Strategies {
				fmt.Printf("%-10s %8d %12s %12s %12s %12s\n", st.Strategy, st.Count,
					formatUS(st.MeanUS), formatUS(st.P50US), formatUS(st.P95US), formatUS(st.P99US))
			}
			return nil
		},
	}
}

func formatUS(us float64) string {
	return time.Duration(us * float64(time.Microsecond)).Round(time.Microsecond).String()
}
