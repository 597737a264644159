package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/umbra-photometry/umbra/internal/api"
	"github.com/umbra-photometry/umbra/internal/evalog"
	"github.com/umbra-photometry/umbra/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		rateLimit   float64
		dbPath      string
		readTimeout time.Duration
	)

	flags := append([]cli.Flag{}, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "listen",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.Float64Flag{
			Name:        "rate",
			Usage:       "request rate limit in req/s (0 = unlimited)",
			Destination: &rateLimit,
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "record evaluations to this log",
			Destination: &dbPath,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read header timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the evaluation REST API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyLogConfig(cmd, cfg)
			applyServeConfig(cmd, cfg, &addr, &rateLimit, &dbPath)
			log := newLog()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx = logger.WithContext(ctx, log)

			var evals *evalog.Log
			if dbPath != "" {
				var err error
				evals, err = evalog.Open(dbPath)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: open log: %v", err), 1)
				}
				defer func() { _ = evals.Close() }()
				log.Info("recording evaluations", "db", dbPath)
			}

			server := api.NewServer(api.NewGridStore(), evals)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			if rateLimit > 0 {
				e.Use(api.RateLimit(rateLimit, int(rateLimit)))
			}
			server.Register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
