package main

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/floats"

	"github.com/umbra-photometry/umbra/internal/backend"
	"github.com/umbra-photometry/umbra/internal/evalog"
	"github.com/umbra-photometry/umbra/internal/priors"
	"github.com/umbra-photometry/umbra/pkg/transit"
)

func benchCmd() *cli.Command {
	var (
		samples    int64
		seed       int64
		warmupRuns int64
		benchRuns  int64
		dbPath     string
	)

	flags := append([]cli.Flag{}, gridSourceFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "n",
			Usage:       "number of random (z, r) samples per run",
			Value:       1_000_000,
			Destination: &samples,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "RNG seed for the sample batch",
			Value:       42,
			Destination: &seed,
		},
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of benchmark runs",
			Value:       3,
			Destination: &benchRuns,
		},
		&cli.StringFlag{
			Name:        "db",
			Usage:       "record runs to this evaluation log",
			Destination: &dbPath,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time serial against parallel evaluation on a random batch",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyLogConfig(cmd, cfg)
			applyEvalConfig(cmd, cfg)
			log := newLog()

			grid, source, err := loadGridValues()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load grid: %v", err), 1)
			}
			if samples < 1 {
				return cli.Exit("error: --n must be at least 1", 1)
			}

			rng := priors.NewRNG(uint64(seed))
			ratio, z := priors.RadiusImpact{}.SampleN(rng, int(samples))

			serialEv, err := transit.New[float64](backend.Serial, 0)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			parallelEv, err := transit.New[float64](backend.Parallel, 0)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			fmt.Println("=== Umbra Benchmark ===")
			fmt.Printf("Grid:     %s (%d points)\n", source, len(grid))
			fmt.Printf("Samples:  %d\n", samples)
			fmt.Printf("CPUs:     %d\n", runtime.NumCPU())
			fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
			fmt.Printf("Warmup:   %d runs\n", warmupRuns)
			fmt.Printf("Runs:     %d\n", benchRuns)
			fmt.Println()

			for i := range int(warmupRuns) {
				log.Debug("warmup run", "run", i+1)
				if _, err := transit.EvaluateSlice(serialEv, grid, z, ratio); err != nil {
					return cli.Exit(fmt.Sprintf("error: warmup run %d: %v", i+1, err), 1)
				}
				if _, err := transit.EvaluateSlice(parallelEv, grid, z, ratio); err != nil {
					return cli.Exit(fmt.Sprintf("error: warmup run %d: %v", i+1, err), 1)
				}
			}

			type runResult struct {
				Serial   time.Duration
				Parallel time.Duration
			}
			results := make([]runResult, 0, benchRuns)
			var checksum float64

			for i := range int(benchRuns) {
				log.Debug("benchmark run", "run", i+1)

				serialStart := time.Now()
				serialDelta, err := transit.EvaluateSlice(serialEv, grid, z, ratio)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: serial run %d: %v", i+1, err), 1)
				}
				serialDur := time.Since(serialStart)

				parallelStart := time.Now()
				parallelDelta, err := transit.EvaluateSlice(parallelEv, grid, z, ratio)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: parallel run %d: %v", i+1, err), 1)
				}
				parallelDur := time.Since(parallelStart)

				if !bitIdentical(serialDelta, parallelDelta) {
					return cli.Exit("error: serial and parallel outputs differ", 1)
				}
				checksum = floats.Sum(serialDelta)
				results = append(results, runResult{Serial: serialDur, Parallel: parallelDur})
			}

			fmt.Println("=== Results ===")
			fmt.Printf("%-6s %14s %14s %10s\n", "Run", "Serial", "Parallel", "Speedup")
			var sumSerial, sumParallel time.Duration
			for i, r := range results {
				fmt.Printf("%-6d %14s %14s %9.2fx\n", i+1,
					r.Serial.Round(time.Microsecond), r.Parallel.Round(time.Microsecond),
					float64(r.Serial)/float64(r.Parallel))
				sumSerial += r.Serial
				sumParallel += r.Parallel
			}
			n := time.Duration(len(results))
			fmt.Printf("\n%-6s %14s %14s %9.2fx\n", "Avg",
				(sumSerial / n).Round(time.Microsecond), (sumParallel / n).Round(time.Microsecond),
				float64(sumSerial)/float64(sumParallel))
			fmt.Printf("\nChecksum: %g\n", checksum)

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			fmt.Printf("Memory:   %.1f MB alloc, %.1f MB sys\n",
				float64(mem.Alloc)/(1024*1024),
				float64(mem.Sys)/(1024*1024))

			if dbPath == "" {
				return nil
			}
			evals, err := evalog.Open(dbPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open log: %v", err), 1)
			}
			defer func() { _ = evals.Close() }()
			for _, r := range results {
				runs := []evalog.Run{
					{Strategy: backend.Serial, Elapsed: r.Serial},
					{Strategy: backend.Parallel, Elapsed: r.Parallel},
				}
				for _, run := range runs {
					run.Precision = backend.Float64
					run.BatchSize = int(samples)
					run.GridSize = len(grid)
					run.Checksum = checksum
					if err := evals.Record(ctx, run); err != nil {
						return cli.Exit(fmt.Sprintf("error: record run: %v", err), 1)
					}
				}
			}
			log.Info("recorded runs", "db", dbPath, "rows", 2*len(results))
			return nil
		},
	}
}

func bitIdentical(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}
