package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/umbra-photometry/umbra/internal/backend"
	"github.com/umbra-photometry/umbra/internal/batchio"
	"github.com/umbra-photometry/umbra/pkg/gridfile"
	"github.com/umbra-photometry/umbra/pkg/transit"
)

func evalCmd() *cli.Command {
	var (
		batchPath string
		outPath   string
	)

	flags := append([]cli.Flag{}, gridSourceFlags()...)
	flags = append(flags, evalFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "batch",
			Aliases:     []string{"b"},
			Usage:       "path to the batch JSON file ({\"z\": [...], \"r\": [...]})",
			Destination: &batchPath,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "write the result document here instead of stdout",
			Destination: &outPath,
		},
	)

	return &cli.Command{
		Name:  "eval",
		Usage: "Evaluate a batch of (z, r) samples against a model grid",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyLogConfig(cmd, cfg)
			applyEvalConfig(cmd, cfg)
			log := newLog()

			if batchPath == "" {
				return cli.Exit("error: --batch is required", 1)
			}
			grid, source, err := loadGridValues()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load grid: %v", err), 1)
			}
			batch, err := batchio.ReadBatchFile(batchPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load batch: %v", err), 1)
			}

			name, err := backend.Normalize(strategy)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			prec, err := backend.NormalizePrecision(precision)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if err := transit.ValidateBatch(len(grid), len(batch.Z), len(batch.R)); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			resolved := backend.Resolve(name, len(batch.Z))

			log.Debug("evaluating batch",
				"grid", source, "points", len(grid),
				"n", len(batch.Z), "strategy", resolved, "precision", prec)

			started := time.Now()
			var delta []float64
			switch prec {
			case backend.Float32:
				delta, err = runFloat32(resolved, grid, batch.Z, batch.R)
			default:
				delta, err = runFloat64(resolved, grid, batch.Z, batch.R)
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: evaluate: %v", err), 1)
			}
			elapsed := time.Since(started)

			res := batchio.Result{
				N:         len(delta),
				Strategy:  resolved,
				Precision: prec,
				ElapsedUS: elapsed.Microseconds(),
				Delta:     delta,
			}
			if outPath != "" {
				if err := batchio.WriteResultFile(outPath, res); err != nil {
					return cli.Exit(fmt.Sprintf("error: write result: %v", err), 1)
				}
				log.Info("wrote result", "path", outPath, "n", res.N,
					"elapsed", elapsed.Round(time.Microsecond))
				return nil
			}
			return batchio.EncodeResult(os.Stdout, res)
		},
	}
}

// loadGridValues resolves the model grid from --grid or --grid-json.
func loadGridValues() ([]float64, string, error) {
	switch {
	case gridPath != "" && gridJSON != "":
		return nil, "", fmt.Errorf("--grid and --grid-json are mutually exclusive")
	case gridPath != "":
		r, err := gridfile.Open(gridPath)
		if err != nil {
			return nil, "", err
		}
		defer func() { _ = r.Close() }()
		return r.Float64(), gridPath, nil
	case gridJSON != "":
		values, err := batchio.ReadGridFile(gridJSON)
		if err != nil {
			return nil, "", err
		}
		return values, gridJSON, nil
	default:
		return nil, "", fmt.Errorf("one of --grid or --grid-json is required")
	}
}

func runFloat64(strategy string, grid, z, r []float64) ([]float64, error) {
	ev, err := transit.New[float64](strategy, 0)
	if err != nil {
		return nil, err
	}
	return transit.EvaluateSlice(ev, grid, z, r)
}

// runFloat32 narrows the inputs, evaluates in single precision, and widens
// the result so callers keep a single output type.
func runFloat32(strategy string, grid, z, r []float64) ([]float64, error) {
	ev, err := transit.New[float32](strategy, 0)
	if err != nil {
		return nil, err
	}
	delta32, err := transit.EvaluateSlice(ev, narrow(grid), narrow(z), narrow(r))
	if err != nil {
		return nil, err
	}
	delta := make([]float64, len(delta32))
	for i, v := range delta32 {
		delta[i] = float64(v)
	}
	return delta, nil
}

func narrow(xs []float64) []float32 {
	out := make([]float32, len(xs))
	for i, v := range xs {
		out[i] = float32(v)
	}
	return out
}
