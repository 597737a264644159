package main

import (
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/umbra-photometry/umbra/internal/priors"
)

func sampleCmd() *cli.Command {
	var (
		kind      string
		n         int64
		seed      int64
		minRadius float64
		maxRadius float64
		dim       int64
	)

	flags := append([]cli.Flag{}, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "kind",
			Aliases:     []string{"k"},
			Usage:       "prior to draw from (radius-impact, quadratic-ld, angle, unit-vector)",
			Value:       "radius-impact",
			Destination: &kind,
		},
		&cli.Int64Flag{
			Name:        "n",
			Usage:       "number of draws",
			Value:       10,
			Destination: &n,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "RNG seed",
			Value:       42,
			Destination: &seed,
		},
		&cli.Float64Flag{
			Name:        "rmin",
			Usage:       "minimum radius ratio (radius-impact)",
			Value:       priors.DefaultMinRadius,
			Destination: &minRadius,
		},
		&cli.Float64Flag{
			Name:        "rmax",
			Usage:       "maximum radius ratio (radius-impact)",
			Value:       priors.DefaultMaxRadius,
			Destination: &maxRadius,
		},
		&cli.Int64Flag{
			Name:        "dim",
			Usage:       "vector dimension (unit-vector)",
			Value:       3,
			Destination: &dim,
		},
	)

	return &cli.Command{
		Name:  "sample",
		Usage: "Draw from the physical priors and emit JSON lines",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyLogConfig(cmd, cfg)

			if n < 1 {
				return cli.Exit("error: --n must be at least 1", 1)
			}
			rng := priors.NewRNG(uint64(seed))
			enc := json.NewEncoder(os.Stdout)

			switch kind {
			case "radius-impact":
				dist := priors.RadiusImpact{MinRadius: minRadius, MaxRadius: maxRadius}
				for range n {
					r, b := dist.Sample(rng)
					if err := enc.Encode(radiusImpactDraw{R: r, B: b}); err != nil {
						return err
					}
				}
			case "quadratic-ld":
				var dist priors.Kipping13
				for range n {
					u1, u2 := dist.Sample(rng)
					if err := enc.Encode(limbDarkDraw{U1: u1, U2: u2}); err != nil {
						return err
					}
				}
			case "angle":
				var dist priors.Angle
				for range n {
					if err := enc.Encode(angleDraw{Theta: dist.Sample(rng)}); err != nil {
						return err
					}
				}
			case "unit-vector":
				dist := priors.UnitVector{Dim: int(dim)}
				for range n {
					if err := enc.Encode(unitVectorDraw{V: dist.Sample(rng)}); err != nil {
						return err
					}
				}
			default:
				return cli.Exit(fmt.Sprintf("error: unknown kind %q (expected radius-impact, quadratic-ld, angle, or unit-vector)", kind), 1)
			}
			return nil
		},
	}
}

type radiusImpactDraw struct {
	R float64 `json:"r"`
	B float64 `json:"b"`
}

type limbDarkDraw struct {
	U1 float64 `json:"u1"`
	U2 float64 `json:"u2"`
}

type angleDraw struct {
	Theta float64 `json:"theta"`
}

type unitVectorDraw struct {
	V []float64 `json:"v"`
}
