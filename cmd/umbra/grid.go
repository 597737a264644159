package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/umbra-photometry/umbra/internal/limbdark"
	"github.com/umbra-photometry/umbra/pkg/gridfile"
)

func gridCmd() *cli.Command {
	return &cli.Command{
		Name:  "grid",
		Usage: "Make, inspect, and plot model grids",
		Commands: []*cli.Command{
			gridMakeCmd(),
			gridInspectCmd(),
			gridPlotCmd(),
		},
	}
}

func gridMakeCmd() *cli.Command {
	var (
		profileName string
		u1, u2      float64
		q1, q2      float64
		points      int64
		refRatio    float64
		elemName    string
		outPath     string
		gridName    string
	)

	flags := append([]cli.Flag{}, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "limb-darkening law (uniform, quadratic)",
			Value:       "quadratic",
			Destination: &profileName,
		},
		&cli.Float64Flag{
			Name:        "u1",
			Usage:       "quadratic limb-darkening coefficient u1",
			Value:       0.4,
			Destination: &u1,
		},
		&cli.Float64Flag{
			Name:        "u2",
			Usage:       "quadratic limb-darkening coefficient u2",
			Value:       0.26,
			Destination: &u2,
		},
		&cli.Float64Flag{
			Name:        "q1",
			Usage:       "Kipping q1 (with --q2, overrides --u1/--u2)",
			Destination: &q1,
		},
		&cli.Float64Flag{
			Name:        "q2",
			Usage:       "Kipping q2",
			Destination: &q2,
		},
		&cli.Int64Flag{
			Name:        "points",
			Aliases:     []string{"n"},
			Usage:       "number of grid samples",
			Value:       1001,
			Destination: &points,
		},
		&cli.Float64Flag{
			Name:        "ref",
			Usage:       "reference radius ratio the profile is normalized at",
			Value:       limbdark.DefaultRefRatio,
			Destination: &refRatio,
		},
		&cli.StringFlag{
			Name:        "elem",
			Usage:       "payload element type (float32, float64)",
			Value:       "float64",
			Destination: &elemName,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output .utg path",
			Destination: &outPath,
		},
		&cli.StringFlag{
			Name:        "name",
			Usage:       "grid name recorded in the JSON sidecar",
			Destination: &gridName,
		},
	)

	return &cli.Command{
		Name:  "make",
		Usage: "Synthesize a limb-darkening grid and write a UTG file",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyLogConfig(cmd, cfg)
			log := newLog()

			if outPath == "" {
				return cli.Exit("error: --out is required", 1)
			}
			profile, ok := gridfile.ParseProfile(profileName)
			if !ok {
				return cli.Exit(fmt.Sprintf("error: unknown profile %q (expected uniform or quadratic)", profileName), 1)
			}
			elem, err := parseElem(elemName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if refRatio == 0 {
				refRatio = limbdark.DefaultRefRatio
			}
			if cmd.IsSet("q1") || cmd.IsSet("q2") {
				u1, u2 = limbdark.Kipping(q1, q2)
				log.Debug("converted Kipping parameters", "q1", q1, "q2", q2, "u1", u1, "u2", u2)
			}
			if profile == gridfile.ProfileUniform {
				u1, u2 = 0, 0
			}

			values, err := limbdark.Synthesize(profile, u1, u2, refRatio, int(points))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: synthesize: %v", err), 1)
			}

			g := gridfile.Grid{
				Profile:  profile,
				Elem:     elem,
				RefRatio: refRatio,
				U1:       u1,
				U2:       u2,
				Values:   values,
			}
			if err := gridfile.Write(outPath, g); err != nil {
				return cli.Exit(fmt.Sprintf("error: write grid: %v", err), 1)
			}
			meta := gridfile.Meta{
				Name:      gridName,
				CreatedAt: time.Now().UTC(),
				Profile:   profile.String(),
				Points:    len(values),
				RefRatio:  refRatio,
				U1:        u1,
				U2:        u2,
			}
			if err := gridfile.WriteMeta(outPath, meta); err != nil {
				return cli.Exit(fmt.Sprintf("error: write sidecar: %v", err), 1)
			}
			log.Info("wrote grid", "path", outPath, "points", len(values),
				"profile", profile.String(), "elem", elem.String())
			return nil
		},
	}
}

func gridInspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print UTG header fields and payload stats",
		ArgsUsage: "<grid.utg>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: usage: umbra grid inspect <grid.utg>", 1)
			}
			r, err := gridfile.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open grid: %v", err), 1)
			}
			defer func() { _ = r.Close() }()

			h := r.Header
			section("UTG Header")
			row("path", path)
			row("version", fmt.Sprintf("%d.%d", h.Major, h.Minor))
			row("element", h.Elem.String())
			row("profile", h.Profile.String())
			rowInt("points", int(h.GridLen))
			rowFloat("ref ratio", h.RefRatio)
			rowFloat("u1", h.U1)
			rowFloat("u2", h.U2)
			row("payload", fmt.Sprintf("%d bytes at offset %d", h.PayloadSize, h.PayloadOffset))

			values := r.Float64()
			section("Payload")
			rowInt("samples", len(values))
			if len(values) > 0 {
				row("first", fmt.Sprintf("%g", values[0]))
				row("last", fmt.Sprintf("%g", values[len(values)-1]))
				row("min", fmt.Sprintf("%g", floats.Min(values)))
				row("max", fmt.Sprintf("%g", floats.Max(values)))
				row("mean", fmt.Sprintf("%g", stat.Mean(values, nil)))
				row("non-increasing", fmt.Sprintf("%t", nonIncreasing(values)))
			}

			if meta, err := gridfile.ReadMeta(path); err == nil {
				section("Sidecar")
				row("name", meta.Name)
				if !meta.CreatedAt.IsZero() {
					row("created", meta.CreatedAt.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}

func gridPlotCmd() *cli.Command {
	var outPath string

	return &cli.Command{
		Name:      "plot",
		Usage:     "Render a grid profile to an HTML line chart",
		ArgsUsage: "<grid.utg>",
		Flags: append(loggingFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output HTML path (default: grid path with .html)",
				Destination: &outPath,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := LoadConfig()
			applyLogConfig(cmd, cfg)
			log := newLog()

			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("error: usage: umbra grid plot <grid.utg> [-o grid.html]", 1)
			}
			if outPath == "" {
				outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
			}
			r, err := gridfile.Open(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open grid: %v", err), 1)
			}
			defer func() { _ = r.Close() }()

			h := r.Header
			values := r.Float64()
			if len(values) < 2 {
				return cli.Exit("error: grid has fewer than two samples", 1)
			}

			line := charts.NewLine()
			line.SetGlobalOptions(
				charts.WithInitializationOpts(opts.Initialization{Width: "1200px", Height: "600px"}),
				charts.WithTitleOpts(opts.Title{
					Title:    "Transit profile P(x)",
					Subtitle: fmt.Sprintf("profile=%s points=%d ref=%g u1=%g u2=%g", h.Profile, len(values), h.RefRatio, h.U1, h.U2),
				}),
				charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
				charts.WithXAxisOpts(opts.XAxis{Name: "x"}),
				charts.WithYAxisOpts(opts.YAxis{Name: "P(x)"}),
			)

			xs := make([]string, len(values))
			data := make([]opts.LineData, len(values))
			denom := float64(len(values) - 1)
			for i, v := range values {
				xs[i] = strconv.FormatFloat(float64(i)/denom, 'f', 4, 64)
				data[i] = opts.LineData{Value: v}
			}
			line.SetXAxis(xs).
				AddSeries("P", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

			f, err := os.Create(outPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: create %q: %v", outPath, err), 1)
			}
			if err := line.Render(f); err != nil {
				_ = f.Close()
				return cli.Exit(fmt.Sprintf("error: render chart: %v", err), 1)
			}
			if err := f.Close(); err != nil {
				return cli.Exit(fmt.Sprintf("error: close %q: %v", outPath, err), 1)
			}
			log.Info("wrote chart", "path", outPath, "points", len(values))
			return nil
		},
	}
}

func parseElem(name string) (gridfile.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "float64", "f64":
		return gridfile.KindFloat64, nil
	case "float32", "f32":
		return gridfile.KindFloat32, nil
	default:
		return 0, fmt.Errorf("unknown element type %q (expected float32 or float64)", name)
	}
}

func nonIncreasing(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			return false
		}
	}
	return true
}

func section(title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-24s %s\n", label+":", value)
}

func rowInt(label string, v int) {
	if v == 0 {
		return
	}
	row(label, fmt.Sprintf("%d", v))
}

func rowFloat(label string, v float64) {
	if v == 0 {
		return
	}
	row(label, fmt.Sprintf("%g", v))
}
