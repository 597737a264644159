// Package evalog persists evaluation runs in a SQLite database so that
// bench and serve invocations can be compared after the fact.
package evalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Log is an open evaluation log.
type Log struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Log{db: db}, nil
}

func (l *Log) Close() error { return l.db.Close() }

// Run is one recorded evaluation.
type Run struct {
	ID        string
	StartedAt time.Time
	Strategy  string
	Precision string
	BatchSize int
	GridSize  int
	Elapsed   time.Duration
	Checksum  float64
}

// Record inserts one run. A missing ID or start time is filled in.
func (l *Log) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = "run_" + uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at_ns, strategy, precision, batch_size, grid_size, elapsed_us, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.Strategy, run.Precision,
		run.BatchSize, run.GridSize, run.Elapsed.Microseconds(), run.Checksum,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// StrategySummary aggregates elapsed_us over the runs of one strategy.
type StrategySummary struct {
	Strategy string
	Count    int
	MeanUS   float64
	P50US    float64
	P95US    float64
	P99US    float64
}

// Summary holds per-strategy aggregates, ordered by strategy name.
type Summary struct {
	Total      int
	Strategies []StrategySummary
}

// Summary reads every recorded run and aggregates timings per strategy.
func (l *Log) Summary(ctx context.Context) (Summary, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT strategy, elapsed_us FROM runs`)
	if err != nil {
		return Summary{}, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	samples := make(map[string][]float64)
	total := 0
	for rows.Next() {
		var strategy string
		var elapsed int64
		if err := rows.Scan(&strategy, &elapsed); err != nil {
			return Summary{}, fmt.Errorf("scan run: %w", err)
		}
		samples[strategy] = append(samples[strategy], float64(elapsed))
		total++
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	out := Summary{Total: total}
	for _, name := range names {
		xs := samples[name]
		sort.Float64s(xs)
		out.Strategies = append(out.Strategies, StrategySummary{
			Strategy: name,
			Count:    len(xs),
			MeanUS:   stat.Mean(xs, nil),
			P50US:    stat.Quantile(0.50, stat.Empirical, xs, nil),
			P95US:    stat.Quantile(0.95, stat.Empirical, xs, nil),
			P99US:    stat.Quantile(0.99, stat.Empirical, xs, nil),
		})
	}
	return out, nil
}
