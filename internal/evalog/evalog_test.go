package evalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordFillsDefaults(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Run{
		Strategy:  "serial",
		Precision: "float64",
		BatchSize: 1000,
		GridSize:  501,
		Elapsed:   250 * time.Microsecond,
		Checksum:  1.25,
	}))

	s, err := l.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, s.Total)
	require.Len(t, s.Strategies, 1)
	require.Equal(t, "serial", s.Strategies[0].Strategy)
	require.Equal(t, 1, s.Strategies[0].Count)
	require.InDelta(t, 250, s.Strategies[0].MeanUS, 1e-9)
}

func TestSummaryPercentiles(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		require.NoError(t, l.Record(ctx, Run{
			Strategy:  "serial",
			Precision: "float64",
			BatchSize: 1 << 10,
			GridSize:  501,
			Elapsed:   time.Duration(i*100) * time.Microsecond,
		}))
	}
	for _, us := range []int{10, 20} {
		require.NoError(t, l.Record(ctx, Run{
			Strategy:  "parallel",
			Precision: "float64",
			BatchSize: 1 << 10,
			GridSize:  501,
			Elapsed:   time.Duration(us) * time.Microsecond,
		}))
	}

	s, err := l.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 12, s.Total)
	require.Len(t, s.Strategies, 2)

	// Ordered by strategy name.
	par, ser := s.Strategies[0], s.Strategies[1]
	require.Equal(t, "parallel", par.Strategy)
	require.Equal(t, "serial", ser.Strategy)

	require.Equal(t, 10, ser.Count)
	require.InDelta(t, 550, ser.MeanUS, 1e-9)
	require.InDelta(t, 500, ser.P50US, 1e-9)
	require.InDelta(t, 1000, ser.P95US, 1e-9)
	require.InDelta(t, 1000, ser.P99US, 1e-9)

	require.Equal(t, 2, par.Count)
	require.InDelta(t, 15, par.MeanUS, 1e-9)
}

func TestSummaryEmpty(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	s, err := l.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, s.Total)
	require.Empty(t, s.Strategies)
}

func TestReopenKeepsRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(ctx, Run{Strategy: "auto", Precision: "float32", Elapsed: time.Millisecond}))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()

	s, err := l.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, s.Total)
}

func TestRecordKeepsExplicitID(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	ctx := context.Background()

	run := Run{ID: "run_fixed", Strategy: "serial", Precision: "float64", Elapsed: time.Microsecond}
	require.NoError(t, l.Record(ctx, run))
	// Primary key collision surfaces as an error.
	require.Error(t, l.Record(ctx, run))
}
