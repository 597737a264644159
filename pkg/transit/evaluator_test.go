package transit

import (
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"
)

// randomBatch draws separations across the full transit range, including a
// tail beyond contact, and radius ratios up to 0.5.
func randomBatch[T Float](seed int64, n int) (z, r []T) {
	rng := rand.New(rand.NewSource(seed))
	z = make([]T, n)
	r = make([]T, n)
	for i := range n {
		z[i] = T(rng.Float64() * 2.2)
		r[i] = T(rng.Float64() * 0.5)
	}
	return z, r
}

func TestSerialParallelIdentical(t *testing.T) {
	t.Parallel()
	t.Run("float64", func(t *testing.T) { testSerialParallelIdentical[float64](t) })
	t.Run("float32", func(t *testing.T) { testSerialParallelIdentical[float32](t) })
}

func testSerialParallelIdentical[T Float](t *testing.T) {
	t.Helper()
	grid := referenceGrid[T]()
	z, r := randomBatch[T](7, 10000)

	serial := make([]T, len(z))
	Serial[T]{}.Evaluate(grid, z, r, serial)

	for _, workers := range []int{0, 1, 3} {
		parallel := make([]T, len(z))
		Parallel[T]{Workers: workers}.Evaluate(grid, z, r, parallel)
		for i := range serial {
			if parallel[i] != serial[i] {
				t.Fatalf("workers=%d: delta[%d] parallel %v serial %v", workers, i, parallel[i], serial[i])
			}
		}
	}
}

func TestParallelConcurrentCallers(t *testing.T) {
	t.Parallel()

	grid := referenceGrid[float64]()
	callers := runtime.GOMAXPROCS(0)
	if callers < 4 {
		callers = 4
	}

	// Small batches from many simultaneous callers keep the shared pool
	// queue and the completion channels contended.
	var wg sync.WaitGroup
	for c := range callers {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			z, r := randomBatch[float64](seed, 16)
			want := make([]float64, len(z))
			Serial[float64]{}.Evaluate(grid, z, r, want)
			got := make([]float64, len(z))
			for range 2000 {
				Parallel[float64]{}.Evaluate(grid, z, r, got)
				for i := range want {
					if got[i] != want[i] {
						t.Errorf("seed %d: delta[%d] got %v want %v", seed, i, got[i], want[i])
						return
					}
				}
			}
		}(int64(c) + 41)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(30 * time.Second):
		t.Fatal("concurrent parallel evaluations stalled")
	}
}

func TestEvaluateRepeatable(t *testing.T) {
	t.Parallel()

	grid := referenceGrid[float64]()
	z, r := randomBatch[float64](11, 4097)

	first := make([]float64, len(z))
	Parallel[float64]{}.Evaluate(grid, z, r, first)
	for range 5 {
		again := make([]float64, len(z))
		Parallel[float64]{}.Evaluate(grid, z, r, again)
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("delta[%d] drifted across runs: %v then %v", i, first[i], again[i])
			}
		}
	}
}

func TestEvaluatePermutationIndependence(t *testing.T) {
	t.Parallel()

	grid := referenceGrid[float64]()
	z, r := randomBatch[float64](13, 512)

	base := make([]float64, len(z))
	Serial[float64]{}.Evaluate(grid, z, r, base)

	perm := rand.New(rand.NewSource(17)).Perm(len(z))
	zp := make([]float64, len(z))
	rp := make([]float64, len(z))
	for i, j := range perm {
		zp[i] = z[j]
		rp[i] = r[j]
	}

	permuted := make([]float64, len(z))
	Parallel[float64]{}.Evaluate(grid, zp, rp, permuted)
	for i, j := range perm {
		if permuted[i] != base[j] {
			t.Fatalf("sample moved from %d to %d changed: %v want %v", j, i, permuted[i], base[j])
		}
	}
}

func TestEvaluateSliceShape(t *testing.T) {
	t.Parallel()

	grid := referenceGrid[float64]()
	for _, n := range []int{0, 1, 5, 4096} {
		z, r := randomBatch[float64](int64(n)+1, n)
		delta, err := EvaluateSlice[float64](Serial[float64]{}, grid, z, r)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(delta) != n {
			t.Fatalf("n=%d: output length %d", n, len(delta))
		}
	}
}

func TestEvaluateSliceRejectsLengthMismatch(t *testing.T) {
	t.Parallel()

	grid := referenceGrid[float64]()
	z := []float64{0.1, 0.2, 0.3}
	r := []float64{0.1, 0.2}

	_, err := EvaluateSlice[float64](Serial[float64]{}, grid, z, r)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("got %v want ErrLengthMismatch", err)
	}
}

func TestEvaluateSliceRejectsEmptyGrid(t *testing.T) {
	t.Parallel()

	z, r := randomBatch[float64](3, 8)
	_, err := EvaluateSlice[float64](Serial[float64]{}, nil, z, r)
	if !errors.Is(err, ErrEmptyGrid) {
		t.Fatalf("got %v want ErrEmptyGrid", err)
	}
}

func TestValidateBatchIndexCeiling(t *testing.T) {
	t.Parallel()

	over := int(math.MaxInt32) + 1
	if err := ValidateBatch(4, over, over); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("got %v want ErrBatchTooLarge", err)
	}
	if err := ValidateBatch(4, math.MaxInt32, math.MaxInt32); err != nil {
		t.Fatalf("ceiling batch rejected: %v", err)
	}
}

func TestNewStrategies(t *testing.T) {
	t.Parallel()

	grid := referenceGrid[float64]()
	z, r := randomBatch[float64](29, 6000)
	want := make([]float64, len(z))
	Serial[float64]{}.Evaluate(grid, z, r, want)

	for _, name := range []string{"", "auto", "serial", "parallel", " Parallel "} {
		ev, err := New[float64](name, 0)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		got := make([]float64, len(z))
		ev.Evaluate(grid, z, r, got)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("strategy %q: delta[%d] got %v want %v", name, i, got[i], want[i])
			}
		}
	}

	if _, err := New[float64]("vectorized", 0); err == nil {
		t.Fatal("unknown strategy accepted")
	}
}

func TestSerialNoAllocs(t *testing.T) {
	grid := referenceGrid[float64]()
	z, r := randomBatch[float64](31, 256)
	delta := make([]float64, len(z))

	allocs := testing.AllocsPerRun(100, func() {
		Serial[float64]{}.Evaluate(grid, z, r, delta)
	})
	if allocs != 0 {
		t.Fatalf("unexpected allocs: %v", allocs)
	}
}

func BenchmarkEvaluateSerial(b *testing.B) {
	grid := referenceGrid[float64]()
	z, r := randomBatch[float64](1, 1<<20)
	delta := make([]float64, len(z))

	for b.Loop() {
		Serial[float64]{}.Evaluate(grid, z, r, delta)
	}
}

func BenchmarkEvaluateParallel(b *testing.B) {
	grid := referenceGrid[float64]()
	z, r := randomBatch[float64](1, 1<<20)
	delta := make([]float64, len(z))

	for b.Loop() {
		Parallel[float64]{}.Evaluate(grid, z, r, delta)
	}
}

func BenchmarkEvaluateParallelFloat32(b *testing.B) {
	grid := referenceGrid[float32]()
	z, r := randomBatch[float32](1, 1<<20)
	delta := make([]float32, len(z))

	for b.Loop() {
		Parallel[float32]{}.Evaluate(grid, z, r, delta)
	}
}
