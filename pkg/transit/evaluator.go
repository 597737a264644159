package transit

import (
	"github.com/umbra-photometry/umbra/internal/backend"
)

// Evaluator applies the grid interpolator across a batch of samples.
//
// Evaluate writes ComputeDelta(grid, z[i], r[i]) into delta[i] for every
// index. Iterations are independent, so implementations may order or
// partition them freely; all implementations produce bit-identical output
// for identical input. Evaluate assumes len(z) == len(r) == len(delta) and
// len(grid) >= 1; callers apply ValidateBatch first.
type Evaluator[T Float] interface {
	Evaluate(grid, z, r, delta []T)
}

// Serial evaluates the batch on the calling goroutine.
type Serial[T Float] struct{}

func (Serial[T]) Evaluate(grid, z, r, delta []T) {
	evaluateRange(grid, z, r, delta, 0, len(z))
}

// auto defers the serial/parallel choice to the batch size at call time.
type auto[T Float] struct {
	parallel Parallel[T]
}

func (a auto[T]) Evaluate(grid, z, r, delta []T) {
	if backend.Resolve(backend.Auto, len(z)) == backend.Parallel {
		a.parallel.Evaluate(grid, z, r, delta)
		return
	}
	Serial[T]{}.Evaluate(grid, z, r, delta)
}

// New returns the evaluator for a normalized strategy name. workers caps
// pool usage for the parallel strategies; zero means one worker per
// available CPU.
func New[T Float](strategy string, workers int) (Evaluator[T], error) {
	name, err := backend.Normalize(strategy)
	if err != nil {
		return nil, err
	}
	switch name {
	case backend.Serial:
		return Serial[T]{}, nil
	case backend.Parallel:
		return Parallel[T]{Workers: workers}, nil
	default:
		return auto[T]{parallel: Parallel[T]{Workers: workers}}, nil
	}
}

// EvaluateSlice bundles the batch contract check with evaluation for
// callers that want an allocated result. Evaluate alone assumes the
// lengths ValidateBatch enforces.
func EvaluateSlice[T Float](ev Evaluator[T], grid, z, r []T) ([]T, error) {
	if err := ValidateBatch(len(grid), len(z), len(r)); err != nil {
		return nil, err
	}
	delta := make([]T, len(z))
	ev.Evaluate(grid, z, r, delta)
	return delta, nil
}
