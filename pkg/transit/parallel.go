package transit

import "runtime"

type poolTask struct {
	run  func()
	done chan struct{}
}

type workerPool struct {
	size  int
	tasks chan poolTask
}

func newWorkerPool() *workerPool {
	size := runtime.GOMAXPROCS(0)
	if size < 1 {
		size = 1
	}
	p := &workerPool{
		size:  size,
		tasks: make(chan poolTask, size*2),
	}
	for w := 0; w < size; w++ {
		go func() {
			for task := range p.tasks {
				task.run()
				task.done <- struct{}{}
			}
		}()
	}
	return p
}

var evalPool = newWorkerPool()

// Parallel evaluates batches across a fixed pool of worker goroutines,
// splitting the index space into contiguous ranges. Every element runs the
// same scalar kernel as Serial, so the output is bit-identical to a serial
// evaluation of the same batch. Concurrent Evaluate calls share the pool
// safely.
type Parallel[T Float] struct {
	// Workers caps the pool workers used per call. Zero means one per
	// available CPU.
	Workers int
}

func (p Parallel[T]) Evaluate(grid, z, r, delta []T) {
	n := len(z)
	if n == 0 {
		return
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers > evalPool.size {
		workers = evalPool.size
	}
	if workers <= 1 {
		evaluateRange(grid, z, r, delta, 0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	// Buffered one slot per task: completion sends never block the
	// shared workers, whatever the callers are doing.
	done := make(chan struct{}, workers)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		evalPool.tasks <- poolTask{
			run:  func() { evaluateRange(grid, z, r, delta, lo, hi) },
			done: done,
		}
	}
	for i := 0; i < workers; i++ {
		<-done
	}
}
