// Package stress runs visibility scenarios and micro-benchmarks against
// barrier functions. It is shared by the package tests and cmd/membarrier.
package stress

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"

	"github.com/ehrlich-b/go-membarrier/internal/constants"
)

// Result summarizes one visibility run.
type Result struct {
	Repetitions int
	Violations  int
	Elapsed     time.Duration
}

// cell is the shared state of a visibility run. Each field sits on its own
// cache line so the writer and reader do not false-share.
type cell struct {
	x     uint64
	_     cpu.CacheLinePad
	round atomic.Uint64
	_     cpu.CacheLinePad
	ack   atomic.Uint64
	_     cpu.CacheLinePad
}

// Visibility runs reps rounds of the publish/observe scenario on two
// goroutines locked to distinct OS threads. In round i the writer stores
// x = i, calls publish, and announces the round; the reader waits for the
// announcement, calls observe, and reads x. A read other than i counts as a
// violation.
func Visibility(ctx context.Context, publish, observe func(), reps int) (Result, error) {
	c := &cell{}
	var violations int
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		for i := uint64(1); i <= uint64(reps); i++ {
			c.x = i
			publish()
			c.round.Store(i)
			if err := spinUntil(ctx, func() bool { return c.ack.Load() >= i }); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		for i := uint64(1); i <= uint64(reps); i++ {
			if err := spinUntil(ctx, func() bool { return c.round.Load() >= i }); err != nil {
				return err
			}
			observe()
			if c.x != i {
				violations++
			}
			c.ack.Store(i)
		}
		return nil
	})

	err := g.Wait()
	return Result{Repetitions: reps, Violations: violations, Elapsed: time.Since(start)}, err
}

// spinUntil busy-waits for cond, yielding every SpinYieldThreshold
// iterations and checking ctx when it does.
func spinUntil(ctx context.Context, cond func() bool) error {
	for spins := 0; !cond(); spins++ {
		if spins < constants.SpinYieldThreshold {
			continue
		}
		spins = 0
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// BenchResult summarizes one benchmark path.
type BenchResult struct {
	Name       string
	Workers    int
	Iterations int
	Elapsed    time.Duration
}

// NsPerOp is the wall time per call on a single worker.
func (r BenchResult) NsPerOp() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Elapsed.Nanoseconds()) / float64(r.Iterations)
}

// worker counts completed calls on its own cache line.
type worker struct {
	done int
	_    cpu.CacheLinePad
}

// Bench calls fn iterations times on each of workers goroutines and reports
// the wall time. ctx is checked every 1024 calls.
func Bench(ctx context.Context, name string, fn func(), iterations, workers int) (BenchResult, error) {
	if workers < 1 {
		workers = 1
	}
	counters := make([]worker, workers)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for w := range counters {
		w := w
		g.Go(func() error {
			for i := 0; i < iterations; i++ {
				if i&1023 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				fn()
				counters[w].done++
			}
			return nil
		})
	}
	err := g.Wait()

	res := BenchResult{Name: name, Workers: workers, Elapsed: time.Since(start)}
	for _, c := range counters {
		res.Iterations += c.done
	}
	res.Iterations /= workers
	return res, err
}
