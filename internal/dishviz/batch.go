package dishviz

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Policy decides what a failing item does to the rest of its batch.
type Policy uint8

const (
	FailFast        Policy = iota // first error aborts the batch and is returned
	IsolateFailures               // failing items are reported and dropped, the rest continue
)

// BatchOptions configures RunParallel. Callbacks may be invoked concurrently.
type BatchOptions struct {
	Policy    Policy
	Workers   int                        // <= 0 means runtime.NumCPU()
	Progress  func(done, total int)      // called after every finished item
	OnFailure func(index int, err error) // IsolateFailures only
}

func workerCount(requested, items int) int {
	workers := requested
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if workers > items {
		workers = items
	}
	return workers
}

// RunParallel applies fn to every item on a bounded pool and returns the results in
// input order. Under IsolateFailures the failed items are left out of the result.
func RunParallel[In, Out any](ctx context.Context, items []In, fn func(context.Context, In) (Out, error), opts BatchOptions) ([]Out, error) {
	total := len(items)
	if total == 0 {
		return nil, nil
	}
	workers := workerCount(opts.Workers, total)
	DebugLogOnce("Launching %d workers for %d items", workers, total)

	results := make([]Out, total)
	ok := make([]bool, total)

	var (
		g    *errgroup.Group
		gctx = ctx
	)
	if opts.Policy == FailFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = &errgroup.Group{}
	}
	g.SetLimit(workers)

	var done int64
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := fn(gctx, item)
			if opts.Progress != nil {
				opts.Progress(int(atomic.AddInt64(&done, 1)), total)
			}
			if err != nil {
				if opts.Policy == FailFast {
					return err
				}
				if opts.OnFailure != nil {
					opts.OnFailure(i, err)
				}
				return nil
			}
			results[i], ok[i] = out, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Policy == FailFast {
		return results, nil
	}
	kept := make([]Out, 0, total)
	for i, r := range results {
		if ok[i] {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// progressPrinter prints roughly every 1% of total.
func progressPrinter(label string) func(done, total int) {
	return func(done, total int) {
		step := 1
		if total >= 100 {
			step = total / 100
		}
		if done%step == 0 || done == total {
			fmt.Fprintf(os.Stderr, "[PROGRESS] %s %.2f%%\n", label, float64(done)*100/float64(total))
		}
	}
}

func (cfg *Config) progress(label string) func(done, total int) {
	if cfg.Quiet {
		return nil
	}
	return progressPrinter(label)
}
