package boardgameborrow

import (
	"context"
	"sync"
	"time"
)

// BatchConfig represents configuration for batch fetching
type BatchConfig struct {
	// Size is how many items run concurrently per batch.
	Size int

	// Delay is the pause inserted between batches (not after the last)
	// to respect the upstream API's rate limit.
	Delay time.Duration
}

// DefaultBatchConfig returns the default batch configuration
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Size:  10,
		Delay: 500 * time.Millisecond,
	}
}

// ProcessBatch partitions items into consecutive slices of cfg.Size,
// runs fn on every item of a slice concurrently, and waits cfg.Delay
// before starting the next slice. Batch N's calls never start before all
// of batch N-1's calls have settled.
//
// A failing item is dropped from the result rather than aborting the
// batch; survivors keep their original relative order, so callers must
// not assume index alignment with the input. A panic inside fn counts as
// that item's failure.
//
// Returns early with ctx.Err() if the context is canceled between
// batches; results gathered so far are returned alongside the error.
func ProcessBatch[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), cfg BatchConfig) ([]R, error) {
	if cfg.Size <= 0 {
		cfg.Size = DefaultBatchConfig().Size
	}

	values := make([]R, len(items))
	settled := make([]bool, len(items))

	for start := 0; start < len(items); start += cfg.Size {
		if err := ctx.Err(); err != nil {
			return compact(values, settled, start), err
		}

		end := start + cfg.Size
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() {
					// A panicking processor only loses its own item.
					_ = recover()
				}()
				value, err := fn(ctx, items[i])
				if err != nil {
					return
				}
				values[i] = value
				settled[i] = true
			}(i)
		}
		wg.Wait()

		if end < len(items) && cfg.Delay > 0 {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return compact(values, settled, end), ctx.Err()
			}
		}
	}

	return compact(values, settled, len(items)), nil
}

// compact keeps the first n slots that settled successfully, preserving
// input order.
func compact[R any](values []R, settled []bool, n int) []R {
	results := make([]R, 0, n)
	for i := 0; i < n; i++ {
		if settled[i] {
			results = append(results, values[i])
		}
	}
	return results
}
