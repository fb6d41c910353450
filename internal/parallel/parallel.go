// Package parallel runs independent units of work (typically one per
// sub-repository) with a concurrency ceiling, keeping results in input order.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the number of work units allowed in flight at once.
const DefaultLimit = 100

// Do calls fn for every item with at most limit calls running concurrently
// (DefaultLimit when limit < 1) and returns the results in input order.
//
// An error returned by fn is treated as unrecoverable: the context passed to
// the remaining calls is cancelled, no new items are started and the first
// error is returned. Per-item failures that should not stop sibling work must
// be reported through R instead.
func Do[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if limit < 1 {
		limit = DefaultLimit
	}

	results := make([]R, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DoInBatches splits items into at most numBatches contiguous chunks and
// hands each chunk to a single call of fn. It is meant for work where the
// per-item overhead dominates. Results are concatenated in input order.
func DoInBatches[T, R any](ctx context.Context, items []T, numBatches int, fn func(ctx context.Context, batch []T) ([]R, error)) ([]R, error) {
	chunks := Chunk(items, numBatches)

	batched, err := Do(ctx, chunks, len(chunks), fn)
	if err != nil {
		return nil, err
	}

	results := make([]R, 0, len(items))
	for _, b := range batched {
		results = append(results, b...)
	}
	return results, nil
}

// Chunk splits items into at most n contiguous chunks whose sizes differ by
// at most one. It returns no chunks for an empty input.
func Chunk[T any](items []T, n int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > len(items) {
		n = len(items)
	}

	chunks := make([][]T, 0, n)
	size, rest := len(items)/n, len(items)%n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < rest {
			end++
		}
		chunks = append(chunks, items[start:end])
		start = end
	}
	return chunks
}
