package chunkflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProcessWithRetry executes fn over all chunks with per-chunk retry and
// failure isolation: each chunk gets up to the configured number of
// attempts with backoff between them, and a chunk that exhausts its
// attempts yields a Result with Err set instead of failing the batch.
// Results are always returned in input order, one per chunk.
//
// Fan-out follows the same semaphore-bounded structure as Process unless
// parallelism was disabled with WithParallelism(false), in which case the
// same retry logic runs strictly in order on the calling goroutine.
//
// The returned error is non-nil only when the context is cancelled before
// all chunks finish; processor failures never abort the batch.
func (p *Processor[R]) ProcessWithRetry(ctx context.Context, chunks []Chunk, fn ProcessFunc[R]) ([]Result[R], error) {
	if len(chunks) == 0 {
		return []Result[R]{}, nil
	}

	start := time.Now()
	results := make([]Result[R], len(chunks))
	for i := range results {
		results[i].Index = i
	}

	if !p.conf.parallel {
		for i, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results[i] = p.retryChunk(ctx, i, chunk, fn)
		}
		p.logBatch(ctx, "retry batch complete", len(chunks), time.Since(start))
		return results, nil
	}

	sem := NewSemaphore(min(p.conf.maxConcurrency, len(chunks)))

	// Plain errgroup, not WithContext: a failed chunk must not cancel its
	// siblings. Worker errors are context errors only.
	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := sem.Acquire(ctx); err != nil {
				return err
			}
			defer sem.Release()

			results[i] = p.retryChunk(ctx, i, chunk, fn)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	p.logBatch(ctx, "retry batch complete", len(chunks), time.Since(start))
	return results, nil
}

// retryChunk runs the attempt loop for a single chunk. The chunk's slot
// index is written by exactly one goroutine, so no locking is needed
// around the results slice.
func (p *Processor[R]) retryChunk(ctx context.Context, index int, chunk Chunk, fn ProcessFunc[R]) Result[R] {
	if p.conf.beforeChunk != nil {
		p.conf.beforeChunk(chunk)
	}

	backoff := p.conf.newBackoff()
	maxAttempts := max(p.conf.maxRetries, 1)

	var lastErr error
	attempts := 0

loop:
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, err := p.invoke(ctx, chunk, fn)
		attempts = attempt
		if err == nil {
			if p.conf.onChunkEnd != nil {
				p.conf.onChunkEnd(chunk, nil)
			}
			return Result[R]{Index: index, Value: value, Attempts: attempt}
		}
		lastErr = err

		if p.conf.onRetry != nil && attempt < maxAttempts {
			p.conf.onRetry(chunk, attempt, err)
		}
		if p.conf.logger != nil {
			p.conf.logger.WarnContext(ctx, "chunk attempt failed",
				slog.Int("index", index),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
		}

		if attempt < maxAttempts {
			delay := backoff.NextDelay(attempt-1, err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				break loop
			}
		}
	}

	finalErr := fmt.Errorf("chunk %d failed after %d attempts: %w", index, attempts, lastErr)
	if p.conf.onChunkEnd != nil {
		p.conf.onChunkEnd(chunk, finalErr)
	}
	return Result[R]{Index: index, Err: finalErr, Attempts: attempts}
}
