package chunkflow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Processor executes a caller-supplied ProcessFunc over a sequence of
// chunks under bounded concurrency. It is configured once via functional
// options and is safe for concurrent, independent invocations: each call
// creates its own semaphore and result storage, and the configuration is
// never mutated after construction.
//
// Type parameter R is the per-chunk result type.
type Processor[R any] struct {
	conf *config
}

// New creates a Processor with the given options.
//
// Example:
//
//	proc := chunkflow.New[int](
//	    chunkflow.WithMaxConcurrency(4),
//	    chunkflow.WithMaxRetries(3),
//	)
//	chunks := chunkflow.Split(document, 50000)
//	lengths, err := proc.Process(ctx, chunks, func(ctx context.Context, c chunkflow.Chunk) (int, error) {
//	    return c.Len(), nil
//	})
func New[R any](opts ...Option) *Processor[R] {
	conf := defaultConfig()
	for _, opt := range opts {
		opt(conf)
	}
	if conf.detailed && conf.logger == nil {
		conf.logger = slog.Default()
	}
	return &Processor[R]{conf: conf}
}

// Split divides content into chunks using the Processor's configured chunk
// size. Equivalent to calling the package-level Split.
func (p *Processor[R]) Split(content string) []Chunk {
	return Split(content, p.conf.chunkSize)
}

// Process executes fn over all chunks concurrently, bounded by the
// configured max concurrency, and returns results in input order.
//
// One goroutine is spawned per chunk; each acquires a permit from a
// per-call semaphore before invoking fn and releases it on every exit
// path. Results are written into a pre-sized slice at the chunk's index,
// so the returned order is always input order regardless of completion
// order.
//
// Process is fail-fast: the first processor error cancels the remaining
// chunks and is returned. Panics inside fn are recovered and reported as
// errors. Use ProcessWithRetry for per-chunk failure isolation.
func (p *Processor[R]) Process(ctx context.Context, chunks []Chunk, fn ProcessFunc[R]) ([]R, error) {
	if len(chunks) == 0 {
		return []R{}, nil
	}

	start := time.Now()
	sem := NewSemaphore(min(p.conf.maxConcurrency, len(chunks)))
	results := make([]R, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := sem.Acquire(gctx); err != nil {
				return err
			}
			defer sem.Release()

			value, err := p.runChunk(gctx, chunk, fn)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			results[i] = value
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logBatch(ctx, "parallel batch complete", len(chunks), time.Since(start))
	return results, nil
}

// ProcessSequential executes fn over chunks strictly in order on the
// calling goroutine. The first error aborts the remaining chunks with no
// partial continuation.
func (p *Processor[R]) ProcessSequential(ctx context.Context, chunks []Chunk, fn ProcessFunc[R]) ([]R, error) {
	if len(chunks) == 0 {
		return []R{}, nil
	}

	start := time.Now()
	results := make([]R, 0, len(chunks))
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, err := p.runChunk(ctx, chunk, fn)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		results = append(results, value)
	}

	p.logBatch(ctx, "sequential batch complete", len(chunks), time.Since(start))
	return results, nil
}

// runChunk processes one chunk with hooks around a single attempt. Used by
// the single-attempt executors; ProcessWithRetry drives invoke directly so
// its hooks fire once per chunk rather than once per attempt.
func (p *Processor[R]) runChunk(ctx context.Context, chunk Chunk, fn ProcessFunc[R]) (R, error) {
	if p.conf.beforeChunk != nil {
		p.conf.beforeChunk(chunk)
	}

	value, err := p.invoke(ctx, chunk, fn)

	if p.conf.onChunkEnd != nil {
		p.conf.onChunkEnd(chunk, err)
	}
	return value, err
}

// invoke runs fn for one chunk with rate limiting, detailed logging, and
// panic recovery. A panic in fn is converted to an error carrying the
// stack trace so one bad chunk cannot crash the batch.
func (p *Processor[R]) invoke(ctx context.Context, chunk Chunk, fn ProcessFunc[R]) (value R, err error) {
	if p.conf.limiter != nil {
		if err := p.conf.limiter.Wait(ctx); err != nil {
			return value, err
		}
	}

	p.logChunk(ctx, "chunk start", chunk)

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("processor panic: %v\nstack trace:\n%s", r, buf[:n])
		}
		p.logChunk(ctx, "chunk done", chunk)
	}()

	return fn(ctx, chunk)
}

func (p *Processor[R]) logChunk(ctx context.Context, msg string, chunk Chunk) {
	if p.conf.logger == nil || !p.conf.detailed {
		return
	}
	p.conf.logger.DebugContext(ctx, msg,
		slog.Int("index", chunk.Index),
		slog.Int("bytes", chunk.Len()),
	)
}

func (p *Processor[R]) logBatch(ctx context.Context, msg string, chunkCount int, elapsed time.Duration) {
	if p.conf.logger == nil {
		return
	}
	p.conf.logger.InfoContext(ctx, msg,
		slog.Int("chunks", chunkCount),
		slog.Duration("elapsed", elapsed),
		slog.Int("max_concurrency", p.conf.maxConcurrency),
	)
}
