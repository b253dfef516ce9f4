// Package chunkflow splits large textual payloads into bounded-size chunks
// and executes a caller-supplied processing function over them under
// controlled concurrency.
//
// The primary type is Processor[R], configured via functional options.
// It offers four execution strategies over a shared semaphore-bounded
// fan-out core, all preserving input order in their results, plus a
// boundary-aware splitter, a parallelism estimator, and order-preserving
// result merge utilities.
//
// # Basic Usage
//
//	ctx := context.Background()
//	chunks := chunkflow.Split(document, 50000)
//	proc := chunkflow.New[int](chunkflow.WithMaxConcurrency(2))
//	lengths, err := proc.Process(ctx, chunks, func(ctx context.Context, c chunkflow.Chunk) (int, error) {
//	    return c.Len(), nil
//	})
//
// # Execution Strategies
//
//   - Process: bounded parallel fan-out, fail-fast, results in input order
//   - ProcessSequential: strict in-order execution on the calling goroutine
//   - ProcessWithRetry: bounded fan-out with per-chunk retry, exponential
//     backoff, and failure isolation; a bad chunk never fails the batch
//   - ProcessStream: lazy, strictly ordered, one-chunk-at-a-time execution
//     that yields results incrementally over a channel
//
// # Splitting
//
// Split cuts content into chunkSize windows, preferring sentence
// terminators or newlines near each window end so chunks do not break
// mid-sentence. Splitting is deterministic and whitespace-only pieces are
// dropped.
//
// # Retry Logic
//
// ProcessWithRetry retries each failed chunk with configurable backoff:
//
//	proc := chunkflow.New[string](
//	    chunkflow.WithMaxRetries(3),
//	    chunkflow.WithBackoff(chunkflow.BackoffJittered, 100*time.Millisecond, 5*time.Second, 0.2),
//	)
//	results, err := proc.ProcessWithRetry(ctx, chunks, callModel)
//
// Chunks that exhaust their attempts yield a Result with Err set and an
// Attempts count; successful chunks carry the value and the number of
// attempts it took.
//
// # Parallelism Estimation
//
// EstimateParallelism recommends a concurrency level from the content
// size, chunk count, and a simulated memory budget. The value is advisory.
//
// # Ordering
//
// Chunk submission order is always input order; completion order is
// unconstrained. Results are written into pre-sized, index-addressed
// slices rather than appended on completion, so returned collections are
// always in original input order. ProcessStream additionally emits in
// input order by construction.
//
// # Error Handling
//
// Process and ProcessSequential are fail-fast: the first unrecovered error
// aborts the batch. ProcessWithRetry and ProcessStream isolate failures to
// the offending chunk and report partial results with explicit per-chunk
// error markers. Panics in the processing function are recovered and
// converted to errors with stack traces.
//
// The package is designed to be small and idiomatic for Go 1.18+ (generics).
package chunkflow
