package chunkflow

import "context"

// Default configuration values applied when the corresponding option is not set.
const (
	// DefaultChunkSize is the target chunk size (in bytes) used by Split
	// when the caller passes a non-positive chunk size.
	DefaultChunkSize = 10000

	// DefaultMaxConcurrency bounds parallel fan-out when no explicit
	// concurrency is configured. The effective bound is further capped by
	// the chunk count of each invocation.
	DefaultMaxConcurrency = 4

	// DefaultMaxRetries is the total number of attempts ProcessWithRetry
	// makes per chunk before marking its slot as failed.
	DefaultMaxRetries = 3

	// DefaultMemoryBudget is the simulated memory budget (in bytes) used
	// by EstimateParallelism to bound concurrency by average chunk size.
	DefaultMemoryBudget = 100 << 20
)

// Chunk is one indexed segment of an input payload. Chunks are immutable
// once produced: the splitter creates them, an executor consumes them once.
type Chunk struct {
	// Index is the chunk's 0-based position in the original sequence.
	Index int

	// Content is the chunk payload.
	Content string
}

// Len returns the byte length of the chunk's content.
func (c Chunk) Len() int { return len(c.Content) }

// ProcessFunc processes a single chunk and produces a result of type R.
// It receives a context for cancellation control and may block (the engine
// places no bound on how long a single call runs). A non-nil error marks
// the chunk as failed; how that failure propagates depends on the executor.
type ProcessFunc[R any] func(ctx context.Context, chunk Chunk) (R, error)

// Result is the per-chunk outcome produced by the resilient executors
// (ProcessWithRetry, ProcessStream). Exactly one of Value or Err is
// meaningful: Err == nil means Value holds the processed result.
//
// Fields:
//   - Index: the chunk's original position, so callers can line results
//     up with input order regardless of completion order
//   - Value: the processed value (zero when Err != nil)
//   - Err: the final error after all attempts were exhausted
//   - Attempts: how many times the processor was invoked for this chunk
type Result[R any] struct {
	Value    R
	Err      error
	Index    int
	Attempts int
}
