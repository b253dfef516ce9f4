package chunkflow

import (
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/utkarsh5026/chunkflow/internal/algorithms"
)

// BackoffKind selects the retry backoff algorithm used by ProcessWithRetry.
type BackoffKind = algorithms.Kind

const (
	// BackoffExponential doubles the retry delay on every failed attempt
	// (default).
	BackoffExponential = algorithms.Exponential
	// BackoffJittered adds random jitter to exponential delays to prevent
	// synchronized retries.
	BackoffJittered = algorithms.Jittered
	// BackoffDecorrelated uses AWS-style decorrelated jitter.
	BackoffDecorrelated = algorithms.Decorrelated
)

// Default backoff timing. With a 2s initial delay and exponential growth,
// the wait after failed attempt n is 2^n seconds (2s, 4s, 8s, ...).
const (
	defaultBackoffInitialDelay = 2 * time.Second
	defaultBackoffMaxDelay     = 30 * time.Second
)

// Option configures a Processor.
type Option func(*config)

type config struct {
	maxConcurrency int
	chunkSize      int
	maxRetries     int
	parallel       bool
	memoryBudget   int64

	backoffKind         BackoffKind
	backoffInitialDelay time.Duration
	backoffMaxDelay     time.Duration
	backoffJitterFactor float64

	limiter  *rate.Limiter
	logger   *slog.Logger
	detailed bool

	beforeChunk func(Chunk)
	onChunkEnd  func(Chunk, error)
	onRetry     func(Chunk, int, error)
}

func defaultConfig() *config {
	return &config{
		maxConcurrency:      DefaultMaxConcurrency,
		chunkSize:           DefaultChunkSize,
		maxRetries:          DefaultMaxRetries,
		parallel:            true,
		memoryBudget:        DefaultMemoryBudget,
		backoffKind:         BackoffExponential,
		backoffInitialDelay: defaultBackoffInitialDelay,
		backoffMaxDelay:     defaultBackoffMaxDelay,
		backoffJitterFactor: 0.1,
	}
}

// newBackoff builds a fresh backoff strategy for one chunk's retry loop.
// Strategies can be stateful (decorrelated jitter), so they are never
// shared between chunks or invocations.
func (c *config) newBackoff() algorithms.Strategy {
	return algorithms.NewStrategy(
		c.backoffKind,
		c.backoffInitialDelay,
		c.backoffMaxDelay,
		c.backoffJitterFactor,
	)
}

// WithMaxConcurrency bounds how many processor calls may run at once.
// Values below 1 are clamped to 1 for permissiveness rather than erroring.
// The effective bound for a given batch is min(n, number of chunks).
func WithMaxConcurrency(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = 1
		}
		c.maxConcurrency = n
	}
}

// WithChunkSize sets the target chunk size (in bytes) used by the
// Processor's Split convenience method. Non-positive values keep the default.
func WithChunkSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithMaxRetries sets the total number of attempts ProcessWithRetry makes
// per chunk. A value of 1 disables retries.
func WithMaxRetries(attempts int) Option {
	return func(c *config) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
	}
}

// WithParallelism toggles fan-out in ProcessWithRetry. When disabled, the
// retry executor runs chunks strictly in order on the calling goroutine
// while keeping the same per-chunk retry and failure-isolation behavior.
func WithParallelism(enabled bool) Option {
	return func(c *config) {
		c.parallel = enabled
	}
}

// WithMemoryBudget sets the simulated memory budget (in bytes) used by
// EstimateParallelism. Non-positive values keep the default.
func WithMemoryBudget(budget int64) Option {
	return func(c *config) {
		if budget > 0 {
			c.memoryBudget = budget
		}
	}
}

// WithBackoff selects the retry backoff algorithm and its timing.
// jitterFactor only applies to BackoffJittered (typical values 0.1 to 0.3).
func WithBackoff(kind BackoffKind, initialDelay, maxDelay time.Duration, jitterFactor float64) Option {
	return func(c *config) {
		c.backoffKind = kind
		if initialDelay > 0 {
			c.backoffInitialDelay = initialDelay
		}
		if maxDelay > 0 {
			c.backoffMaxDelay = maxDelay
		}
		c.backoffJitterFactor = jitterFactor
	}
}

// WithRateLimit throttles processor invocations across all executors.
// chunksPerSecond is the sustained rate, burst the momentary allowance.
// Useful when the processor calls an external service.
func WithRateLimit(chunksPerSecond float64, burst int) Option {
	return func(c *config) {
		if chunksPerSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(chunksPerSecond), burst)
		}
	}
}

// WithLogger attaches a structured logger. Retry attempts are logged at
// Warn and batch summaries at Info. Without a logger the engine is silent;
// logging is diagnostic only and never part of the functional contract.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDetailedLogging additionally logs every chunk start and completion
// at Debug level. Implies WithLogger(slog.Default()) if no logger was set.
func WithDetailedLogging() Option {
	return func(c *config) {
		c.detailed = true
	}
}

// WithBeforeChunk registers a hook invoked just before each chunk is
// processed (after the permit is acquired).
func WithBeforeChunk(fn func(Chunk)) Option {
	return func(c *config) {
		c.beforeChunk = fn
	}
}

// WithOnChunkEnd registers a hook invoked after each chunk finishes, with
// the final error (nil on success). In retry mode it fires once per chunk,
// after the last attempt.
func WithOnChunkEnd(fn func(Chunk, error)) Option {
	return func(c *config) {
		c.onChunkEnd = fn
	}
}

// WithOnRetry registers a hook invoked before each retry attempt with the
// attempt number just failed (1-based) and its error.
func WithOnRetry(fn func(Chunk, int, error)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}
