package chunkflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stats summarizes a completed processing run. It is pure arithmetic over
// the run's inputs, used for diagnostics and logging by callers, never for
// control flow.
type Stats struct {
	// RunID uniquely identifies the run for log correlation.
	RunID string

	// OriginalSize is the total input size in bytes.
	OriginalSize int

	// ChunkCount is the number of chunks processed.
	ChunkCount int

	// AverageChunkSize is OriginalSize / ChunkCount.
	AverageChunkSize int

	// ProcessingTime is the wall-clock duration of the run.
	ProcessingTime time.Duration

	// Throughput is bytes processed per millisecond.
	Throughput float64

	// Mode is "parallel" or "sequential", per the processing options.
	Mode string

	// MaxConcurrency is the configured concurrency bound.
	MaxConcurrency int
}

// String renders a one-line human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("run %s: %d bytes in %d chunks (avg %d) in %v, %.2f B/ms, mode=%s",
		s.RunID, s.OriginalSize, s.ChunkCount, s.AverageChunkSize,
		s.ProcessingTime.Round(time.Millisecond), s.Throughput, s.Mode)
}

// GenerateStats derives run statistics from the original content size,
// chunk count, and elapsed processing time, using the Processor's
// configured mode and concurrency bound.
func (p *Processor[R]) GenerateStats(originalSize, chunkCount int, elapsed time.Duration) Stats {
	stats := Stats{
		RunID:          uuid.NewString(),
		OriginalSize:   originalSize,
		ChunkCount:     chunkCount,
		ProcessingTime: elapsed,
		Mode:           "sequential",
		MaxConcurrency: p.conf.maxConcurrency,
	}

	if p.conf.parallel {
		stats.Mode = "parallel"
	}
	if chunkCount > 0 {
		stats.AverageChunkSize = originalSize / chunkCount
	}
	if ms := float64(elapsed) / float64(time.Millisecond); ms > 0 {
		stats.Throughput = float64(originalSize) / ms
	}
	return stats
}
