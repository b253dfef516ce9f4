package chunkflow

// Average chunk size classes used by the parallelism estimate. Small
// chunks afford more parallelism per byte of budget, large chunks less.
const (
	smallChunkThreshold  = 5000
	mediumChunkThreshold = 20000

	smallChunkMultiplier  = 1.5
	mediumChunkMultiplier = 1.0
	largeChunkMultiplier  = 0.7
)

// EstimateParallelism recommends a concurrency level for processing
// contentSize bytes split into chunkCount chunks, trading off the
// configured memory budget against the configured max concurrency.
//
// The memory limit is how many average-sized chunks fit in the budget; the
// CPU limit is min(chunkCount, max concurrency). The smaller of the two is
// scaled by a multiplier picked from the average chunk size class, then
// clamped to [1, chunkCount].
//
// The value is advisory: callers may ignore it and configure their own
// concurrency.
func (p *Processor[R]) EstimateParallelism(contentSize, chunkCount int) int {
	if chunkCount < 1 || contentSize < 1 {
		return 1
	}

	avgChunkSize := contentSize / chunkCount
	if avgChunkSize < 1 {
		avgChunkSize = 1
	}

	memoryLimit := int(p.conf.memoryBudget / int64(avgChunkSize))
	cpuLimit := min(chunkCount, p.conf.maxConcurrency)
	base := min(memoryLimit, cpuLimit)

	multiplier := largeChunkMultiplier
	switch {
	case avgChunkSize < smallChunkThreshold:
		multiplier = smallChunkMultiplier
	case avgChunkSize < mediumChunkThreshold:
		multiplier = mediumChunkMultiplier
	}

	estimate := int(float64(base) * multiplier)
	if estimate > chunkCount {
		estimate = chunkCount
	}
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}
