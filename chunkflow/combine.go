package chunkflow

// Combine left-folds results with op. The boolean reports whether a value
// was produced: false for empty input, true otherwise. A singleton input
// returns its sole element unchanged.
func Combine[T any](results []T, op func(acc, next T) T) (T, bool) {
	var acc T
	if len(results) == 0 {
		return acc, false
	}

	acc = results[0]
	for _, next := range results[1:] {
		acc = op(acc, next)
	}
	return acc, true
}

// MergeSlices flattens per-chunk slices into one, preserving outer then
// inner order.
func MergeSlices[T any](parts [][]T) []T {
	total := 0
	for _, part := range parts {
		total += len(part)
	}

	merged := make([]T, 0, total)
	for _, part := range parts {
		merged = append(merged, part...)
	}
	return merged
}

// MergeMaps shallow-merges per-chunk maps right-biased: on key collision
// the later chunk's value wins. Callers must ensure chunk-result keys are
// either disjoint or intentionally overridable.
func MergeMaps[K comparable, V any](parts []map[K]V) map[K]V {
	merged := make(map[K]V)
	for _, part := range parts {
		for k, v := range part {
			merged[k] = v
		}
	}
	return merged
}
