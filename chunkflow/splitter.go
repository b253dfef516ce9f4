package chunkflow

import "strings"

// Split divides content into chunks of at most chunkSize bytes, preferring
// to cut at sentence terminators or newlines near the window end.
//
// The splitter scans forward in chunkSize windows. At each window end it
// searches backward for the nearest '.', '!', '?', or '\n'; if that
// boundary lies at or after the window midpoint the cut moves there (just
// past the terminator), otherwise the raw offset is used. This avoids
// mid-sentence splits without producing pathologically small chunks.
//
// Whitespace-only pieces are dropped; surviving chunks are indexed 0..n-1
// in content order. Split is a pure function: identical inputs always
// yield identical chunk boundaries. Concatenating the chunk contents
// reconstructs the input, minus any dropped whitespace-only pieces.
//
// A non-positive chunkSize falls back to DefaultChunkSize. Content that
// fits in a single chunk is returned as one chunk.
func Split(content string, chunkSize int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if content == "" {
		return nil
	}
	if len(content) <= chunkSize {
		if strings.TrimSpace(content) == "" {
			return nil
		}
		return []Chunk{{Index: 0, Content: content}}
	}

	chunks := make([]Chunk, 0, len(content)/chunkSize+1)
	index := 0
	for start := 0; start < len(content); {
		end := start + chunkSize
		if end >= len(content) {
			end = len(content)
		} else if cut := boundaryCut(content, start, end); cut > start {
			end = cut
		}

		piece := content[start:end]
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, Chunk{Index: index, Content: piece})
			index++
		}
		start = end
	}
	return chunks
}

// boundaryCut searches backward from end for a sentence terminator or
// newline within the window [start, end). It returns the position just
// past the terminator, or 0 when no boundary lies at or after the window
// midpoint (the adjustment must not shrink the chunk by more than half).
func boundaryCut(content string, start, end int) int {
	mid := start + (end-start)/2
	for i := end - 1; i >= mid; i-- {
		switch content[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}
