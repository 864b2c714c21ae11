package segmenter

import (
	"strings"

	"caption-plan-go/internal/types"
)

// Distribute assigns each chunk a slice of [start,end) proportional to its
// word count. Chunks are contiguous; the last one ends exactly at end.
func Distribute(chunks []string, start, end float64) []types.TimedChunk {
	if len(chunks) == 0 {
		return nil
	}

	counts := make([]int, len(chunks))
	total := 0
	for i, c := range chunks {
		counts[i] = WordCount(c)
		total += counts[i]
	}

	// nothing to weigh by: one chunk spanning the whole entry
	if total == 0 {
		return []types.TimedChunk{{
			Chunk: types.Chunk{Text: strings.Join(chunks, " ")},
			Start: start,
			End:   end,
		}}
	}

	span := end - start
	out := make([]types.TimedChunk, 0, len(chunks))
	running := start
	for i, c := range chunks {
		duration := span * float64(counts[i]) / float64(total)
		chunkEnd := running + duration
		if i == len(chunks)-1 {
			chunkEnd = end
		}
		out = append(out, types.TimedChunk{
			Chunk: types.Chunk{Text: c, Words: counts[i]},
			Start: running,
			End:   chunkEnd,
		})
		running = chunkEnd
	}
	return out
}
