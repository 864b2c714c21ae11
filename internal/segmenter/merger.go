package segmenter

import (
	"math"

	"caption-plan-go/internal/types"
)

// Merge segments every transcript entry and folds fragments shorter than
// MinWords into the previously accepted segment.
func (s *Segmenter) Merge(entries []types.TranscriptEntry) []types.Segment {
	segments := make([]types.Segment, 0, len(entries))

	for _, entry := range entries {
		start, end := sanitizeSpan(entry.Start, entry.End)

		if WordCount(entry.Text) <= s.MaxWords {
			segments = append(segments, types.Segment{Text: entry.Text, Start: start, End: end})
			continue
		}

		for _, chunk := range Distribute(s.Chunk(entry.Text), start, end) {
			if chunk.Words < s.MinWords && len(segments) > 0 {
				last := &segments[len(segments)-1]
				last.Text += " " + chunk.Text
				if chunk.End > last.End {
					last.End = chunk.End
				}
				continue
			}
			segments = append(segments, types.Segment{Text: chunk.Text, Start: chunk.Start, End: chunk.End})
		}
	}
	return segments
}

// Segment runs merge followed by normalization.
func (s *Segmenter) Segment(entries []types.TranscriptEntry) []types.Segment {
	return Normalize(s.Merge(entries))
}

// sanitizeSpan collapses reversed or non-finite timestamps into a zero
// length span so no segment ever ends before it starts.
func sanitizeSpan(start, end float64) (float64, float64) {
	if math.IsNaN(start) || math.IsInf(start, 0) {
		start = 0
	}
	if math.IsNaN(end) || math.IsInf(end, 0) || end < start {
		end = start
	}
	return start, end
}
