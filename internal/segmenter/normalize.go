package segmenter

import (
	"strings"

	"caption-plan-go/internal/types"
)

// Normalize trims segment text and drops empty segments. Timing is left alone.
func Normalize(segments []types.Segment) []types.Segment {
	out := make([]types.Segment, 0, len(segments))
	for _, seg := range segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}
