package aggregator

import "caption-plan-go/internal/types"

// PlanSummary is a compact overview of an edit plan.
type PlanSummary struct {
	Segments          int            `json:"segments"`
	Titles            int            `json:"titles"`
	SceneChanges      int            `json:"scene_changes"`
	Highlighted       int            `json:"highlighted_segments"`
	HighlightWords    int            `json:"highlight_words"`
	SpanSeconds       float64        `json:"span_seconds"`
	CaptionAnimations map[string]int `json:"caption_animations"`
	VideoAnimations   map[string]int `json:"video_animations"`
	SectionTitles     []string       `json:"section_titles"`
}

func Summarize(plan types.EditPlan) PlanSummary {
	out := PlanSummary{
		Segments:          len(plan.Segments),
		CaptionAnimations: map[string]int{},
		VideoAnimations:   map[string]int{},
		SectionTitles:     []string{},
	}
	if len(plan.Segments) == 0 {
		return out
	}

	first, last := plan.Segments[0].Start, plan.Segments[0].End
	for _, s := range plan.Segments {
		if s.IsTitle {
			out.Titles++
		}
		if s.IsSceneChange {
			out.SceneChanges++
		}
		if len(s.Highlight) > 0 {
			out.Highlighted++
			out.HighlightWords += len(s.Highlight)
		}
		if s.CaptionAnimation != "" {
			out.CaptionAnimations[string(s.CaptionAnimation)]++
		}
		if s.VideoAnimation != "" {
			out.VideoAnimations[string(s.VideoAnimation)]++
		}
		if s.SectionTitle != "" {
			out.SectionTitles = append(out.SectionTitles, s.SectionTitle)
		}
		if s.Start < first {
			first = s.Start
		}
		if s.End > last {
			last = s.End
		}
	}
	out.SpanSeconds = last - first
	return out
}
