package aggregator

import (
	"reflect"
	"testing"

	"caption-plan-go/internal/types"
)

func TestSummarize(t *testing.T) {
	plan := types.EditPlan{Segments: []types.AnnotatedSegment{
		{
			Segment:          types.Segment{Text: "Intro to rockets", Start: 0.5, End: 3},
			Highlight:        []string{"rockets"},
			CaptionAnimation: types.CaptionPop,
			VideoAnimation:   types.VideoZoomIn,
			IsTitle:          true,
			IsSceneChange:    true,
			SectionTitle:     "Rockets 101",
		},
		{
			Segment:          types.Segment{Text: "they go up", Start: 3, End: 4},
			Highlight:        []string{},
			CaptionAnimation: types.CaptionFade,
			VideoAnimation:   types.VideoNone,
		},
		{
			Segment:          types.Segment{Text: "really fast engines", Start: 4, End: 6.5},
			Highlight:        []string{"really", "engines"},
			CaptionAnimation: types.CaptionPop,
			VideoAnimation:   types.VideoNone,
		},
	}}

	got := Summarize(plan)
	want := PlanSummary{
		Segments:          3,
		Titles:            1,
		SceneChanges:      1,
		Highlighted:       2,
		HighlightWords:    3,
		SpanSeconds:       6,
		CaptionAnimations: map[string]int{"POP": 2, "FADE": 1},
		VideoAnimations:   map[string]int{"ZOOM_IN": 1, "NONE": 2},
		SectionTitles:     []string{"Rockets 101"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(types.EditPlan{})
	if got.Segments != 0 || got.SpanSeconds != 0 || got.CaptionAnimations == nil || got.SectionTitles == nil {
		t.Fatalf("got %+v", got)
	}
}
