package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/config"
	"caption-plan-go/internal/types"
)

type scriptedDecider struct {
	replies []string
	fail    int
	calls   []annotator.Request
}

func (d *scriptedDecider) Decide(_ context.Context, req annotator.Request) (string, error) {
	d.calls = append(d.calls, req)
	i := len(d.calls) - 1
	if d.fail > 0 && i == d.fail-1 {
		return "", errors.New("decision service unavailable")
	}
	if i < len(d.replies) {
		return d.replies[i], nil
	}
	return `{}`, nil
}

func TestRunProducesPlan(t *testing.T) {
	d := &scriptedDecider{replies: []string{
		"```json\n{\"captionAnimation\":\"POP\",\"highlight\":[\"rocket\",\"the\"]}\n```",
		`{"videoAnimation":"ZOOM_OUT","highlight":["launch"]}`,
	}}
	p := New(config.DefaultPipeline(), d)

	entries := []types.TranscriptEntry{
		{Text: "The rocket is ready", Start: 0, End: 2.5},
		{Text: "Watch the launch", Start: 2.5, End: 4},
	}
	plan, err := p.Run(context.Background(), entries)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(plan.Segments) != 2 {
		t.Fatalf("segments = %+v", plan.Segments)
	}

	first := plan.Segments[0]
	if !first.IsTitle || first.CaptionAnimation != types.CaptionPop {
		t.Fatalf("first = %+v", first)
	}
	if len(first.Highlight) != 1 || first.Highlight[0] != "rocket" {
		t.Fatalf("highlight = %q", first.Highlight)
	}
	if !first.IsSceneChange || first.VideoAnimation != types.VideoZoomIn {
		t.Fatalf("opening title should be promoted to a scene change: %+v", first)
	}

	second := plan.Segments[1]
	if second.IsTitle || second.VideoAnimation != types.VideoZoomOut || second.CaptionAnimation != types.CaptionFade {
		t.Fatalf("second = %+v", second)
	}

	if d.calls[0].PositionHint != annotator.PositionStart || d.calls[1].PositionHint != annotator.PositionMiddle {
		t.Fatalf("position hints = %+v", d.calls)
	}
}

func TestRunAbortsOnDecisionFailure(t *testing.T) {
	d := &scriptedDecider{fail: 2}
	p := New(config.DefaultPipeline(), d)
	entries := []types.TranscriptEntry{
		{Text: "one two three", Start: 0, End: 1},
		{Text: "four five six", Start: 1, End: 2},
		{Text: "seven eight nine", Start: 2, End: 3},
	}

	plan, err := p.Run(context.Background(), entries)
	var dse *annotator.DecisionServiceError
	if !errors.As(err, &dse) {
		t.Fatalf("expected DecisionServiceError, got %v", err)
	}
	if dse.Index != 1 {
		t.Fatalf("failed index = %d", dse.Index)
	}
	if plan.Segments != nil {
		t.Fatalf("no partial plan expected, got %+v", plan)
	}
	if len(d.calls) != 2 {
		t.Fatalf("run should stop at the failing segment, made %d calls", len(d.calls))
	}
}

func TestSegmentIsOffline(t *testing.T) {
	d := &scriptedDecider{}
	p := New(config.DefaultPipeline(), d)

	segs := p.Segment([]types.TranscriptEntry{
		{Text: "one two three four five six seven eight", Start: 0, End: 5},
	})
	if len(segs) != 2 {
		t.Fatalf("expected two fixed windows, got %+v", segs)
	}
	for _, s := range segs {
		if n := len(strings.Fields(s.Text)); n > 6 {
			t.Fatalf("segment %q has %d words", s.Text, n)
		}
	}
	if segs[len(segs)-1].End != 5 {
		t.Fatalf("last end = %v", segs[len(segs)-1].End)
	}
	if len(d.calls) != 0 {
		t.Fatal("Segment must not consult the decision service")
	}
}

func TestRunEmptyTranscript(t *testing.T) {
	plan, err := New(config.DefaultPipeline(), &scriptedDecider{}).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if plan.Segments == nil || len(plan.Segments) != 0 {
		t.Fatalf("segments = %#v", plan.Segments)
	}
}
