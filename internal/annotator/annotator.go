package annotator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"caption-plan-go/internal/config"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/types"
)

const (
	PositionStart  = "start"
	PositionMiddle = "middle"
)

// Decider is the external decision service. It returns the raw reply text
// for one segment; parsing and validation happen in the annotator.
type Decider interface {
	Decide(ctx context.Context, req Request) (string, error)
}

// DecisionServiceError reports a failed or unparsable decision for the
// segment at Index. Raw holds the reply when one was received.
type DecisionServiceError struct {
	Index int
	Raw   string
	Err   error
}

func (e *DecisionServiceError) Error() string {
	return fmt.Sprintf("decision service failed for segment %d: %v", e.Index, e.Err)
}

func (e *DecisionServiceError) Unwrap() error {
	return e.Err
}

// Annotator enriches segments with presentation decisions.
type Annotator struct {
	decider  Decider
	settings config.Pipeline
	log      *logger.Logger
}

func New(decider Decider, settings config.Pipeline) *Annotator {
	return &Annotator{
		decider:  decider,
		settings: settings,
		log:      logger.New(),
	}
}

// sceneTally counts scene changes within one Annotate call.
type sceneTally struct {
	count int
}

// Annotate consults the decider for each segment in order and applies the
// deterministic rules. Any decider failure aborts the whole run.
func (a *Annotator) Annotate(ctx context.Context, segments []types.Segment) ([]types.AnnotatedSegment, error) {
	log := a.log.WithField("component", "annotator").WithField("segments", len(segments))
	out := make([]types.AnnotatedSegment, 0, len(segments))
	tally := &sceneTally{}

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, &DecisionServiceError{Index: i, Err: err}
		}

		req := BuildRequest(seg, i)
		raw, err := a.decider.Decide(ctx, req)
		if err != nil {
			log.WithField("index", i).WithError(err).Warn("decision request failed")
			return nil, &DecisionServiceError{Index: i, Raw: raw, Err: err}
		}
		decision, err := ParseDecision(raw)
		if err != nil {
			log.WithField("index", i).WithError(err).Warn("decision reply unparsable")
			return nil, &DecisionServiceError{Index: i, Raw: raw, Err: err}
		}

		out = append(out, a.apply(seg, i, decision, tally))
	}

	log.WithField("scene_changes", tally.count).Info("annotation complete")
	return out, nil
}

// BuildRequest derives the decision request for the segment at index.
func BuildRequest(seg types.Segment, index int) Request {
	position := PositionMiddle
	if index == 0 {
		position = PositionStart
	}
	return Request{
		Text:            strings.TrimSpace(seg.Text),
		PositionHint:    position,
		DurationSeconds: math.Round(seg.Duration()*100) / 100,
	}
}

func (a *Annotator) apply(seg types.Segment, index int, d Decision, tally *sceneTally) types.AnnotatedSegment {
	forcedTitle := index == 0 && seg.Duration() >= a.settings.TitleMinSeconds
	highlight := SanitizeHighlights(seg.Text, d.Highlight, a.settings.HighlightLimit, a.settings.MinHighlightLength)

	out := types.AnnotatedSegment{
		Segment:          seg,
		Highlight:        highlight,
		CaptionAnimation: d.CaptionAnimation,
		VideoAnimation:   d.VideoAnimation,
		IsTitle:          forcedTitle || d.IsTitle,
		SectionTitle:     d.SectionTitle,
	}

	if !a.settings.TrackSceneChanges {
		return out
	}

	sceneChange := d.IsSceneChange
	if !sceneChange && tally.count < a.settings.SceneChangeFloor && (forcedTitle || len(highlight) > 0) {
		sceneChange = true
		if out.VideoAnimation == types.VideoNone {
			out.VideoAnimation = types.VideoZoomIn
		}
	}
	if sceneChange {
		tally.count++
	}
	out.IsSceneChange = sceneChange
	return out
}
