// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/config"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/segmenter"
	"caption-plan-go/internal/types"
)

// Pipeline turns a timed transcript into an edit plan.
type Pipeline struct {
	segmenter *segmenter.Segmenter
	annotator *annotator.Annotator
	log       *logger.Logger
}

func New(settings config.Pipeline, decider annotator.Decider) *Pipeline {
	return &Pipeline{
		segmenter: segmenter.New(settings),
		annotator: annotator.New(decider, settings),
		log:       logger.New(),
	}
}

// Segment runs only the deterministic stages: chunk, time, merge, normalize.
func (p *Pipeline) Segment(entries []types.TranscriptEntry) []types.Segment {
	return p.segmenter.Segment(entries)
}

// Run segments the transcript and annotates every segment. A decision
// service failure aborts the run and no partial plan is returned.
func (p *Pipeline) Run(ctx context.Context, entries []types.TranscriptEntry) (types.EditPlan, error) {
	runID := uuid.NewString()
	log := p.log.WithRun(runID).WithField("component", "pipeline")
	start := time.Now()

	segments := p.Segment(entries)
	log.WithField("entries", len(entries)).
		WithField("segments", len(segments)).
		Info("transcript segmented")

	annotated, err := p.annotator.Annotate(ctx, segments)
	if err != nil {
		log.WithField("error", err.Error()).Error("annotation failed")
		return types.EditPlan{}, fmt.Errorf("annotate segments: %w", err)
	}

	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("edit plan ready")
	return types.EditPlan{Segments: annotated}, nil
}
