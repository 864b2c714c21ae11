package processor

import (
	"context"
	"time"

	"caption-plan-go/internal/aggregator"
	"caption-plan-go/internal/history"
)

// ApplyEdit rewrites the current project's plan from a free-text
// instruction. Only one edit per project runs at a time; a failed edit
// leaves the stored payload as it was.
func (p *Processor) ApplyEdit(ctx context.Context, instruction string) (Result, error) {
	log := p.log.WithField("component", "processor").WithField("instruction", instruction)
	start := time.Now()

	unlock, err := p.deps.Projects.Lock()
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	current, err := p.deps.Projects.Load()
	if err != nil {
		return Result{}, err
	}

	plan, err := p.deps.Editor.Apply(ctx, current.EditPlan, instruction)
	if err != nil {
		log.WithError(err).Warn("edit rejected; project unchanged")
		return Result{}, err
	}

	current.EditPlan = plan
	if err := p.deps.Projects.Save(current); err != nil {
		return Result{}, err
	}

	res := Result{
		Segments: len(plan.Segments),
		Project:  current,
		Summary:  aggregator.Summarize(plan),
	}
	res.HistoryID = p.record(ctx, history.KindEdit, instruction, current)
	res.DurationMs = time.Since(start).Milliseconds()
	log.WithField("segments", res.Segments).Info("edit applied")
	return res, nil
}
