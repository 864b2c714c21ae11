package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"caption-plan-go/internal/aggregator"
	"caption-plan-go/internal/editor"
	"caption-plan-go/internal/history"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/pipeline"
	"caption-plan-go/internal/project"
	"caption-plan-go/internal/transcription"
	"caption-plan-go/internal/types"
)

// Media is the ffmpeg/ffprobe surface the processor needs.
type Media interface {
	Probe(ctx context.Context, path string) (types.Metadata, error)
	ExtractAudio(ctx context.Context, videoPath string) (string, error)
}

// Deps wires the processor's collaborators. History is optional.
type Deps struct {
	Media           Media
	Transcriber     transcription.Transcriber
	Pipeline        *pipeline.Pipeline
	Editor          *editor.Editor
	Projects        *project.Store
	History         *history.Store
	RenderPublicDir string
}

// Processor runs the upload-to-plan flow and edit passes.
type Processor struct {
	deps Deps
	log  *logger.Logger
}

func New(d Deps) *Processor {
	return &Processor{deps: d, log: logger.New()}
}

// Result is returned by ProcessVideo and ApplyEdit.
type Result struct {
	Segments   int                    `json:"segments"`
	HistoryID  string                 `json:"historyId,omitempty"`
	Project    types.Project          `json:"data"`
	Summary    aggregator.PlanSummary `json:"summary"`
	DurationMs int64                  `json:"duration_ms"`
}

// ProcessVideo probes and extracts audio from videoPath, transcribes it,
// builds the edit plan, stages the media for the renderer and writes the
// project payload. It holds the project lock throughout, so it fails with
// project.ErrBusy while an edit is running.
func (p *Processor) ProcessVideo(ctx context.Context, videoPath string) (Result, error) {
	log := p.log.WithField("component", "processor").WithField("video", videoPath)
	start := time.Now()

	unlock, err := p.deps.Projects.Lock()
	if err != nil {
		return Result{}, err
	}
	defer unlock()
	log.Info("processing video")

	var (
		meta      types.Metadata
		audioPath string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := p.deps.Media.Probe(gctx, videoPath)
		if err != nil {
			return fmt.Errorf("probe video: %w", err)
		}
		meta = m
		return nil
	})
	g.Go(func() error {
		a, err := p.deps.Media.ExtractAudio(gctx, videoPath)
		if err != nil {
			return fmt.Errorf("extract audio: %w", err)
		}
		audioPath = a
		return nil
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("media preparation failed")
		return Result{}, err
	}
	log.WithField("width", meta.Width).
		WithField("height", meta.Height).
		WithField("duration", meta.Duration).
		Info("metadata extracted")

	entries, err := p.deps.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}
	log.WithField("entries", len(entries)).Info("transcription complete")

	plan, err := p.deps.Pipeline.Run(ctx, entries)
	if err != nil {
		return Result{}, err
	}

	videoName := "video" + filepath.Ext(videoPath)
	audioName := "audio.wav"
	if err := os.MkdirAll(p.deps.RenderPublicDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create render public dir: %w", err)
	}
	if err := copyFile(videoPath, filepath.Join(p.deps.RenderPublicDir, videoName)); err != nil {
		return Result{}, fmt.Errorf("stage video: %w", err)
	}
	if err := copyFile(audioPath, filepath.Join(p.deps.RenderPublicDir, audioName)); err != nil {
		return Result{}, fmt.Errorf("stage audio: %w", err)
	}

	proj := types.Project{Video: videoName, Audio: audioName, Metadata: meta, EditPlan: plan}
	if err := p.deps.Projects.Save(proj); err != nil {
		return Result{}, err
	}

	res := Result{
		Segments: len(plan.Segments),
		Project:  proj,
		Summary:  aggregator.Summarize(plan),
	}
	res.HistoryID = p.record(ctx, history.KindProcess, "", proj)
	res.DurationMs = time.Since(start).Milliseconds()
	log.WithField("segments", res.Segments).WithField("duration_ms", res.DurationMs).Info("video processed")
	return res, nil
}

// Project returns the current project payload.
func (p *Processor) Project() (types.Project, error) {
	return p.deps.Projects.Load()
}

// History lists recent plan snapshots; empty when history is disabled.
func (p *Processor) History(ctx context.Context, limit int) ([]history.Entry, error) {
	if p.deps.History == nil {
		return []history.Entry{}, nil
	}
	return p.deps.History.List(ctx, limit)
}

func (p *Processor) record(ctx context.Context, kind, instruction string, proj types.Project) string {
	if p.deps.History == nil {
		return ""
	}
	id, err := p.deps.History.Record(ctx, kind, instruction, proj)
	if err != nil {
		// history is best effort; the project file is the source of truth
		p.log.WithField("component", "processor").WithError(err).Warn("history write failed")
		return ""
	}
	return id
}

func copyFile(src, dst string) (err error) {
	if sameFile(src, dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
