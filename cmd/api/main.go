package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/config"
	"caption-plan-go/internal/editor"
	"caption-plan-go/internal/extractor"
	"caption-plan-go/internal/history"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/media"
	"caption-plan-go/internal/pipeline"
	"caption-plan-go/internal/processor"
	"caption-plan-go/internal/project"
	"caption-plan-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "caption-plan-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	hist, err := history.Open(cfg.Storage.HistoryDB)
	if err != nil {
		log.WithError(err).Fatal("failed to open history store")
	}
	defer hist.Close()

	var decider annotator.Decider
	if cfg.LLM.UseMock {
		log.Warn("USE_MOCK_LLM=true, visual decisions are deterministic and edits run offline")
		decider = extractor.MockDecider{}
	} else {
		decider = extractor.NewLLMDecider(extractor.NewClient(cfg.LLM))
	}

	proc := processor.New(processor.Deps{
		Media:           media.New(cfg.Media),
		Transcriber:     transcription.New(cfg.Transcribe),
		Pipeline:        pipeline.New(cfg.Pipeline, decider),
		Editor:          editor.New(extractor.NewEditCompleter(cfg.LLM), cfg.Pipeline),
		Projects:        project.NewStore(cfg.Storage.ProjectFile),
		History:         hist,
		RenderPublicDir: cfg.Storage.RenderPublicDir,
	})

	srv := &server{
		proc:           proc,
		uploadDir:      cfg.Storage.UploadDir,
		processTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		editTimeout:    time.Duration(cfg.LLM.EditTimeoutSeconds) * time.Second,
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.WithField("addr", addr).
		WithField("project_file", cfg.Storage.ProjectFile).
		Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
