package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPipelineMatchesCaptionRules(t *testing.T) {
	p := DefaultPipeline()
	if p.MaxWords != 6 || p.MinWords != 2 {
		t.Fatalf("word bounds = %d/%d, want 6/2", p.MaxWords, p.MinWords)
	}
	if p.HighlightLimit != 2 || p.MinHighlightLength != 3 {
		t.Fatalf("highlight rules = %d/%d, want 2/3", p.HighlightLimit, p.MinHighlightLength)
	}
	if p.TitleMinSeconds != 2 || p.SceneChangeFloor != 3 || !p.TrackSceneChanges {
		t.Fatalf("unexpected title/scene defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestPipelineValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Pipeline)
	}{
		{"zero max words", func(p *Pipeline) { p.MaxWords = 0 }},
		{"negative min words", func(p *Pipeline) { p.MinWords = -1 }},
		{"min above max", func(p *Pipeline) { p.MinWords = 7 }},
		{"negative highlight limit", func(p *Pipeline) { p.HighlightLimit = -1 }},
		{"negative floor", func(p *Pipeline) { p.SceneChangeFloor = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPipeline()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadOverlaysTOMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caption.toml")
	content := `
[pipeline]
max_words = 8
min_words = 3
track_scene_changes = false

[llm]
model = "file-model"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CAPTION_CONFIG", path)
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("USE_MOCK_LLM", "true")
	t.Setenv("FFMPEG_PATH", "/opt/ff/ffmpeg")
	t.Setenv("FFPROBE_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.MaxWords != 8 || cfg.Pipeline.MinWords != 3 {
		t.Fatalf("pipeline not overlaid: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.TrackSceneChanges {
		t.Fatal("expected track_scene_changes=false from file")
	}
	if cfg.Pipeline.HighlightLimit != 2 {
		t.Fatalf("unset keys should keep defaults, got highlight limit %d", cfg.Pipeline.HighlightLimit)
	}
	if cfg.LLM.Model != "env-model" {
		t.Fatalf("env should win over file, got %q", cfg.LLM.Model)
	}
	if !cfg.LLM.UseMock {
		t.Fatal("expected USE_MOCK_LLM to enable mock mode")
	}
	if cfg.Media.FFprobePath != "/opt/ff/ffprobe" {
		t.Fatalf("ffprobe path = %q", cfg.Media.FFprobePath)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("[pipeline]\nmax_words = 2\nmin_words = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CAPTION_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error")
	}
}
