package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"caption-plan-go/internal/types"
)

func sampleProject() types.Project {
	return types.Project{
		Video:    "video.mp4",
		Audio:    "audio.wav",
		Metadata: types.Metadata{Width: 1080, Height: 1920, Duration: 12.5},
		EditPlan: types.EditPlan{Segments: []types.AnnotatedSegment{{
			Segment:          types.Segment{Text: "Hello world", Start: 0, End: 1.5},
			Highlight:        []string{"world"},
			CaptionAnimation: types.CaptionPop,
			VideoAnimation:   types.VideoNone,
		}}},
	}
}

func TestLoadMissingProject(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "sample.json"))
	if _, err := s.Load(); !errors.Is(err, ErrNoProject) {
		t.Fatalf("expected ErrNoProject, got %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "src", "sample.json"))
	want := sampleProject()
	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Video != want.Video || got.Metadata != want.Metadata || len(got.EditPlan.Segments) != 1 {
		t.Fatalf("got %+v", got)
	}
	if got.EditPlan.Segments[0].Text != "Hello world" {
		t.Fatalf("segment = %+v", got.EditPlan.Segments[0])
	}

	entries, err := os.ReadDir(filepath.Join(dir, "src"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestLoadCorruptProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewStore(path).Load()
	if err == nil || errors.Is(err, ErrNoProject) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestLockIsExclusive(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "sample.json"))
	unlock, err := s.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := s.Lock(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy while held, got %v", err)
	}
	unlock()

	unlock, err = s.Lock()
	if err != nil {
		t.Fatalf("relock after release: %v", err)
	}
	unlock()
}
