package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/types"
)

var (
	// ErrNoProject is returned when no project payload has been written yet.
	ErrNoProject = errors.New("no active project found")
	// ErrBusy is returned when another edit holds the project lock.
	ErrBusy = errors.New("an edit is already in progress for this project")
)

// Store reads and writes the project payload consumed by the renderer.
type Store struct {
	path string
	log  *logger.Logger
}

func NewStore(path string) *Store {
	return &Store{path: path, log: logger.New()}
}

// Path returns the payload location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current payload.
func (s *Store) Load() (types.Project, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Project{}, ErrNoProject
		}
		return types.Project{}, fmt.Errorf("read project: %w", err)
	}
	var p types.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return types.Project{}, fmt.Errorf("decode project %s: %w", s.path, err)
	}
	if p.EditPlan.Segments == nil {
		p.EditPlan.Segments = []types.AnnotatedSegment{}
	}
	return p, nil
}

// Save replaces the payload atomically. Readers see either the old file or
// the new one, never a partial write.
func (s *Store) Save(p types.Project) error {
	if p.EditPlan.Segments == nil {
		p.EditPlan.Segments = []types.AnnotatedSegment{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp project: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp project: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp project: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace project: %w", err)
	}

	s.log.WithField("component", "project").
		WithField("path", s.path).
		WithField("segments", len(p.EditPlan.Segments)).
		Info("project written")
	return nil
}

// Lock takes the per-project edit lock without waiting. The returned func
// releases it. ErrBusy means another edit holds the lock.
func (s *Store) Lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	// a fresh handle per attempt so two callers in one process still exclude each other
	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() { _ = lock.Unlock() }, nil
}
