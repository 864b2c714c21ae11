package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"caption-plan-go/internal/types"
)

// Kinds of history rows.
const (
	KindProcess = "process"
	KindEdit    = "edit"
	KindPlan    = "plan"
)

// timeLayout keeps created_at lexically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Entry is one stored plan snapshot.
type Entry struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	CreatedAt   time.Time      `json:"createdAt"`
	Instruction string         `json:"instruction,omitempty"`
	Segments    int            `json:"segments"`
	Project     *types.Project `json:"project,omitempty"`
}

// Store persists every produced or edited plan in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    created_at TEXT NOT NULL,
    instruction TEXT NOT NULL DEFAULT '',
    segments INTEGER NOT NULL,
    payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_plans_created_at ON plans(created_at);`

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a snapshot of p and returns its id.
func (s *Store) Record(ctx context.Context, kind, instruction string, p types.Project) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode history payload: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, kind, created_at, instruction, segments, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		id,
		kind,
		time.Now().UTC().Format(timeLayout),
		instruction,
		len(p.EditPlan.Segments),
		string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("insert history entry: %w", err)
	}
	return id, nil
}

// List returns up to limit entries, newest first, without payloads.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, created_at, instruction, segments FROM plans ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &created, &e.Instruction, &e.Segments); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.CreatedAt = parseTime(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Get returns one entry including its project snapshot.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	var (
		e       Entry
		created string
		payload string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, created_at, instruction, segments, payload FROM plans WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.Kind, &created, &e.Instruction, &e.Segments, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query history entry: %w", err)
	}
	var p types.Project
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Entry{}, fmt.Errorf("decode history payload: %w", err)
	}
	e.CreatedAt = parseTime(created)
	e.Project = &p
	return e, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
