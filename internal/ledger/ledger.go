// Package ledger records the outcome of every pipeline stage in a SQLite
// database so failed entries can be listed and re-run.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"route-forge/internal/model"
)

// Status of one stage run
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// StageRun is one recorded stage outcome
type StageRun struct {
	RunID      string
	EntryIndex int
	Path       string
	Stage      model.Stage
	Status     Status
	FileName   string
	PromptSHA  string
	Error      string
	Duration   time.Duration
	CreatedAt  time.Time
}

// RunInfo summarizes a past run
type RunInfo struct {
	RunID     string
	SpecFile  string
	StartedAt time.Time
	Entries   int
	Failed    int
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	spec_file  TEXT NOT NULL,
	started_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stage_runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	entry_index INTEGER NOT NULL,
	path        TEXT NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	file_name   TEXT,
	prompt_sha  TEXT,
	error       TEXT,
	duration_ms INTEGER NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stage_runs_run ON stage_runs(run_id);
`

// Ledger is the run database
type Ledger struct {
	db   *sql.DB
	sb   squirrel.StatementBuilderType
	path string
	now  func() time.Time
}

// Open creates or opens the ledger at path. ":memory:" is accepted.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// one connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	l := FromDB(db)
	l.path = path
	return l, nil
}

// FromDB wraps an existing connection whose schema is already in place
func FromDB(db *sql.DB) *Ledger {
	return &Ledger{
		db:  db,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		now: time.Now,
	}
}

// Path returns the database file path
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun registers a run against the specification document it processes
func (l *Ledger) StartRun(ctx context.Context, runID, specFile string) error {
	_, err := l.sb.Insert("runs").
		Columns("run_id", "spec_file", "started_at").
		Values(runID, specFile, l.now().UnixMilli()).
		RunWith(l.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", runID, err)
	}
	return nil
}

// Record stores one stage outcome
func (l *Ledger) Record(ctx context.Context, r StageRun) error {
	created := r.CreatedAt
	if created.IsZero() {
		created = l.now()
	}

	_, err := l.sb.Insert("stage_runs").
		Columns("run_id", "entry_index", "path", "stage", "status", "file_name", "prompt_sha", "error", "duration_ms", "created_at").
		Values(r.RunID, r.EntryIndex, r.Path, string(r.Stage), string(r.Status), r.FileName, r.PromptSHA, r.Error, r.Duration.Milliseconds(), created.UnixMilli()).
		RunWith(l.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to record %s stage of entry %d: %w", r.Stage, r.EntryIndex, err)
	}
	return nil
}

// FailedEntries returns the entry indexes whose last recorded stage failed
// in the most recent run over specFile, in ascending order
func (l *Ledger) FailedEntries(ctx context.Context, specFile string) ([]int, error) {
	var runID string
	err := l.sb.Select("run_id").
		From("runs").
		Where(squirrel.Eq{"spec_file": specFile}).
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1).
		RunWith(l.db).
		QueryRowContext(ctx).
		Scan(&runID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find last run for %s: %w", specFile, err)
	}

	rows, err := l.sb.Select("entry_index", "status").
		From("stage_runs").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("id").
		RunWith(l.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage runs: %w", err)
	}
	defer rows.Close()

	last := make(map[int]Status)
	var order []int
	for rows.Next() {
		var index int
		var status string
		if err := rows.Scan(&index, &status); err != nil {
			return nil, err
		}
		if _, seen := last[index]; !seen {
			order = append(order, index)
		}
		last[index] = Status(status)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var failed []int
	for _, index := range order {
		if last[index] == StatusFailed {
			failed = append(failed, index)
		}
	}
	sort.Ints(failed)
	return failed, nil
}

// Runs lists the most recent runs, newest first
func (l *Ledger) Runs(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.sb.Select(
		"r.run_id",
		"r.spec_file",
		"r.started_at",
		"COUNT(DISTINCT s.entry_index)",
		"COUNT(DISTINCT CASE WHEN s.status = 'failed' THEN s.entry_index END)",
	).
		From("runs r").
		LeftJoin("stage_runs s ON s.run_id = r.run_id").
		GroupBy("r.run_id", "r.spec_file", "r.started_at").
		OrderBy("r.started_at DESC", "r.rowid DESC").
		Limit(uint64(limit)).
		RunWith(l.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var info RunInfo
		var started int64
		if err := rows.Scan(&info.RunID, &info.SpecFile, &started, &info.Entries, &info.Failed); err != nil {
			return nil, err
		}
		info.StartedAt = time.UnixMilli(started)
		out = append(out, info)
	}
	return out, rows.Err()
}
