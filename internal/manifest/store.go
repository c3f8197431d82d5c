// Package manifest persists per-run and per-file outcomes next to the
// de-identified output, so downstream consumers can tell which files
// succeeded and which lossy partial-record path was taken.
package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store manages manifest persistence backed by SQLite.
type Store struct {
	db   *sqlx.DB
	path string
}

// Run is one invocation of the de-identification engine over a session.
type Run struct {
	ID                  string `db:"id"`
	SubjectCode         string `db:"subject_code"`
	Epoch               string `db:"epoch"`
	PartialRecordPolicy string `db:"partial_record_policy"`
	StartedAt           string `db:"started_at"`
	FinishedAt          string `db:"finished_at"`
	Succeeded           int    `db:"succeeded"`
	Failed              int    `db:"failed"`
	Skipped             int    `db:"skipped"`
}

// FileRecord is the outcome of one source file within a run.
type FileRecord struct {
	RunID         string `db:"run_id"`
	InputPath     string `db:"input_path"`
	OutputPath    string `db:"output_path"`
	Status        string `db:"status"`
	Reason        string `db:"reason"`
	Findings      int    `db:"findings"`
	Blanked       int    `db:"blanked"`
	Dropped       int    `db:"dropped"`
	PartialRecord bool   `db:"partial_record"`
	PolicyApplied string `db:"policy_applied"`
}

// Open initializes or connects to the manifest database in dir and
// applies migrations.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "manifest.db")
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the manifest database location.
func (s *Store) Path() string { return s.path }

func (s *Store) applyMigrations(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			subject_code TEXT NOT NULL,
			epoch TEXT NOT NULL,
			partial_record_policy TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL DEFAULT '',
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id TEXT NOT NULL REFERENCES runs(id),
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			findings INTEGER NOT NULL DEFAULT 0,
			blanked INTEGER NOT NULL DEFAULT 0,
			dropped INTEGER NOT NULL DEFAULT 0,
			partial_record INTEGER NOT NULL DEFAULT 0,
			policy_applied TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, input_path)
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// BeginRun inserts the run row before any file is processed.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.StartedAt == "" {
		run.StartedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO runs (id, subject_code, epoch, partial_record_policy, started_at)
		 VALUES (:id, :subject_code, :epoch, :partial_record_policy, :started_at)`,
		run,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordFile upserts one file outcome.
func (s *Store) RecordFile(ctx context.Context, rec FileRecord) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO run_files
		 (run_id, input_path, output_path, status, reason, findings, blanked, dropped, partial_record, policy_applied)
		 VALUES (:run_id, :input_path, :output_path, :status, :reason, :findings, :blanked, :dropped, :partial_record, :policy_applied)`,
		rec,
	)
	if err != nil {
		return fmt.Errorf("record file outcome: %w", err)
	}
	return nil
}

// FinishRun stores the final tallies.
func (s *Store) FinishRun(ctx context.Context, runID string, succeeded, failed, skipped int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, failed = ?, skipped = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), succeeded, failed, skipped, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetRun fetches one run row.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var run Run
	if err := s.db.GetContext(ctx, &run, `SELECT * FROM runs WHERE id = ?`, runID); err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &run, nil
}

// FilesForRun lists the per-file outcomes of one run, ordered by input.
func (s *Store) FilesForRun(ctx context.Context, runID string) ([]FileRecord, error) {
	var files []FileRecord
	err := s.db.SelectContext(ctx, &files,
		`SELECT * FROM run_files WHERE run_id = ? ORDER BY input_path`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	return files, nil
}
