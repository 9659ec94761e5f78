// Package history archives restore runs in a local SQLite database so the
// user can see what a restore brought back and what it could not.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pawku/internal/restore"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

// DefaultFileName is the archive's file name inside the data directory.
const DefaultFileName = "history.db"

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("restore run not found")

// Run is one archived restore pass.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Restored   int       `json:"restored"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Canceled   bool      `json:"canceled"`
}

// Outcome is the archived result for one record of a run.
type Outcome struct {
	Seq     int                `json:"seq"`
	Record  types.ActionRecord `json:"record"`
	Outcome restore.Outcome    `json:"outcome"`
	Error   string             `json:"error,omitempty"`
}

// Store is the SQLite-backed archive. It implements restore.Archiver.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens or creates the archive at path.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	// One writer at a time; the archive sees a handful of rows per restore.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing history schema: %w", err)
		}
	}
	return &Store{db: db, logger: logger.With().Str("component", "history").Logger()}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Archive stores report as a new run.
func (s *Store) Archive(ctx context.Context, report *restore.Report) error {
	_, err := s.RecordRun(ctx, report)
	return err
}

// RecordRun stores report and returns the new run id.
func (s *Store) RecordRun(ctx context.Context, report *restore.Report) (string, error) {
	id := generateUUID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO restore_runs (run_id, started_at, finished_at, total, restored, skipped, failed, canceled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		report.Total, report.Restored, report.Skipped, report.Failed, boolToInt(report.Canceled),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for i, res := range report.Results {
		var errText sql.NullString
		if res.Err != nil {
			errText = sql.NullString{String: res.Err.Error(), Valid: true}
		}
		var newPath sql.NullString
		if res.Record.NewPath != "" {
			newPath = sql.NullString{String: res.Record.NewPath, Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO restore_outcomes (run_id, seq, kind, original_path, new_path, outcome, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, string(res.Record.Kind), res.Record.OriginalPath, newPath, string(res.Outcome), errText,
		)
		if err != nil {
			return "", fmt.Errorf("inserting outcome %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	s.logger.Debug().Str("run", id).Int("outcomes", len(report.Results)).Msg("archived restore run")
	return id, nil
}

// Runs returns up to limit runs, newest first. A non-positive limit returns
// all of them.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, started_at, finished_at, total, restored, skipped, failed, canceled
		FROM restore_runs ORDER BY started_at DESC, run_id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := hydrateRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Outcomes returns the per-record results of run id in processing order.
func (s *Store) Outcomes(ctx context.Context, id string) ([]Outcome, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM restore_runs WHERE run_id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("checking run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, kind, original_path, new_path, outcome, error
		 FROM restore_outcomes WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var (
			o               Outcome
			kind, outcome   string
			newPath, errMsg sql.NullString
		)
		if err := rows.Scan(&o.Seq, &kind, &o.Record.OriginalPath, &newPath, &outcome, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Record.Kind = types.ActionKind(kind)
		o.Record.NewPath = newPath.String
		o.Outcome = restore.Outcome(outcome)
		o.Error = errMsg.String
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outcomes: %w", err)
	}
	return out, nil
}

// Prune deletes runs that started before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM restore_runs WHERE started_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return int(n), nil
}

func hydrateRun(rows *sql.Rows) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	if err := rows.Scan(&r.ID, &started, &finished, &r.Total, &r.Restored, &r.Skipped, &r.Failed, &r.Canceled); err != nil {
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	var err error
	r.StartedAt, err = time.Parse(timeLayout, started)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at: %w", err)
	}
	r.FinishedAt, err = time.Parse(timeLayout, finished)
	if err != nil {
		return Run{}, fmt.Errorf("parsing finished_at: %w", err)
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// generateUUID returns a UUID v7 so run ids sort by creation time.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
