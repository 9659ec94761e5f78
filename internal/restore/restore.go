// Package restore undoes logged desktop actions by replaying the action log
// backwards.
package restore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pawku/internal/fsutil"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

// Drainer hands out every logged record and empties the log afterwards.
// *actionlog.Log implements it.
type Drainer interface {
	Drain(fn func(records []types.ActionRecord) error) error
}

// Archiver keeps a copy of finished restore runs.
type Archiver interface {
	Archive(ctx context.Context, report *Report) error
}

// Options configure an Engine.
type Options struct {
	// Trash is required to bring back deleted files; without it DELETE
	// records fail with ErrTrashUnavailable.
	Trash    types.TrashStore
	Archiver Archiver
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Engine replays the action log in reverse.
type Engine struct {
	log      Drainer
	trash    types.TrashStore
	archiver Archiver
	now      func() time.Time
	logger   zerolog.Logger
}

// New returns an Engine reading from log.
func New(log Drainer, opts Options) *Engine {
	e := &Engine{
		log:      log,
		trash:    opts.Trash,
		archiver: opts.Archiver,
		now:      opts.Now,
		logger:   opts.Logger.With().Str("component", "restore").Logger(),
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Restore undoes every logged action, newest first, and clears the log.
// Per-record failures become warnings in the report and never stop the
// pass. The log is cleared even after a partial pass; a canceled ctx stops
// before the next record and the report covers what was processed.
//
// The returned error is non-nil only when the log could not be read or
// cleared, or ctx was canceled.
func (e *Engine) Restore(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: e.now()}

	err := e.log.Drain(func(records []types.ActionRecord) error {
		report.Total = len(records)
		for i := len(records) - 1; i >= 0; i-- {
			if err := ctx.Err(); err != nil {
				report.Canceled = true
				return err
			}
			report.add(e.undo(records[i]))
		}
		return nil
	})
	report.FinishedAt = e.now()

	e.logger.Info().
		Int("total", report.Total).
		Int("restored", report.Restored).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Bool("canceled", report.Canceled).
		Msg("restore pass finished")

	if e.archiver != nil && (report.Total > 0 || err != nil) {
		// The archive is a convenience; a failure here never fails the restore.
		if aerr := e.archiver.Archive(context.WithoutCancel(ctx), report); aerr != nil {
			e.logger.Warn().Err(aerr).Msg("archiving restore run")
		}
	}
	return report, err
}

func (e *Engine) undo(rec types.ActionRecord) Result {
	res := Result{Record: rec}
	switch rec.Kind {
	case types.ActionRename:
		res.Err = e.undoRename(rec)
	case types.ActionDelete:
		res.Err = e.undoDelete(rec)
	case types.ActionReposition:
		res.Outcome = OutcomeSkipped
		return res
	default:
		res.Err = fmt.Errorf("%w: unknown kind %q", types.ErrMalformedRecord, rec.Kind)
	}

	if res.Err != nil {
		res.Outcome = OutcomeFailed
		e.logger.Warn().Err(res.Err).Str("record", rec.String()).Msg("could not undo action")
		return res
	}
	res.Outcome = OutcomeRestored
	e.logger.Debug().Str("record", rec.String()).Msg("undone")
	return res
}

func (e *Engine) undoRename(rec types.ActionRecord) error {
	if !fsutil.Exists(rec.NewPath) {
		return fmt.Errorf("%w: %s", types.ErrMissingTarget, rec.NewPath)
	}
	if fsutil.Exists(rec.OriginalPath) {
		return fmt.Errorf("%w: %s", types.ErrTargetOccupied, rec.OriginalPath)
	}
	if err := fsutil.RenameNoReplace(rec.NewPath, rec.OriginalPath); err != nil {
		if errors.Is(err, fsutil.ErrExists) {
			return fmt.Errorf("%w: %s", types.ErrTargetOccupied, rec.OriginalPath)
		}
		return fmt.Errorf("renaming %s back to %s: %w", filepath.Base(rec.NewPath), filepath.Base(rec.OriginalPath), err)
	}
	return nil
}

func (e *Engine) undoDelete(rec types.ActionRecord) error {
	if e.trash == nil {
		return fmt.Errorf("%w: no trash store configured", types.ErrTrashUnavailable)
	}
	if fsutil.Exists(rec.OriginalPath) {
		return fmt.Errorf("%w: %s", types.ErrTargetOccupied, rec.OriginalPath)
	}
	entry, err := e.trash.Lookup(rec.OriginalPath)
	if err != nil {
		return err
	}
	return e.trash.Restore(entry, rec.OriginalPath)
}
