package actionlog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pawku/internal/fsutil"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

// DefaultFileName is the action log's file name inside the data directory.
const DefaultFileName = "changes.log"

// maxLineSize bounds a single log line; long paths fit comfortably.
const maxLineSize = 1 << 20

// Log is the append-only action log. Reads and writes of the file take a
// short lock: an in-process mutex for goroutines and an advisory file lock
// for other processes (a standalone restore command next to a running
// daemon). A second, pending lock is held shared by every Commit while its
// action runs and exclusively by Drain and Clear, so a restore never sees a
// record whose action has not finished, while actions on other goroutines
// keep logging.
type Log struct {
	path   string
	codec  Codec
	logger zerolog.Logger

	mu    sync.Mutex
	flock *flock.Flock

	gate      sync.RWMutex
	pendingMu sync.Mutex
	pendingN  int
	pending   *flock.Flock
}

// written locates a line appended by this Log.
type written struct {
	offset int64
	line   string
}

// Open prepares the log at path. The file itself is created on first append.
func Open(path, format string, logger zerolog.Logger) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating log directory: %w", types.ErrLogIO, err)
	}
	return &Log{
		path:    path,
		codec:   NewCodec(format),
		logger:  logger.With().Str("component", "actionlog").Logger(),
		flock:   flock.New(path + ".lock"),
		pending: flock.New(path + ".pending"),
	}, nil
}

// Path returns the log file path.
func (l *Log) Path() string { return l.path }

// LockPath returns the path of the advisory lock file.
func (l *Log) LockPath() string { return l.flock.Path() }

// PendingPath returns the path of the lock file held while actions run.
func (l *Log) PendingPath() string { return l.pending.Path() }

// Format returns the line format used for new records.
func (l *Log) Format() string { return l.codec.Format() }

func (l *Log) lock() (func(), error) {
	l.mu.Lock()
	if err := l.flock.Lock(); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: locking %s: %w", types.ErrLogIO, l.flock.Path(), err)
	}
	return func() {
		if err := l.flock.Unlock(); err != nil {
			l.logger.Error().Err(err).Msg("releasing log lock")
		}
		l.mu.Unlock()
	}, nil
}

// holdPending registers an in-flight action. The file lock is shared by
// every goroutine of this process and released with the last of them.
func (l *Log) holdPending() (func(), error) {
	l.gate.RLock()
	l.pendingMu.Lock()
	if l.pendingN == 0 {
		if err := l.pending.RLock(); err != nil {
			l.pendingMu.Unlock()
			l.gate.RUnlock()
			return nil, fmt.Errorf("%w: locking %s: %w", types.ErrLogIO, l.pending.Path(), err)
		}
	}
	l.pendingN++
	l.pendingMu.Unlock()

	return func() {
		l.pendingMu.Lock()
		l.pendingN--
		if l.pendingN == 0 {
			if err := l.pending.Unlock(); err != nil {
				l.logger.Error().Err(err).Msg("releasing pending lock")
			}
		}
		l.pendingMu.Unlock()
		l.gate.RUnlock()
	}, nil
}

// exclusive waits for every in-flight action, here and in other processes,
// and then takes the file lock.
func (l *Log) exclusive() (func(), error) {
	l.gate.Lock()
	if err := l.pending.Lock(); err != nil {
		l.gate.Unlock()
		return nil, fmt.Errorf("%w: locking %s: %w", types.ErrLogIO, l.pending.Path(), err)
	}
	unlock, err := l.lock()
	if err != nil {
		_ = l.pending.Unlock()
		l.gate.Unlock()
		return nil, err
	}
	return func() {
		unlock()
		if err := l.pending.Unlock(); err != nil {
			l.logger.Error().Err(err).Msg("releasing pending lock")
		}
		l.gate.Unlock()
	}, nil
}

// Append durably writes rec as one line. The line is fsynced before Append
// returns. Records the configured format cannot express are dropped.
func (l *Log) Append(rec types.ActionRecord) error {
	unlock, err := l.lock()
	if err != nil {
		return err
	}
	defer unlock()

	_, err = l.appendLocked(rec)
	return err
}

// Commit appends rec and then runs apply. The file lock is released before
// apply, so a slow action does not hold up other writers, but a Drain waits
// until apply has returned. If apply fails the appended line is removed
// again and apply's error is returned.
func (l *Log) Commit(rec types.ActionRecord, apply func() error) error {
	release, err := l.holdPending()
	if err != nil {
		return err
	}
	defer release()

	unlock, err := l.lock()
	if err != nil {
		return err
	}
	w, err := l.appendLocked(rec)
	unlock()
	if err != nil {
		return err
	}

	if err := apply(); err != nil {
		if uerr := l.retract(w); uerr != nil {
			l.logger.Error().Err(uerr).Str("record", rec.String()).Msg("rolling back log line for failed action")
			return errors.Join(err, uerr)
		}
		return err
	}
	return nil
}

// appendLocked writes one line and reports where it went. The zero written
// means nothing was written.
func (l *Log) appendLocked(rec types.ActionRecord) (written, error) {
	line, ok, err := l.codec.Encode(rec)
	if err != nil {
		return written{}, err
	}
	if !ok {
		l.logger.Debug().Str("kind", string(rec.Kind)).Str("format", l.codec.Format()).Msg("record not representable, not logged")
		return written{}, nil
	}
	line += "\n"

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return written{}, fmt.Errorf("%w: opening %s: %w", types.ErrLogIO, l.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return written{}, fmt.Errorf("%w: stat %s: %w", types.ErrLogIO, l.path, err)
	}
	offset := info.Size()

	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return written{}, fmt.Errorf("%w: writing %s: %w", types.ErrLogIO, l.path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return written{}, fmt.Errorf("%w: syncing %s: %w", types.ErrLogIO, l.path, err)
	}
	if err := f.Close(); err != nil {
		return written{}, fmt.Errorf("%w: closing %s: %w", types.ErrLogIO, l.path, err)
	}
	return written{offset: offset, line: line}, nil
}

// retract removes a line written by appendLocked. Lines are only ever
// appended or retracted while an action is pending, so the line is at its
// original offset or, when earlier lines were retracted, before it.
func (l *Log) retract(w written) error {
	if w.line == "" {
		return nil
	}
	unlock, err := l.lock()
	if err != nil {
		return err
	}
	defer unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", types.ErrLogIO, l.path, err)
	}
	pos := findLine(data, w.line, w.offset)
	if pos < 0 {
		return fmt.Errorf("%w: record %q no longer in %s", types.ErrLogIO, strings.TrimSuffix(w.line, "\n"), l.path)
	}
	end := pos + len(w.line)
	if end == len(data) {
		return l.truncateTo(int64(pos))
	}
	rest := append(data[:pos:pos], data[end:]...)
	if err := fsutil.WriteFileAtomic(l.path, rest, 0o644); err != nil {
		return fmt.Errorf("%w: rewriting %s: %w", types.ErrLogIO, l.path, err)
	}
	return nil
}

// findLine returns the start of the last whole line equal to line that
// begins at or before offset, or -1.
func findLine(data []byte, line string, offset int64) int {
	limit := min(int(offset)+len(line), len(data))
	window := data[:limit]
	for {
		i := bytes.LastIndex(window, []byte(line))
		if i < 0 {
			return -1
		}
		if i == 0 || window[i-1] == '\n' {
			return i
		}
		window = window[:i+len(line)-1]
	}
}

func (l *Log) truncateTo(offset int64) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", types.ErrLogIO, l.path, err)
	}
	defer f.Close()
	if err := f.Truncate(offset); err != nil {
		return fmt.Errorf("%w: truncating %s: %w", types.ErrLogIO, l.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %w", types.ErrLogIO, l.path, err)
	}
	return nil
}

// ReadAll returns the persisted records in insertion order. A missing log
// reads as empty. Malformed lines are skipped with a warning.
func (l *Log) ReadAll() ([]types.ActionRecord, error) {
	unlock, err := l.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	return l.readLocked()
}

func (l *Log) readLocked() ([]types.ActionRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", types.ErrLogIO, l.path, err)
	}
	defer f.Close()

	var records []types.ActionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		rec, err := l.codec.Decode(line)
		if err != nil {
			l.logger.Warn().Err(err).Int("line", lineNo).Msg("skipping malformed log line")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %w", types.ErrLogIO, l.path, err)
	}
	return records, nil
}

// Clear atomically truncates the log to empty once no action is pending.
func (l *Log) Clear() error {
	unlock, err := l.exclusive()
	if err != nil {
		return err
	}
	defer unlock()

	return l.clearLocked()
}

// clearLocked replaces the log with an empty file using the temp-file,
// fsync, rename pattern.
func (l *Log) clearLocked() error {
	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".changes-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %w", types.ErrLogIO, err)
	}
	tmpName := tmp.Name()
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: syncing temp file: %w", types.ErrLogIO, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %w", types.ErrLogIO, err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %w", types.ErrLogIO, l.path, err)
	}
	return nil
}

// Drain waits for pending actions, then reads every record, hands them to
// fn and clears the log, all under one exclusive lock so no append
// interleaves with the pass. The log is cleared even when fn fails; a read
// failure leaves it untouched.
func (l *Log) Drain(fn func(records []types.ActionRecord) error) error {
	unlock, err := l.exclusive()
	if err != nil {
		return err
	}
	defer unlock()

	records, err := l.readLocked()
	if err != nil {
		return err
	}
	fnErr := fn(records)
	if err := l.clearLocked(); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}
