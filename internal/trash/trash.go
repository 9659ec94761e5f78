// Package trash moves files into the user's FreeDesktop trash
// ($XDG_DATA_HOME/Trash) and finds them again on restore.
package trash

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pawku/internal/fsutil"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

const (
	filesDir   = "files"
	infoDir    = "info"
	infoSuffix = ".trashinfo"
	infoHeader = "[Trash Info]"
	timeLayout = "2006-01-02T15:04:05"
)

// CommandRunner runs an external program. It matches exec.CommandContext
// followed by CombinedOutput and exists so tests can replace it.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Store is a types.TrashStore backed by a FreeDesktop trash directory.
type Store struct {
	dir     string
	command []string
	run     CommandRunner
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCommand makes MoveToTrash shell out to an external trash command
// (for example "gio trash") instead of moving the file itself. The file
// path is appended as the last argument.
func WithCommand(command string, run CommandRunner) Option {
	return func(s *Store) {
		s.command = strings.Fields(command)
		if run != nil {
			s.run = run
		}
	}
}

// WithClock overrides the deletion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store rooted at dir, normally ~/.local/share/Trash.
func New(dir string, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		run:    ExecRunner,
		now:    time.Now,
		logger: logger.With().Str("component", "trash").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the trash root.
func (s *Store) Dir() string { return s.dir }

// FilesDir returns the directory holding trashed files.
func (s *Store) FilesDir() string { return filepath.Join(s.dir, filesDir) }

// InfoDir returns the directory holding .trashinfo files.
func (s *Store) InfoDir() string { return filepath.Join(s.dir, infoDir) }

// MoveToTrash moves path into the trash and writes its .trashinfo. A file
// on another filesystem is copied into the trash and then removed.
func (s *Store) MoveToTrash(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return fmt.Errorf("trashing %s: %w", abs, err)
	}

	if len(s.command) > 0 {
		args := append(append([]string{}, s.command[1:]...), abs)
		out, err := s.run(ctx, s.command[0], args...)
		if err != nil {
			return fmt.Errorf("%w: %s: %v: %s", types.ErrTrashUnavailable, s.command[0], err, strings.TrimSpace(string(out)))
		}
		return nil
	}

	if err := os.MkdirAll(s.FilesDir(), 0o700); err != nil {
		return fmt.Errorf("%w: %w", types.ErrTrashUnavailable, err)
	}
	if err := os.MkdirAll(s.InfoDir(), 0o700); err != nil {
		return fmt.Errorf("%w: %w", types.ErrTrashUnavailable, err)
	}

	name, infoFile, err := s.reserveName(filepath.Base(abs), abs)
	if err != nil {
		return err
	}
	dest := filepath.Join(s.FilesDir(), name)
	if err := fsutil.MoveNoReplace(abs, dest); err != nil {
		os.Remove(infoFile)
		if errors.Is(err, syscall.EXDEV) {
			return fmt.Errorf("%w: %s is on another filesystem and is not a regular file", types.ErrTrashUnavailable, abs)
		}
		return fmt.Errorf("moving %s to trash: %w", abs, err)
	}
	s.logger.Debug().Str("path", abs).Str("trashed_as", name).Msg("moved to trash")
	return nil
}

// reserveName claims a free name by creating its .trashinfo exclusively.
// Colliding names get a numeric suffix before the extension.
func (s *Store) reserveName(base, original string) (string, string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	info := fmt.Sprintf("%s\nPath=%s\nDeletionDate=%s\n", infoHeader, escapePath(original), s.now().Format(timeLayout))

	for i := 1; i < 10000; i++ {
		name := base
		if i > 1 {
			name = stem + "." + strconv.Itoa(i) + ext
		}
		if _, err := os.Lstat(filepath.Join(s.FilesDir(), name)); err == nil {
			continue
		}
		infoFile := filepath.Join(s.InfoDir(), name+infoSuffix)
		f, err := os.OpenFile(infoFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("%w: writing trash info: %w", types.ErrTrashUnavailable, err)
		}
		_, werr := f.WriteString(info)
		cerr := f.Close()
		if err := errors.Join(werr, cerr); err != nil {
			os.Remove(infoFile)
			return "", "", fmt.Errorf("%w: writing trash info: %w", types.ErrTrashUnavailable, err)
		}
		return name, infoFile, nil
	}
	return "", "", fmt.Errorf("%w: no free name for %s", types.ErrTrashUnavailable, base)
}

// Lookup finds the trashed copy of originalPath. Entries whose .trashinfo
// records that exact path win, newest deletion first; otherwise a file in
// the trash with the same basename is used.
func (s *Store) Lookup(originalPath string) (types.TrashEntry, error) {
	if entry, ok := s.lookupByInfo(originalPath); ok {
		return entry, nil
	}

	base := filepath.Base(originalPath)
	candidate := filepath.Join(s.FilesDir(), base)
	if _, err := os.Lstat(candidate); err == nil {
		entry := types.TrashEntry{Path: candidate}
		infoFile := filepath.Join(s.InfoDir(), base+infoSuffix)
		if _, err := os.Stat(infoFile); err == nil {
			entry.InfoPath = infoFile
		}
		return entry, nil
	}
	return types.TrashEntry{}, fmt.Errorf("%w: %s not found in %s", types.ErrMissingTarget, base, s.FilesDir())
}

type infoMatch struct {
	entry   types.TrashEntry
	deleted time.Time
}

func (s *Store) lookupByInfo(originalPath string) (types.TrashEntry, bool) {
	infos, err := filepath.Glob(filepath.Join(s.InfoDir(), "*"+infoSuffix))
	if err != nil || len(infos) == 0 {
		return types.TrashEntry{}, false
	}

	var matches []infoMatch
	for _, infoFile := range infos {
		path, deleted, err := readInfo(infoFile)
		if err != nil {
			s.logger.Debug().Err(err).Str("info", infoFile).Msg("unreadable trash info")
			continue
		}
		if path != originalPath {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(infoFile), infoSuffix)
		trashed := filepath.Join(s.FilesDir(), name)
		if _, err := os.Lstat(trashed); err != nil {
			continue
		}
		matches = append(matches, infoMatch{
			entry:   types.TrashEntry{Path: trashed, InfoPath: infoFile, OriginalPath: path},
			deleted: deleted,
		})
	}
	if len(matches) == 0 {
		return types.TrashEntry{}, false
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].deleted.After(matches[j].deleted) })
	return matches[0].entry, true
}

// Restore moves entry back to dest and removes its .trashinfo. An existing
// file at dest is never overwritten.
func (s *Store) Restore(entry types.TrashEntry, dest string) error {
	if fsutil.Exists(dest) {
		return fmt.Errorf("%w: %s", types.ErrTargetOccupied, dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("recreating %s: %w", filepath.Dir(dest), err)
	}
	if err := fsutil.MoveNoReplace(entry.Path, dest); err != nil {
		if errors.Is(err, fsutil.ErrExists) {
			return fmt.Errorf("%w: %s", types.ErrTargetOccupied, dest)
		}
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrMissingTarget, entry.Path)
		}
		return fmt.Errorf("restoring %s: %w", dest, err)
	}
	if entry.InfoPath != "" {
		if err := os.Remove(entry.InfoPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("info", entry.InfoPath).Msg("removing trash info")
		}
	}
	return nil
}

func readInfo(path string) (string, time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", time.Time{}, err
	}
	defer f.Close()

	var (
		original string
		deleted  time.Time
		inHeader bool
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inHeader = line == infoHeader
			continue
		}
		if !inHeader {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "Path":
			original, err = unescapePath(value)
			if err != nil {
				return "", time.Time{}, err
			}
		case "DeletionDate":
			deleted, _ = time.ParseInLocation(timeLayout, value, time.Local)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", time.Time{}, err
	}
	if original == "" {
		return "", time.Time{}, fmt.Errorf("no Path in %s", path)
	}
	return original, deleted, nil
}

// escapePath percent-encodes a path the way .trashinfo files store it.
func escapePath(p string) string {
	u := url.URL{Path: p}
	return u.EscapedPath()
}

func unescapePath(p string) (string, error) {
	return url.PathUnescape(p)
}
