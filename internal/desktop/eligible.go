package desktop

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scanner enumerates the desktop folder and filters out hidden entries and
// the pet's own control files.
type Scanner struct {
	dir      string
	excluded map[string]bool
}

// NewScanner returns a Scanner for dir. exclude may hold bare names
// ("undo.py") or absolute paths (the action log); both are matched.
func NewScanner(dir string, exclude ...string) *Scanner {
	s := &Scanner{dir: dir, excluded: make(map[string]bool)}
	for _, e := range exclude {
		if e == "" {
			continue
		}
		if filepath.IsAbs(e) {
			if filepath.Dir(filepath.Clean(e)) != filepath.Clean(dir) {
				continue
			}
			e = filepath.Base(e)
		}
		s.excluded[e] = true
	}
	return s
}

// Dir returns the scanned directory.
func (s *Scanner) Dir() string { return s.dir }

// Files returns absolute paths of visible regular files, sorted by name.
func (s *Scanner) Files() ([]string, error) {
	return s.list(true)
}

// Entries returns absolute paths of every visible entry, directories
// included, sorted by name.
func (s *Scanner) Entries() ([]string, error) {
	return s.list(false)
}

func (s *Scanner) list(filesOnly bool) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("desktop %s not found: %w", s.dir, err)
		}
		return nil, fmt.Errorf("reading desktop %s: %w", s.dir, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || s.excluded[name] {
			continue
		}
		if filesOnly {
			// Follow symlinks the way a file manager would show them.
			info, err := os.Stat(filepath.Join(s.dir, name))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		out = append(out, filepath.Join(s.dir, name))
	}
	return out, nil
}
