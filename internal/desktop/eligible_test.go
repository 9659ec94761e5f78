package desktop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerFilters(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.png", ".DS_Store", "changes.log", "undo.py"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Folder"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".config"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "b.txt"), filepath.Join(dir, "link.txt")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling")))

	s := NewScanner(dir, filepath.Join(dir, "changes.log"), "undo.py", "/elsewhere/a.png", "")

	files, err := s.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "link.txt"),
	}, files)

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "Folder"),
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "dangling"),
		filepath.Join(dir, "link.txt"),
	}, entries)
}

func TestScannerMissingDesktop(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "nope"))
	_, err := s.Files()
	assert.Error(t, err)
}
