package trash

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setup(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	desktop := filepath.Join(root, "Desktop")
	require.NoError(t, os.MkdirAll(desktop, 0o755))
	return New(filepath.Join(root, "Trash"), zerolog.Nop(), opts...), desktop
}

func TestMoveToTrashWritesInfo(t *testing.T) {
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)
	s, desktop := setup(t, WithClock(func() time.Time { return fixed }))
	victim := filepath.Join(desktop, "my notes.txt")
	writeFile(t, victim, "hello")

	require.NoError(t, s.MoveToTrash(context.Background(), victim))

	_, err := os.Stat(victim)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	data, err := os.ReadFile(filepath.Join(s.FilesDir(), "my notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := os.ReadFile(filepath.Join(s.InfoDir(), "my notes.txt.trashinfo"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "[Trash Info]")
	assert.Contains(t, string(info), "Path="+escapePath(victim))
	assert.Contains(t, string(info), "DeletionDate=2026-03-04T05:06:07")
	assert.Contains(t, string(info), "%20", "spaces are percent-encoded")
}

func TestMoveToTrashCollisionGetsSuffix(t *testing.T) {
	s, desktop := setup(t)
	first := filepath.Join(desktop, "a.txt")
	writeFile(t, first, "one")
	require.NoError(t, s.MoveToTrash(context.Background(), first))

	writeFile(t, first, "two")
	require.NoError(t, s.MoveToTrash(context.Background(), first))

	data, err := os.ReadFile(filepath.Join(s.FilesDir(), "a.2.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	assert.FileExists(t, filepath.Join(s.InfoDir(), "a.2.txt.trashinfo"))
}

func TestMoveToTrashMissingFile(t *testing.T) {
	s, desktop := setup(t)
	err := s.MoveToTrash(context.Background(), filepath.Join(desktop, "ghost.txt"))
	assert.Error(t, err)
}

func TestMoveToTrashUnavailable(t *testing.T) {
	root := t.TempDir()
	// A regular file where the trash directory should be.
	blocker := filepath.Join(root, "Trash")
	writeFile(t, blocker, "")
	victim := filepath.Join(root, "Desktop", "a.txt")
	writeFile(t, victim, "x")

	s := New(blocker, zerolog.Nop())
	err := s.MoveToTrash(context.Background(), victim)
	assert.ErrorIs(t, err, types.ErrTrashUnavailable)
	assert.FileExists(t, victim)
}

func TestMoveToTrashWithCommand(t *testing.T) {
	var gotName string
	var gotArgs []string
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	}
	s, desktop := setup(t, WithCommand("gio trash", run))
	victim := filepath.Join(desktop, "a.txt")
	writeFile(t, victim, "x")

	require.NoError(t, s.MoveToTrash(context.Background(), victim))
	assert.Equal(t, "gio", gotName)
	assert.Equal(t, []string{"trash", victim}, gotArgs)
}

func TestMoveToTrashCommandFailure(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("gio: not supported"), errors.New("exit status 1")
	}
	s, desktop := setup(t, WithCommand("gio trash", run))
	victim := filepath.Join(desktop, "a.txt")
	writeFile(t, victim, "x")

	err := s.MoveToTrash(context.Background(), victim)
	assert.ErrorIs(t, err, types.ErrTrashUnavailable)
	assert.Contains(t, err.Error(), "not supported")
}

func TestLookupPrefersInfoMatch(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	s, desktop := setup(t, WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))

	victim := filepath.Join(desktop, "a.txt")
	writeFile(t, victim, "old")
	require.NoError(t, s.MoveToTrash(context.Background(), victim))
	writeFile(t, victim, "new")
	require.NoError(t, s.MoveToTrash(context.Background(), victim))

	entry, err := s.Lookup(victim)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.FilesDir(), "a.2.txt"), entry.Path, "newest deletion wins")
	assert.Equal(t, victim, entry.OriginalPath)
}

func TestLookupFallsBackToBasename(t *testing.T) {
	s, _ := setup(t)
	writeFile(t, filepath.Join(s.FilesDir(), "photo.png"), "img")

	entry, err := s.Lookup("/somewhere/else/photo.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.FilesDir(), "photo.png"), entry.Path)
	assert.Empty(t, entry.InfoPath)
}

func TestLookupMissing(t *testing.T) {
	s, _ := setup(t)
	_, err := s.Lookup("/d/none.txt")
	assert.ErrorIs(t, err, types.ErrMissingTarget)
}

func TestRestoreRoundTrip(t *testing.T) {
	s, desktop := setup(t)
	victim := filepath.Join(desktop, "a.txt")
	writeFile(t, victim, "data")
	require.NoError(t, s.MoveToTrash(context.Background(), victim))

	entry, err := s.Lookup(victim)
	require.NoError(t, err)
	require.NoError(t, s.Restore(entry, victim))

	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	assert.NoFileExists(t, entry.InfoPath)
	assert.NoFileExists(t, entry.Path)
}

func TestRestoreRefusesOccupiedDestination(t *testing.T) {
	s, desktop := setup(t)
	victim := filepath.Join(desktop, "a.txt")
	writeFile(t, victim, "trashed")
	require.NoError(t, s.MoveToTrash(context.Background(), victim))
	writeFile(t, victim, "replacement")

	entry, err := s.Lookup(victim)
	require.NoError(t, err)
	err = s.Restore(entry, victim)
	assert.ErrorIs(t, err, types.ErrTargetOccupied)

	data, err := os.ReadFile(victim)
	require.NoError(t, err)
	assert.Equal(t, "replacement", string(data))
}

func TestReadInfoIgnoresOtherSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.trashinfo")
	content := strings.Join([]string{
		"[Other]",
		"Path=/wrong",
		"[Trash Info]",
		"Path=/home/u/Desktop/a%20b.txt",
		"DeletionDate=2026-01-02T03:04:05",
	}, "\n")
	writeFile(t, path, content)

	original, deleted, err := readInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "/home/u/Desktop/a b.txt", original)
	assert.Equal(t, 2026, deleted.Year())
}
