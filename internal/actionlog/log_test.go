package actionlog

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

func openTestLog(t *testing.T, format string) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "data", DefaultFileName), format, zerolog.Nop())
	require.NoError(t, err)
	return l
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestAppendCreatesFileOnFirstWrite(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)

	_, err := os.Stat(l.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist), "log must not exist before first append")

	require.NoError(t, l.Append(types.DeleteRecord("/d/a.txt")))
	assert.Equal(t, "DELETE,/d/a.txt\n", readFile(t, l.Path()))
}

func TestAppendPreservesOrder(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	want := []types.ActionRecord{
		types.RenameRecord("/d/a.txt", "/d/b.txt"),
		types.DeleteRecord("/d/c.txt"),
		types.RenameRecord("/d/b.txt", "/d/e.txt"),
	}
	for _, rec := range want {
		require.NoError(t, l.Append(rec))
	}

	got, err := l.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAppendLegacyDropsReposition(t *testing.T) {
	l := openTestLog(t, types.LogFormatLegacy)
	require.NoError(t, l.Append(types.RenameRecord("/d/a.txt", "/d/b.txt")))
	require.NoError(t, l.Append(types.RepositionRecord("/d/b.txt", nil, types.Point{X: 1, Y: 1})))

	assert.Equal(t, "/d/a.txt,/d/b.txt\n", readFile(t, l.Path()))
}

func TestReadAllMissingLogIsEmpty(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	got, err := l.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadAllSkipsMalformedLines(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	content := "DELETED,/d/a.txt\n\ngarbage\nRENAME,/d/b.txt,/d/c.txt\n/d/x.txt,/d/y.txt\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(content), 0o644))

	got, err := l.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []types.ActionRecord{
		types.DeleteRecord("/d/a.txt"),
		types.RenameRecord("/d/b.txt", "/d/c.txt"),
		types.RenameRecord("/d/x.txt", "/d/y.txt"),
	}, got)
}

func TestCommitRollsBackOnFailedApply(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	require.NoError(t, l.Append(types.DeleteRecord("/d/keep.txt")))
	before := readFile(t, l.Path())

	applyErr := errors.New("rename failed")
	err := l.Commit(types.RenameRecord("/d/a.txt", "/d/b.txt"), func() error {
		// The line is durable before the mutation runs.
		assert.Contains(t, readFile(t, l.Path()), "RENAME,/d/a.txt,/d/b.txt")
		return applyErr
	})
	assert.ErrorIs(t, err, applyErr)
	assert.Equal(t, before, readFile(t, l.Path()))
}

func TestCommitKeepsLineOnSuccess(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	called := false
	err := l.Commit(types.DeleteRecord("/d/a.txt"), func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "DELETE,/d/a.txt\n", readFile(t, l.Path()))
}

func TestCommitInvalidRecordSkipsApply(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	err := l.Commit(types.ActionRecord{Kind: types.ActionDelete}, func() error {
		t.Fatal("apply must not run for an invalid record")
		return nil
	})
	assert.ErrorIs(t, err, types.ErrMalformedRecord)
}

func TestAppendFailureIsLogIOError(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	// A directory where the log file should be makes the open fail.
	require.NoError(t, os.MkdirAll(l.Path(), 0o755))

	err := l.Append(types.DeleteRecord("/d/a.txt"))
	assert.ErrorIs(t, err, types.ErrLogIO)
}

func TestClear(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	require.NoError(t, l.Clear(), "clearing a missing log is a no-op")

	require.NoError(t, l.Append(types.DeleteRecord("/d/a.txt")))
	require.NoError(t, l.Clear())

	assert.Equal(t, "", readFile(t, l.Path()))
	got, err := l.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDrainClearsEvenWhenFnFails(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	require.NoError(t, l.Append(types.RenameRecord("/d/a.txt", "/d/b.txt")))

	fnErr := errors.New("partial restore")
	var seen []types.ActionRecord
	err := l.Drain(func(records []types.ActionRecord) error {
		seen = records
		return fnErr
	})
	assert.ErrorIs(t, err, fnErr)
	assert.Len(t, seen, 1)

	got, err := l.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDrainExcludesConcurrentAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	restorer, err := Open(path, types.LogFormatTagged, zerolog.Nop())
	require.NoError(t, err)
	daemon, err := Open(path, types.LogFormatTagged, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, daemon.Append(types.DeleteRecord("/d/old.txt")))

	late := types.DeleteRecord("/d/late.txt")
	var wg sync.WaitGroup
	appended := make(chan struct{})
	err = restorer.Drain(func(records []types.ActionRecord) error {
		assert.Equal(t, []types.ActionRecord{types.DeleteRecord("/d/old.txt")}, records)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, daemon.Append(late))
			close(appended)
		}()
		select {
		case <-appended:
			t.Error("append completed while the drain held the lock")
		case <-time.After(50 * time.Millisecond):
		}
		return nil
	})
	require.NoError(t, err)
	wg.Wait()

	got, err := restorer.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []types.ActionRecord{late}, got)
}

// startCommit runs Commit in a goroutine whose apply waits for release and
// returns its result. It returns once the line is on disk.
func startCommit(t *testing.T, l *Log, rec types.ActionRecord) (release chan error, done chan error) {
	t.Helper()
	release = make(chan error)
	done = make(chan error, 1)
	entered := make(chan struct{})
	go func() {
		done <- l.Commit(rec, func() error {
			close(entered)
			return <-release
		})
	}()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("commit never reached apply")
	}
	return release, done
}

func TestCommitDoesNotBlockOtherWriters(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	slow := types.DeleteRecord("/d/slow.txt")
	release, done := startCommit(t, l, slow)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		assert.NoError(t, l.Append(types.RepositionRecord("/d/dir", nil, types.Point{X: 1, Y: 2})))
		assert.NoError(t, l.Commit(types.RenameRecord("/d/a.txt", "/d/b.txt"), func() error { return nil }))
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("writers blocked behind a pending action")
	}

	applyErr := errors.New("trash command hung up")
	release <- applyErr
	require.ErrorIs(t, <-done, applyErr)

	got, err := l.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []types.ActionRecord{
		types.RepositionRecord("/d/dir", nil, types.Point{X: 1, Y: 2}),
		types.RenameRecord("/d/a.txt", "/d/b.txt"),
	}, got, "only the failed action's line is removed")
}

func TestDrainWaitsForPendingCommit(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	rec := types.DeleteRecord("/d/a.txt")
	release, done := startCommit(t, l, rec)

	seen := make(chan []types.ActionRecord, 1)
	go func() {
		assert.NoError(t, l.Drain(func(records []types.ActionRecord) error {
			seen <- records
			return nil
		}))
	}()
	select {
	case <-seen:
		t.Fatal("drain ran while an action was pending")
	case <-time.After(50 * time.Millisecond):
	}

	release <- nil
	require.NoError(t, <-done)
	select {
	case records := <-seen:
		assert.Equal(t, []types.ActionRecord{rec}, records)
	case <-time.After(2 * time.Second):
		t.Fatal("drain never ran")
	}
}

func TestCommitRollbackAfterEarlierLineRemoved(t *testing.T) {
	l := openTestLog(t, types.LogFormatTagged)
	require.NoError(t, l.Append(types.DeleteRecord("/d/keep.txt")))
	before := readFile(t, l.Path())

	releaseFirst, doneFirst := startCommit(t, l, types.DeleteRecord("/d/first.txt"))
	releaseSecond, doneSecond := startCommit(t, l, types.DeleteRecord("/d/second.txt"))

	// The first line goes away, moving the second one up.
	firstErr := errors.New("first failed")
	releaseFirst <- firstErr
	require.ErrorIs(t, <-doneFirst, firstErr)

	secondErr := errors.New("second failed")
	releaseSecond <- secondErr
	require.ErrorIs(t, <-doneSecond, secondErr)

	assert.Equal(t, before, readFile(t, l.Path()))
}

func TestFindLine(t *testing.T) {
	data := []byte("DELETE,/d/a\nXDELETE,/d/a\nDELETE,/d/a\n")
	assert.Equal(t, 25, findLine(data, "DELETE,/d/a\n", 25))
	assert.Equal(t, 0, findLine(data, "DELETE,/d/a\n", 24), "a match inside another line is skipped")
	assert.Equal(t, -1, findLine(data, "DELETE,/d/b\n", 25))
}
