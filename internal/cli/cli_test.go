package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pawku/internal/actionlog"
	"github.com/mesh-intelligence/pawku/internal/config"
	"github.com/mesh-intelligence/pawku/pkg/pawku"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

type sandbox struct {
	root, configDir, dataDir, desktop string
}

func newSandbox(t *testing.T) sandbox {
	t.Helper()
	root := t.TempDir()
	s := sandbox{
		root:      root,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
		desktop:   filepath.Join(root, "Desktop"),
	}
	require.NoError(t, os.MkdirAll(s.desktop, 0o755))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "xdg-data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "xdg-config"))
	t.Setenv("PAWKU_DATA_DIR", "")
	t.Setenv("PAWKU_DESKTOP_DIR", "")
	t.Setenv("PAWKU_LOG_FORMAT", "")
	return s
}

// run executes pawku with the sandbox directories and returns stdout.
func (s sandbox) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{
		"--config-dir", s.configDir,
		"--data-dir", s.dataDir,
		"--desktop-dir", s.desktop,
		"--log-level", "error",
	}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (s sandbox) file(name string) string { return filepath.Join(s.desktop, name) }

func (s sandbox) actionLog(t *testing.T) *actionlog.Log {
	t.Helper()
	l, err := actionlog.Open(filepath.Join(s.dataDir, actionlog.DefaultFileName), types.LogFormatTagged, zerolog.Nop())
	require.NoError(t, err)
	return l
}

func TestVersion(t *testing.T) {
	s := newSandbox(t)
	out, err := s.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "pawku v"+pawku.Version+"\nmodule: "+pawku.ModulePath+"\n", out)
}

func TestInit(t *testing.T) {
	s := newSandbox(t)
	out, err := s.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Pawku initialized successfully")
	assert.FileExists(t, filepath.Join(s.configDir, config.FileName))
	assert.DirExists(t, s.dataDir)
	assert.FileExists(t, filepath.Join(s.dataDir, "history.db"))

	data, err := os.ReadFile(filepath.Join(s.configDir, config.FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "desktop_dir: "+s.desktop)

	out, err = s.run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestLogAndRestore(t *testing.T) {
	s := newSandbox(t)
	require.NoError(t, os.WriteFile(s.file("notes.txt"), []byte("hi"), 0o644))

	l := s.actionLog(t)
	rec := types.RenameRecord(s.file("notes.txt"), s.file("Liminal_Echo.txt"))
	require.NoError(t, l.Commit(rec, func() error { return os.Rename(rec.OriginalPath, rec.NewPath) }))
	require.NoError(t, l.Append(types.RepositionRecord(s.file("Liminal_Echo.txt"), nil, types.Point{X: 3, Y: 4})))

	out, err := s.run(t, "log")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "rename")
	assert.Contains(t, lines[1], "2 - move icon")

	out, err = s.run(t, "restore")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 1 of 2 actions (1 skipped, 0 failed)")
	assert.FileExists(t, s.file("notes.txt"))
	assert.NoFileExists(t, s.file("Liminal_Echo.txt"))

	out, err = s.run(t, "log")
	require.NoError(t, err)
	assert.Equal(t, "The action log is empty\n", out)

	out, err = s.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "restored 1/2")
}

func TestRestoreJSONReportsWarnings(t *testing.T) {
	s := newSandbox(t)
	l := s.actionLog(t)
	require.NoError(t, l.Append(types.RenameRecord(s.file("a.txt"), s.file("gone.txt"))))

	out, err := s.run(t, "--json", "restore")
	require.NoError(t, err)

	var doc reportJSON
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Total)
	assert.Equal(t, 1, doc.Failed)
	require.Len(t, doc.Warnings, 1)
	assert.Contains(t, doc.Warnings[0].Error, "missing")
}

func TestRestoreEmpty(t *testing.T) {
	s := newSandbox(t)
	out, err := s.run(t, "restore")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to restore\n", out)
}

func TestStatusNotRunning(t *testing.T) {
	s := newSandbox(t)
	out, err := s.run(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "Pawku is not running\n", out)

	out, err = s.run(t, "--json", "status")
	require.NoError(t, err)
	var doc statusJSON
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.False(t, doc.Running)
	assert.Nil(t, doc.Status)
}

func TestFeedNotRunning(t *testing.T) {
	s := newSandbox(t)
	_, err := s.run(t, "feed")
	require.ErrorIs(t, err, types.ErrDaemonNotRunning)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestRunMissingDesktop(t *testing.T) {
	s := newSandbox(t)
	require.NoError(t, os.RemoveAll(s.desktop))
	_, err := s.run(t, "run", "--tick", "1s")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestInvalidConfigIsUserError(t *testing.T) {
	s := newSandbox(t)
	require.NoError(t, os.MkdirAll(s.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.configDir, config.FileName), []byte("log_format: xml\n"), 0o644))

	_, err := s.run(t, "log")
	require.ErrorIs(t, err, types.ErrLogFormatUnknown)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestHistoryShowUnknownRun(t *testing.T) {
	s := newSandbox(t)
	_, err := s.run(t, "history", "show", "nope")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitSysError, exitCode(sysError(os.ErrPermission)))
	assert.Equal(t, exitUserError, exitCode(os.ErrNotExist))
}
