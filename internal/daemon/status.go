package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/mesh-intelligence/pawku/internal/fsutil"
	"github.com/mesh-intelligence/pawku/internal/pet"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

// Status is the content of the status file.
type Status struct {
	Running   bool         `json:"running"`
	PID       int          `json:"pid"`
	StartedAt time.Time    `json:"started_at,omitzero"`
	UpdatedAt time.Time    `json:"updated_at"`
	LastEvent string       `json:"last_event,omitempty"`
	Pet       pet.Snapshot `json:"pet"`
}

// WriteStatus atomically replaces the status file at path.
func WriteStatus(path string, st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	return fsutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}

// ReadStatus loads the status file at path. A missing file returns
// os.ErrNotExist.
func ReadStatus(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Status{}, err
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return st, nil
}

// LastSnapshot returns the pet state saved by the previous daemon in
// dataDir, or nil when there is none worth resuming.
func LastSnapshot(dataDir string) *pet.Snapshot {
	st, err := ReadStatus(filepath.Join(dataDir, StatusFileName))
	if err != nil || !st.Pet.Level.Valid() {
		return nil
	}
	return &st.Pet
}

// IsRunning reports whether a daemon owns dataDir, and its pid. The
// instance lock decides: a pid file nobody holds the lock for is stale
// (its process crashed and the pid may since have been reused) and is
// removed.
func IsRunning(dataDir string) (bool, int, error) {
	pidFile := filepath.Join(dataDir, PidFileName)
	data, err := os.ReadFile(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("reading PID file: %w", err)
	}

	held, err := lockHeld(filepath.Join(dataDir, LockFileName))
	if err != nil {
		return false, 0, err
	}
	if !held {
		_ = os.Remove(pidFile)
		return false, 0, nil
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return false, 0, fmt.Errorf("invalid PID in file %q: %w", pidStr, err)
	}
	if !processAlive(pid) {
		_ = os.Remove(pidFile)
		return false, 0, nil
	}
	return true, pid, nil
}

// lockHeld reports whether another open file holds the instance lock.
func lockHeld(path string) (bool, error) {
	probe := flock.New(path)
	locked, err := probe.TryLock()
	if err != nil {
		return false, fmt.Errorf("checking instance lock: %w", err)
	}
	if !locked {
		return true, nil
	}
	if err := probe.Unlock(); err != nil {
		return false, fmt.Errorf("releasing instance lock: %w", err)
	}
	return false, nil
}

// SendFeed asks the daemon owning dataDir to feed the pet.
func SendFeed(dataDir string) (int, error) {
	running, pid, err := IsRunning(dataDir)
	if err != nil {
		return 0, err
	}
	if !running {
		return 0, types.ErrDaemonNotRunning
	}
	if err := signalFeed(pid); err != nil {
		return pid, fmt.Errorf("signaling pid %d: %w", pid, err)
	}
	return pid, nil
}
