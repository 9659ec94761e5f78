package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pawku/internal/pet"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

type fakeActions struct {
	deletes atomic.Int32
}

func (f *fakeActions) Reposition(context.Context) ([]types.ActionRecord, error) {
	return nil, types.ErrNoEligibleFiles
}

func (f *fakeActions) DeleteRandom(context.Context) (types.ActionRecord, error) {
	f.deletes.Add(1)
	return types.DeleteRecord("/d/x.txt"), nil
}

type fakeMischief struct{ calls atomic.Int32 }

func (f *fakeMischief) Mischief(context.Context) ([]types.ActionRecord, error) {
	f.calls.Add(1)
	return nil, nil
}

type running struct {
	d      *Daemon
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, cfg Config, p *pet.Pet, m Mischiefer) running {
	t.Helper()
	if testing.Short() {
		t.Skip("starts a live daemon")
	}
	cfg.Logger = zerolog.Nop()
	d := New(cfg, p, m)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	require.Eventually(t, func() bool {
		_, err := os.Stat(d.PidFile())
		return err == nil
	}, 2*time.Second, 5*time.Millisecond, "daemon never wrote its pid file")
	r := running{d: d, cancel: cancel, done: done}
	t.Cleanup(func() { r.stop(t) })
	return r
}

func (r running) stop(t *testing.T) {
	t.Helper()
	r.cancel()
	select {
	case err := <-r.done:
		require.NoError(t, err)
		r.done <- nil // keep later stop calls from blocking
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func newPet(actions pet.Actions, opts pet.Options) *pet.Pet {
	opts.Logger = zerolog.Nop()
	return pet.New(actions, opts)
}

func TestRunEscalatesAndWritesStatus(t *testing.T) {
	dir := t.TempDir()
	actions := &fakeActions{}
	r := start(t, Config{DataDir: dir, TickInterval: 5 * time.Millisecond}, newPet(actions, pet.Options{}), nil)

	require.Eventually(t, func() bool {
		st, err := ReadStatus(r.d.StatusFile())
		return err == nil && st.Pet.Level == types.HungerFurious && st.Pet.LastAction == pet.ActionDelete
	}, 2*time.Second, 5*time.Millisecond)

	pidData, err := os.ReadFile(r.d.PidFile())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(pidData))

	r.stop(t)
	assert.NoFileExists(t, r.d.PidFile())
	st, err := ReadStatus(r.d.StatusFile())
	require.NoError(t, err)
	assert.False(t, st.Running)
	assert.Equal(t, "stopped", st.LastEvent)
	assert.Positive(t, actions.deletes.Load())
}

func TestRunRefusesSecondInstance(t *testing.T) {
	dir := t.TempDir()
	start(t, Config{DataDir: dir, TickInterval: time.Hour}, newPet(&fakeActions{}, pet.Options{}), nil)

	second := New(Config{DataDir: dir, Logger: zerolog.Nop()}, newPet(&fakeActions{}, pet.Options{}), nil)
	err := second.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestRunMischief(t *testing.T) {
	m := &fakeMischief{}
	start(t, Config{
		DataDir:          t.TempDir(),
		TickInterval:     time.Hour,
		MischiefInterval: 5 * time.Millisecond,
	}, newPet(&fakeActions{}, pet.Options{}), m)

	require.Eventually(t, func() bool { return m.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestDaemonFeed(t *testing.T) {
	p := newPet(&fakeActions{}, pet.Options{Initial: &pet.Snapshot{Level: types.HungerMad}})
	r := start(t, Config{DataDir: t.TempDir(), TickInterval: time.Hour}, p, nil)

	r.d.Feed()
	assert.Equal(t, types.HungerContent, p.Snapshot().Level)
	require.Eventually(t, func() bool {
		st, err := ReadStatus(r.d.StatusFile())
		return err == nil && st.Pet.Level == types.HungerContent && strings.HasPrefix(st.LastEvent, "fed")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestIsRunning(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, PidFileName)

	running, _, err := IsRunning(dir)
	require.NoError(t, err)
	assert.False(t, running, "no pid file")

	// A live pid without the instance lock belongs to some other process.
	require.NoError(t, os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644))
	running, _, err = IsRunning(dir)
	require.NoError(t, err)
	assert.False(t, running, "pid file without lock holder")
	assert.NoFileExists(t, pidFile, "unowned pid file is cleaned up")

	holder := flock.New(filepath.Join(dir, LockFileName))
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = holder.Unlock() })

	require.NoError(t, os.WriteFile(pidFile, []byte("99999999"), 0o644))
	running, _, err = IsRunning(dir)
	require.NoError(t, err)
	assert.False(t, running, "stale pid")
	assert.NoFileExists(t, pidFile, "stale pid file is cleaned up")

	require.NoError(t, os.WriteFile(pidFile, []byte("not-a-pid"), 0o644))
	_, _, err = IsRunning(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644))
	running, pid, err := IsRunning(dir)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)
}

func TestSendFeedNotRunning(t *testing.T) {
	_, err := SendFeed(t.TempDir())
	assert.ErrorIs(t, err, types.ErrDaemonNotRunning)
}

func TestStatusRoundTripAndLastSnapshot(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, LastSnapshot(dir))

	feed := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	st := Status{
		Running:   true,
		PID:       42,
		UpdatedAt: feed.Add(time.Minute),
		LastEvent: "hunger rose to hungry",
		Pet:       pet.Snapshot{Level: types.HungerHungry, TicksAtLevel: 1, LastFeed: feed},
	}
	require.NoError(t, WriteStatus(filepath.Join(dir, StatusFileName), st))

	got, err := ReadStatus(filepath.Join(dir, StatusFileName))
	require.NoError(t, err)
	assert.Equal(t, st.Pet.Level, got.Pet.Level)
	assert.True(t, got.Pet.LastFeed.Equal(feed))
	assert.Equal(t, "hunger rose to hungry", got.LastEvent)

	snap := LastSnapshot(dir)
	require.NotNil(t, snap)
	assert.Equal(t, types.HungerHungry, snap.Level)
	assert.Equal(t, 1, snap.TicksAtLevel)
}

func TestReadStatusMissing(t *testing.T) {
	_, err := ReadStatus(filepath.Join(t.TempDir(), StatusFileName))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
