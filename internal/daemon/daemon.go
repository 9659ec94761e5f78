// Package daemon runs the pet in the background: it ticks hunger, plays
// idle mischief, reacts to feed signals and keeps a status file current.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pawku/internal/pet"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

// File names inside the data directory.
const (
	PidFileName    = "pawku.pid"
	LockFileName   = "pawku.lock"
	StatusFileName = "state.json"
)

// ErrAlreadyRunning is returned by Run when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("pawku is already running")

// Mischiefer performs the idle action between hunger ticks.
type Mischiefer interface {
	Mischief(ctx context.Context) ([]types.ActionRecord, error)
}

// Config wires a Daemon.
type Config struct {
	DataDir string
	// TickInterval is the hunger tick period.
	TickInterval time.Duration
	// MischiefInterval is the idle action period; zero disables it.
	MischiefInterval time.Duration
	Logger           zerolog.Logger
}

// Daemon owns the workers. Create one per process with New.
type Daemon struct {
	cfg      Config
	pet      *pet.Pet
	mischief Mischiefer
	logger   zerolog.Logger

	statusMu  sync.Mutex
	startedAt time.Time
	lastEvent string
}

// New returns a Daemon driving p. m may be nil.
func New(cfg Config, p *pet.Pet, m Mischiefer) *Daemon {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = types.DefaultTickInterval
	}
	return &Daemon{
		cfg:      cfg,
		pet:      p,
		mischief: m,
		logger:   cfg.Logger.With().Str("component", "daemon").Logger(),
	}
}

// PidFile returns the pid file path.
func (d *Daemon) PidFile() string { return filepath.Join(d.cfg.DataDir, PidFileName) }

// StatusFile returns the status file path.
func (d *Daemon) StatusFile() string { return filepath.Join(d.cfg.DataDir, StatusFileName) }

// Run blocks until ctx is canceled. It refuses to start when another daemon
// holds the lock in the same data directory.
func (d *Daemon) Run(ctx context.Context) error {
	if err := os.MkdirAll(d.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	fileLock := flock.New(filepath.Join(d.cfg.DataDir, LockFileName))
	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	defer func() { _ = fileLock.Unlock() }()

	// Listen before the pid file exists so a feed sent right after start is
	// not lost.
	sigCh := make(chan os.Signal, 1)
	if sigs := feedSignals(); len(sigs) > 0 {
		signal.Notify(sigCh, sigs...)
		defer signal.Stop(sigCh)
	}

	if err := os.WriteFile(d.PidFile(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(d.PidFile()) }()

	d.startedAt = time.Now()
	d.logger.Info().
		Int("pid", os.Getpid()).
		Dur("tick", d.cfg.TickInterval).
		Dur("mischief", d.cfg.MischiefInterval).
		Msg("pet is awake")
	d.writeStatus(true, "started")

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
			d.logger.Debug().Str("worker", name).Msg("worker stopped")
		}()
	}
	run("hunger", d.hungerLoop)
	if d.mischief != nil && d.cfg.MischiefInterval > 0 {
		run("mischief", d.mischiefLoop)
	}
	run("events", d.eventLoop)
	run("signals", func(ctx context.Context) { d.signalLoop(ctx, sigCh) })

	<-ctx.Done()
	wg.Wait()
	d.writeStatus(false, "stopped")
	d.logger.Info().Msg("pet is asleep")
	return nil
}

// Feed resets the pet's hunger.
func (d *Daemon) Feed() {
	prev := d.pet.Feed()
	d.writeStatus(true, "fed (was "+prev.String()+")")
}

func (d *Daemon) hungerLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tr := d.pet.Tick(ctx)
			if !tr.Changed() && tr.Action == pet.ActionNone {
				d.writeStatus(true, "")
			}
		}
	}
}

func (d *Daemon) mischiefLoop(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.MischiefInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			records, err := d.mischief.Mischief(ctx)
			switch {
			case errors.Is(err, context.Canceled):
				return
			case err != nil:
				d.logger.Warn().Err(err).Msg("mischief did nothing this cycle")
			default:
				d.logger.Debug().Int("records", len(records)).Msg("mischief done")
			}
		}
	}
}

func (d *Daemon) eventLoop(ctx context.Context) {
	events := d.pet.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			d.writeStatus(true, describe(ev))
		}
	}
}

func (d *Daemon) signalLoop(ctx context.Context, sigCh <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			d.logger.Info().Str("signal", sig.String()).Msg("feed requested")
			d.Feed()
		}
	}
}

func describe(ev pet.Event) string {
	switch ev.Kind {
	case pet.EventHungerChanged:
		return "hunger rose to " + ev.Snapshot.Level.String()
	case pet.EventFed:
		return "fed"
	case pet.EventAction:
		if ev.Err != nil {
			return ev.Action + " failed: " + ev.Err.Error()
		}
		return fmt.Sprintf("%s (%d records)", ev.Action, len(ev.Records))
	}
	return string(ev.Kind)
}

// writeStatus snapshots the pet to the status file. An empty event keeps
// the previous description.
func (d *Daemon) writeStatus(running bool, event string) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	if event != "" {
		d.lastEvent = event
	}
	st := Status{
		Running:   running,
		PID:       os.Getpid(),
		StartedAt: d.startedAt,
		UpdatedAt: time.Now(),
		LastEvent: d.lastEvent,
		Pet:       d.pet.Snapshot(),
	}
	if err := WriteStatus(d.StatusFile(), st); err != nil {
		d.logger.Error().Err(err).Msg("writing status file")
	}
}
