package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pawku/internal/actionlog"
	"github.com/mesh-intelligence/pawku/internal/daemon"
	"github.com/mesh-intelligence/pawku/internal/desktop"
	"github.com/mesh-intelligence/pawku/internal/history"
	"github.com/mesh-intelligence/pawku/internal/trash"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

func openActionLog(cfg types.Config, logger zerolog.Logger) (*actionlog.Log, error) {
	return actionlog.Open(filepath.Join(cfg.DataDir, actionlog.DefaultFileName), cfg.LogFormat, logger)
}

func newTrashStore(cfg types.Config, logger zerolog.Logger) *trash.Store {
	var opts []trash.Option
	if cfg.Trash.Command != "" {
		opts = append(opts, trash.WithCommand(cfg.Trash.Command, nil))
	}
	return trash.New(cfg.Trash.Dir, logger, opts...)
}

func openHistory(cfg types.Config, logger zerolog.Logger) (*history.Store, error) {
	return history.Open(filepath.Join(cfg.DataDir, history.DefaultFileName), logger)
}

// newExecutor wires the desktop executor. The pet's own files are never
// eligible, in case the data directory is the desktop itself.
func newExecutor(cfg types.Config, log *actionlog.Log, store types.TrashStore, logger zerolog.Logger) (*desktop.Executor, error) {
	exclude := []string{
		log.Path(),
		log.LockPath(),
		log.PendingPath(),
		filepath.Join(cfg.DataDir, daemon.PidFileName),
		filepath.Join(cfg.DataDir, daemon.LockFileName),
		filepath.Join(cfg.DataDir, daemon.StatusFileName),
		filepath.Join(cfg.DataDir, history.DefaultFileName),
	}
	exclude = append(exclude, cfg.Exclude...)

	return desktop.New(desktop.Config{
		Scanner:    desktop.NewScanner(cfg.DesktopDir, exclude...),
		Log:        log,
		Trash:      store,
		Positioner: desktop.NewGioPositioner(nil),
		Prober:     desktop.NewXrandrProber(nil),
		Adjectives: cfg.Words.Adjectives,
		Nouns:      cfg.Words.Nouns,
		Screen:     cfg.Screen,
		Logger:     logger,
	})
}
