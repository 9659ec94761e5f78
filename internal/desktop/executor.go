// Package desktop performs the pet's actions on the desktop folder: giving
// files new names, trashing them, and scattering icons.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/pawku/internal/fsutil"
	"github.com/mesh-intelligence/pawku/pkg/types"
)

// Recorder is the part of the action log the executor writes to.
type Recorder interface {
	Append(rec types.ActionRecord) error
	Commit(rec types.ActionRecord, apply func() error) error
}

// Config wires an Executor. Scanner and Log are required; a nil Trash or
// Positioner makes the corresponding action fail.
type Config struct {
	Scanner    *Scanner
	Log        Recorder
	Trash      types.TrashStore
	Positioner types.IconPositioner
	Prober     types.ScreenProber
	Chooser    Chooser
	Adjectives []string
	Nouns      []string
	Screen     types.ScreenConfig
	Logger     zerolog.Logger
}

// Executor carries out one action per call. It is safe for concurrent use.
type Executor struct {
	scanner    *Scanner
	log        Recorder
	trash      types.TrashStore
	positioner types.IconPositioner
	prober     types.ScreenProber
	chooser    Chooser
	adjectives []string
	nouns      []string
	screen     types.ScreenConfig
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// New validates cfg and returns an Executor.
func New(cfg Config) (*Executor, error) {
	if cfg.Scanner == nil {
		return nil, errors.New("desktop executor: scanner is required")
	}
	if cfg.Log == nil {
		return nil, errors.New("desktop executor: action log is required")
	}
	e := &Executor{
		scanner:    cfg.Scanner,
		log:        cfg.Log,
		trash:      cfg.Trash,
		positioner: cfg.Positioner,
		prober:     cfg.Prober,
		chooser:    cfg.Chooser,
		adjectives: cfg.Adjectives,
		nouns:      cfg.Nouns,
		screen:     cfg.Screen,
		logger:     cfg.Logger.With().Str("component", "executor").Logger(),
	}
	if e.chooser == nil {
		e.chooser = NewRandomChooser()
	}
	if len(e.adjectives) == 0 {
		e.adjectives = DefaultAdjectives
	}
	if len(e.nouns) == 0 {
		e.nouns = DefaultNouns
	}
	if e.screen.FallbackWidth <= 0 || e.screen.FallbackHeight <= 0 {
		e.screen.FallbackWidth = types.DefaultFallbackWidth
		e.screen.FallbackHeight = types.DefaultFallbackHeight
	}
	if e.screen.MovesPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(e.screen.MovesPerSecond), 1)
	}
	return e, nil
}

func (e *Executor) pickFile() (string, error) {
	files, err := e.scanner.Files()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", types.ErrNoEligibleFiles
	}
	return files[e.chooser.IntN(len(files))], nil
}

// NewName draws "{Adjective}_{Noun}{ext}" for a file called base.
func (e *Executor) NewName(base string) string {
	adj := e.adjectives[e.chooser.IntN(len(e.adjectives))]
	noun := e.nouns[e.chooser.IntN(len(e.nouns))]
	return adj + "_" + noun + filepath.Ext(base)
}

// RenameRandom gives a random eligible file an artistic name. A generated
// name that already exists fails with ErrNameCollision and nothing changes;
// callers skip the cycle rather than redraw.
func (e *Executor) RenameRandom(ctx context.Context) (types.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.ActionRecord{}, err
	}
	victim, err := e.pickFile()
	if err != nil {
		return types.ActionRecord{}, err
	}
	newName := e.NewName(filepath.Base(victim))
	newPath := filepath.Join(filepath.Dir(victim), newName)
	if fsutil.Exists(newPath) {
		return types.ActionRecord{}, fmt.Errorf("%w: %s", types.ErrNameCollision, newName)
	}

	rec := types.RenameRecord(victim, newPath)
	err = e.log.Commit(rec, func() error {
		if err := fsutil.RenameNoReplace(victim, newPath); err != nil {
			if errors.Is(err, fsutil.ErrExists) {
				return fmt.Errorf("%w: %s", types.ErrNameCollision, newName)
			}
			return fmt.Errorf("renaming %s: %w", filepath.Base(victim), err)
		}
		return nil
	})
	if err != nil {
		return types.ActionRecord{}, err
	}
	e.logger.Info().Str("from", filepath.Base(victim)).Str("to", newName).Msg("renamed file")
	return rec, nil
}

// DeleteRandom moves a random eligible file to the trash.
func (e *Executor) DeleteRandom(ctx context.Context) (types.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.ActionRecord{}, err
	}
	if e.trash == nil {
		return types.ActionRecord{}, fmt.Errorf("%w: no trash store configured", types.ErrTrashUnavailable)
	}
	victim, err := e.pickFile()
	if err != nil {
		return types.ActionRecord{}, err
	}

	rec := types.DeleteRecord(victim)
	err = e.log.Commit(rec, func() error {
		return e.trash.MoveToTrash(ctx, victim)
	})
	if err != nil {
		return types.ActionRecord{}, err
	}
	e.logger.Info().Str("file", filepath.Base(victim)).Msg("moved file to trash")
	return rec, nil
}

// Reposition assigns every visible desktop entry a random on-screen icon
// position. Entries that fail are logged and skipped; the call fails only
// when nothing could be moved.
func (e *Executor) Reposition(ctx context.Context) ([]types.ActionRecord, error) {
	if e.positioner == nil {
		return nil, errors.New("no icon positioner configured")
	}
	entries, err := e.scanner.Entries()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, types.ErrNoEligibleFiles
	}

	width, height := e.resolution(ctx)
	maxX := max(width-e.screen.MarginX, 0)
	maxY := max(height-e.screen.MarginY, 0)
	locator, _ := e.positioner.(types.IconLocator)

	var (
		records []types.ActionRecord
		lastErr error
		logErrs []error
	)
	for _, path := range entries {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return records, err
			}
		} else if err := ctx.Err(); err != nil {
			return records, err
		}

		pos := types.Point{X: e.chooser.IntN(maxX + 1), Y: e.chooser.IntN(maxY + 1)}
		var old *types.Point
		if locator != nil {
			if p, ok, err := locator.IconPosition(ctx, path); err == nil && ok {
				old = &p
			}
		}
		if err := e.positioner.SetIconPosition(ctx, path, pos); err != nil {
			lastErr = err
			e.logger.Warn().Err(err).Str("entry", filepath.Base(path)).Msg("moving icon")
			continue
		}
		rec := types.RepositionRecord(path, old, pos)
		if err := e.log.Append(rec); err != nil {
			e.logger.Error().Err(err).Str("entry", filepath.Base(path)).Msg("recording icon move")
			logErrs = append(logErrs, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no icons moved (%d entries): %w", len(entries), lastErr)
	}
	e.logger.Info().Int("moved", len(records)).Int("entries", len(entries)).Msg("scattered icons")
	return records, errors.Join(logErrs...)
}

// resolution probes the screen once, falling back to the configured size.
func (e *Executor) resolution(ctx context.Context) (int, int) {
	if e.prober != nil {
		w, h, err := e.prober.ScreenResolution(ctx)
		if err == nil && w > 0 && h > 0 {
			return w, h
		}
		if err == nil {
			err = fmt.Errorf("implausible size %dx%d", w, h)
		}
		e.logger.Warn().
			Err(fmt.Errorf("%w: %w", types.ErrResolutionProbeFailed, err)).
			Int("fallback_width", e.screen.FallbackWidth).
			Int("fallback_height", e.screen.FallbackHeight).
			Msg("using fallback resolution")
	}
	return e.screen.FallbackWidth, e.screen.FallbackHeight
}

// Mischief is the idle action: rename a file or scatter the icons, chosen
// uniformly.
func (e *Executor) Mischief(ctx context.Context) ([]types.ActionRecord, error) {
	if e.chooser.IntN(2) == 0 {
		rec, err := e.RenameRandom(ctx)
		if err != nil {
			return nil, err
		}
		return []types.ActionRecord{rec}, nil
	}
	return e.Reposition(ctx)
}
