// Package pet implements the hunger state machine that decides when the
// pet acts on the desktop.
//
// Hunger rises by at most one level per tick:
//
//	content -> hungry    no action
//	hungry  -> mad       scatter icons
//	mad     -> furious   trash a file
//	furious -> furious   trash another file under the "refire" policy
//
// Feeding resets the pet to content. State changes happen under one mutex;
// desktop actions and event delivery run after it is released.
package pet

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

// Actions are the desktop actions a tick may trigger.
type Actions interface {
	Reposition(ctx context.Context) ([]types.ActionRecord, error)
	DeleteRandom(ctx context.Context) (types.ActionRecord, error)
}

// Action names reported in transitions and events.
const (
	ActionNone       = ""
	ActionReposition = "reposition"
	ActionDelete     = "delete"
)

// Options tune a Pet. Zero values select the defaults.
type Options struct {
	TicksPerLevel int
	FuriousPolicy string
	EventBuffer   int
	// Initial seeds the state, typically from the last status snapshot.
	Initial *Snapshot
	Now     func() time.Time
	Logger  zerolog.Logger
}

// Pet owns the hunger state.
type Pet struct {
	actions       Actions
	ticksPerLevel int
	policy        string
	now           func() time.Time
	logger        zerolog.Logger
	events        chan Event

	mu         sync.Mutex
	level      types.HungerLevel
	ticks      int
	lastFeed   time.Time
	lastTick   time.Time
	lastAction string
	lastErr    string
	dropped    int
}

// New returns a content Pet (or one seeded from opts.Initial).
func New(actions Actions, opts Options) *Pet {
	p := &Pet{
		actions:       actions,
		ticksPerLevel: opts.TicksPerLevel,
		policy:        opts.FuriousPolicy,
		now:           opts.Now,
		logger:        opts.Logger.With().Str("component", "pet").Logger(),
	}
	if p.ticksPerLevel <= 0 {
		p.ticksPerLevel = types.DefaultTicksPerLevel
	}
	if p.policy == "" {
		p.policy = types.FuriousRefire
	}
	if p.now == nil {
		p.now = time.Now
	}
	buf := opts.EventBuffer
	if buf <= 0 {
		buf = 16
	}
	p.events = make(chan Event, buf)

	if s := opts.Initial; s != nil && s.Level.Valid() {
		p.level = s.Level
		p.ticks = min(max(s.TicksAtLevel, 0), p.ticksPerLevel-1)
		p.lastFeed = s.LastFeed
		p.lastTick = s.LastTick
	}
	if p.lastFeed.IsZero() {
		p.lastFeed = p.now()
	}
	return p
}

// Events returns the stream of state changes for the presentation layer.
// Events are dropped, not queued, when the consumer falls behind.
func (p *Pet) Events() <-chan Event { return p.events }

// Snapshot returns a copy of the current state.
func (p *Pet) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pet) snapshotLocked() Snapshot {
	return Snapshot{
		Level:         p.level,
		TicksAtLevel:  p.ticks,
		LastFeed:      p.lastFeed,
		LastTick:      p.lastTick,
		LastAction:    p.lastAction,
		LastError:     p.lastErr,
		DroppedEvents: p.dropped,
	}
}

// Tick advances hunger by one interval and runs the action tied to the
// transition, if any. A failed action is logged and reported in the
// returned Transition; the level change stands regardless.
func (p *Pet) Tick(ctx context.Context) Transition {
	p.mu.Lock()
	from := p.level
	to := from
	if from < types.MaxHunger {
		p.ticks++
		if p.ticks >= p.ticksPerLevel {
			to = from.Next()
			p.ticks = 0
		}
	}
	p.level = to
	p.lastTick = p.now()
	action := actionFor(from, to, p.policy)
	p.mu.Unlock()

	tr := Transition{From: from, To: to, Action: action}
	if from != to {
		p.logger.Info().Stringer("from", from).Stringer("to", to).Msg("hunger rose")
	}

	switch action {
	case ActionReposition:
		tr.Records, tr.Err = p.actions.Reposition(ctx)
	case ActionDelete:
		var rec types.ActionRecord
		rec, tr.Err = p.actions.DeleteRandom(ctx)
		if tr.Err == nil {
			tr.Records = []types.ActionRecord{rec}
		}
	}
	if tr.Err != nil {
		p.logger.Warn().Err(tr.Err).Str("action", action).Stringer("level", to).Msg("action did nothing this cycle")
	}

	p.mu.Lock()
	if action != ActionNone {
		p.lastAction = action
		p.lastErr = ""
		if tr.Err != nil {
			p.lastErr = tr.Err.Error()
		}
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if from != to {
		p.publish(Event{Kind: EventHungerChanged, Snapshot: snap})
	}
	if action != ActionNone {
		p.publish(Event{Kind: EventAction, Snapshot: snap, Action: action, Records: tr.Records, Err: tr.Err})
	}
	return tr
}

// Feed resets the pet to content and returns the level it had before.
// Feeding a content pet only refreshes the feed time.
func (p *Pet) Feed() types.HungerLevel {
	p.mu.Lock()
	prev := p.level
	p.level = types.HungerContent
	p.ticks = 0
	p.lastFeed = p.now()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if prev != types.HungerContent {
		p.logger.Info().Stringer("was", prev).Msg("fed")
		p.publish(Event{Kind: EventFed, Snapshot: snap})
	}
	return prev
}

func (p *Pet) publish(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
	}
}

func actionFor(from, to types.HungerLevel, policy string) string {
	switch {
	case from == types.HungerHungry && to == types.HungerMad:
		return ActionReposition
	case from == types.HungerMad && to == types.HungerFurious:
		return ActionDelete
	case from == types.HungerFurious && to == types.HungerFurious && policy == types.FuriousRefire:
		return ActionDelete
	}
	return ActionNone
}
