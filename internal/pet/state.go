package pet

import (
	"time"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

// Snapshot is a point-in-time copy of the pet's state.
type Snapshot struct {
	Level         types.HungerLevel `json:"level"`
	TicksAtLevel  int               `json:"ticks_at_level"`
	LastFeed      time.Time         `json:"last_feed"`
	LastTick      time.Time         `json:"last_tick,omitzero"`
	LastAction    string            `json:"last_action,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
	DroppedEvents int               `json:"dropped_events,omitempty"`
}

// Transition is the outcome of one tick.
type Transition struct {
	From    types.HungerLevel
	To      types.HungerLevel
	Action  string
	Records []types.ActionRecord
	Err     error
}

// Changed reports whether the tick raised the level.
func (t Transition) Changed() bool { return t.From != t.To }

// EventKind classifies events.
type EventKind string

// Event kinds.
const (
	EventHungerChanged EventKind = "hunger"
	EventFed           EventKind = "fed"
	EventAction        EventKind = "action"
)

// Event tells the presentation layer something changed. Snapshot is the
// state right after the change.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Action   string
	Records  []types.ActionRecord
	Err      error
}
