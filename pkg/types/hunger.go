package types

import "fmt"

// HungerLevel is the pet's escalation state. Levels only rise on ticks and
// drop back to HungerContent when the pet is fed.
type HungerLevel int

// Hunger levels in escalation order.
const (
	HungerContent HungerLevel = iota
	HungerHungry
	HungerMad
	HungerFurious
)

// MaxHunger is the terminal level.
const MaxHunger = HungerFurious

var hungerNames = [...]string{
	HungerContent: "content",
	HungerHungry:  "hungry",
	HungerMad:     "mad",
	HungerFurious: "furious",
}

// String returns the lower-case level name.
func (h HungerLevel) String() string {
	if !h.Valid() {
		return fmt.Sprintf("hunger(%d)", int(h))
	}
	return hungerNames[h]
}

// Valid reports whether h lies in [HungerContent, HungerFurious].
func (h HungerLevel) Valid() bool {
	return h >= HungerContent && h <= MaxHunger
}

// Next returns the level one step above h, saturating at MaxHunger.
func (h HungerLevel) Next() HungerLevel {
	if h >= MaxHunger {
		return MaxHunger
	}
	return h + 1
}

// ParseHungerLevel converts a level name back to a HungerLevel.
func ParseHungerLevel(s string) (HungerLevel, error) {
	for i, name := range hungerNames {
		if name == s {
			return HungerLevel(i), nil
		}
	}
	return HungerContent, fmt.Errorf("%w: %q", ErrInvalidHungerLevel, s)
}

// MarshalText encodes the level by name so status files stay readable.
func (h HungerLevel) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHungerLevel, int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText decodes a level name.
func (h *HungerLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseHungerLevel(string(b))
	if err != nil {
		return err
	}
	*h = lvl
	return nil
}

// Furious policies decide what a tick does once the pet is already furious.
const (
	// FuriousRefire deletes another file on every tick spent at HungerFurious.
	FuriousRefire = "refire"
	// FuriousSaturate stays at HungerFurious without further action.
	FuriousSaturate = "saturate"
)
