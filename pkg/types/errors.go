package types

import "errors"

// Action errors. These are reported and treated as "this cycle did nothing";
// they never abort a tick.
var (
	ErrNoEligibleFiles  = errors.New("no eligible files on the desktop")
	ErrNameCollision    = errors.New("generated name already exists")
	ErrTrashUnavailable = errors.New("trash is not available")
)

// Restore errors. Restore accumulates these as warnings per record.
var (
	ErrMissingTarget  = errors.New("restore target is missing")
	ErrTargetOccupied = errors.New("restore destination is occupied")
)

// ErrLogIO wraps failures to persist or read the action log. An append
// failure means a destructive action cannot be undone, so it is surfaced
// instead of swallowed.
var ErrLogIO = errors.New("action log I/O failed")

// ErrMalformedRecord is returned for log lines or records that cannot be
// interpreted.
var ErrMalformedRecord = errors.New("malformed action record")

// ErrResolutionProbeFailed is logged when the screen size cannot be
// detected. Callers fall back to a fixed resolution instead of failing.
var ErrResolutionProbeFailed = errors.New("screen resolution probe failed")

// ErrInvalidHungerLevel is returned when parsing an unknown level name.
var ErrInvalidHungerLevel = errors.New("invalid hunger level")

// ErrDaemonNotRunning is returned when a command needs the daemon and no
// live process was found.
var ErrDaemonNotRunning = errors.New("pawku daemon is not running")
