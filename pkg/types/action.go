package types

import (
	"fmt"
	"path/filepath"
)

// ActionKind tags an ActionRecord. The values double as the tags written to
// the action log.
type ActionKind string

// Action kinds.
const (
	ActionRename     ActionKind = "RENAME"
	ActionDelete     ActionKind = "DELETE"
	ActionReposition ActionKind = "REPOSITION"
)

// Point is an icon position in screen pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String formats the point the way desktop metadata stores it ("x,y").
func (p Point) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// ActionRecord describes one mutation performed on the desktop.
//
// RENAME uses OriginalPath and NewPath. DELETE uses OriginalPath only; the
// trash location is derived, never stored. REPOSITION uses OriginalPath,
// Position and, when it was known, OldPosition.
type ActionRecord struct {
	Kind         ActionKind `json:"kind"`
	OriginalPath string     `json:"original_path"`
	NewPath      string     `json:"new_path,omitempty"`
	Position     Point      `json:"position,omitzero"`
	OldPosition  *Point     `json:"old_position,omitempty"`
}

// RenameRecord builds a RENAME record.
func RenameRecord(originalPath, newPath string) ActionRecord {
	return ActionRecord{Kind: ActionRename, OriginalPath: originalPath, NewPath: newPath}
}

// DeleteRecord builds a DELETE record.
func DeleteRecord(originalPath string) ActionRecord {
	return ActionRecord{Kind: ActionDelete, OriginalPath: originalPath}
}

// RepositionRecord builds a REPOSITION record. old may be nil.
func RepositionRecord(path string, old *Point, pos Point) ActionRecord {
	return ActionRecord{Kind: ActionReposition, OriginalPath: path, Position: pos, OldPosition: old}
}

// Reversible reports whether a restore pass can undo the record.
func (r ActionRecord) Reversible() bool {
	return r.Kind == ActionRename || r.Kind == ActionDelete
}

// Validate checks that the record carries the fields its kind requires.
func (r ActionRecord) Validate() error {
	switch r.Kind {
	case ActionRename:
		if r.OriginalPath == "" || r.NewPath == "" {
			return fmt.Errorf("%w: rename needs both paths", ErrMalformedRecord)
		}
	case ActionDelete, ActionReposition:
		if r.OriginalPath == "" {
			return fmt.Errorf("%w: %s needs a path", ErrMalformedRecord, r.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedRecord, r.Kind)
	}
	return nil
}

// String renders a short human description used in logs and CLI output.
func (r ActionRecord) String() string {
	switch r.Kind {
	case ActionRename:
		return fmt.Sprintf("rename %s -> %s", filepath.Base(r.OriginalPath), filepath.Base(r.NewPath))
	case ActionDelete:
		return fmt.Sprintf("trash %s", filepath.Base(r.OriginalPath))
	case ActionReposition:
		return fmt.Sprintf("move icon %s to (%s)", filepath.Base(r.OriginalPath), r.Position)
	}
	return fmt.Sprintf("%s %s", r.Kind, r.OriginalPath)
}
