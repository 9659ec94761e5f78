package types

import "context"

// TrashEntry identifies a file sitting in the trash.
type TrashEntry struct {
	// Path is the location of the trashed file inside the trash.
	Path string
	// InfoPath is the matching .trashinfo file, empty when none exists.
	InfoPath string
	// OriginalPath is the path recorded at deletion time, if known.
	OriginalPath string
}

// TrashStore moves files to a recoverable trash and back.
type TrashStore interface {
	// MoveToTrash relocates path into the trash. It returns an error
	// wrapping ErrTrashUnavailable when the trash cannot be reached.
	MoveToTrash(ctx context.Context, path string) error

	// Lookup finds the trashed entry for a file originally at originalPath.
	// It returns an error wrapping ErrMissingTarget when nothing matches.
	Lookup(originalPath string) (TrashEntry, error)

	// Restore moves entry back to dest.
	Restore(entry TrashEntry, dest string) error
}

// IconPositioner places desktop icons.
type IconPositioner interface {
	SetIconPosition(ctx context.Context, path string, pos Point) error
}

// IconLocator reads the current icon position. Positioners may implement it
// so reposition records can carry the previous coordinates.
type IconLocator interface {
	IconPosition(ctx context.Context, path string) (Point, bool, error)
}

// ScreenProber reports the screen size in pixels.
type ScreenProber interface {
	ScreenResolution(ctx context.Context) (width, height int, err error)
}
