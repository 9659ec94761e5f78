// Package actionlog implements the durable, append-only record of
// destructive desktop actions and the line format it is stored in.
//
// Tagged lines are CSV rows whose first field is the action kind:
//
//	RENAME,<original>,<new>
//	DELETE,<original>
//	REPOSITION,<path>,<x>,<y>[,<old x>,<old y>]
//
// The legacy format, still accepted on read, has no tag for renames:
//
//	DELETED,<original>
//	<original>,<new>
package actionlog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

const legacyDeletePrefix = "DELETED,"

// Codec converts records to log lines and back.
type Codec struct {
	format string
}

// NewCodec returns a codec that writes the given format
// (types.LogFormatTagged or types.LogFormatLegacy). Both formats are
// always accepted when decoding.
func NewCodec(format string) Codec {
	if format == "" {
		format = types.LogFormatTagged
	}
	return Codec{format: format}
}

// Format returns the format used for encoding.
func (c Codec) Format() string { return c.format }

// Encode renders rec as a single line without the trailing newline. ok is
// false when the format has no representation for the record; the legacy
// format cannot express REPOSITION.
func (c Codec) Encode(rec types.ActionRecord) (line string, ok bool, err error) {
	if err := rec.Validate(); err != nil {
		return "", false, err
	}
	if c.format == types.LogFormatLegacy {
		switch rec.Kind {
		case types.ActionRename:
			line = rec.OriginalPath + "," + rec.NewPath
		case types.ActionDelete:
			line = legacyDeletePrefix + rec.OriginalPath
		default:
			return "", false, nil
		}
		if err := c.checkLegacy(rec, line); err != nil {
			return "", false, err
		}
		return line, true, nil
	}

	var fields []string
	switch rec.Kind {
	case types.ActionRename:
		fields = []string{string(rec.Kind), rec.OriginalPath, rec.NewPath}
	case types.ActionDelete:
		fields = []string{string(rec.Kind), rec.OriginalPath}
	case types.ActionReposition:
		fields = []string{
			string(rec.Kind), rec.OriginalPath,
			strconv.Itoa(rec.Position.X), strconv.Itoa(rec.Position.Y),
		}
		if rec.OldPosition != nil {
			fields = append(fields, strconv.Itoa(rec.OldPosition.X), strconv.Itoa(rec.OldPosition.Y))
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", false, fmt.Errorf("encoding %s record: %w", rec.Kind, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", false, fmt.Errorf("encoding %s record: %w", rec.Kind, err)
	}
	line = strings.TrimRight(buf.String(), "\r\n")
	if strings.ContainsAny(line, "\r\n") {
		// Paths with newlines would span several log lines.
		return "", false, fmt.Errorf("%w: path contains a line break", types.ErrMalformedRecord)
	}
	return line, true, nil
}

// checkLegacy refuses records the untagged format would read back as
// something else: a line break splits the record, and a comma in a renamed
// file's original path moves the split point.
func (c Codec) checkLegacy(rec types.ActionRecord, line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("%w: path contains a line break", types.ErrMalformedRecord)
	}
	got, err := c.Decode(line)
	if err != nil || got.Kind != rec.Kind || got.OriginalPath != rec.OriginalPath || got.NewPath != rec.NewPath {
		return fmt.Errorf("%w: %q cannot be written in the legacy format", types.ErrMalformedRecord, rec.OriginalPath)
	}
	return nil
}

// Decode parses one log line. Lines that start with a known tag are read as
// tagged CSV; "DELETED," lines are legacy deletes; anything else with a
// comma is a legacy rename split on the first comma.
func (c Codec) Decode(line string) (types.ActionRecord, error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return types.ActionRecord{}, fmt.Errorf("%w: empty line", types.ErrMalformedRecord)
	}

	if rest, found := strings.CutPrefix(line, legacyDeletePrefix); found {
		rec := types.DeleteRecord(rest)
		return rec, rec.Validate()
	}

	if tag, _, found := strings.Cut(line, ","); found && isTag(tag) {
		return decodeTagged(line)
	}

	original, renamed, found := strings.Cut(line, ",")
	if !found {
		return types.ActionRecord{}, fmt.Errorf("%w: no separator in %q", types.ErrMalformedRecord, line)
	}
	rec := types.RenameRecord(original, renamed)
	return rec, rec.Validate()
}

func isTag(s string) bool {
	switch types.ActionKind(s) {
	case types.ActionRename, types.ActionDelete, types.ActionReposition:
		return true
	}
	return false
}

func decodeTagged(line string) (types.ActionRecord, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		return types.ActionRecord{}, fmt.Errorf("%w: %v", types.ErrMalformedRecord, err)
	}

	kind := types.ActionKind(fields[0])
	var rec types.ActionRecord
	switch kind {
	case types.ActionRename:
		if len(fields) != 3 {
			return rec, fmt.Errorf("%w: RENAME wants 2 fields, got %d", types.ErrMalformedRecord, len(fields)-1)
		}
		rec = types.RenameRecord(fields[1], fields[2])
	case types.ActionDelete:
		if len(fields) != 2 {
			return rec, fmt.Errorf("%w: DELETE wants 1 field, got %d", types.ErrMalformedRecord, len(fields)-1)
		}
		rec = types.DeleteRecord(fields[1])
	case types.ActionReposition:
		if len(fields) != 4 && len(fields) != 6 {
			return rec, fmt.Errorf("%w: REPOSITION wants 3 or 5 fields, got %d", types.ErrMalformedRecord, len(fields)-1)
		}
		nums, err := atoiAll(fields[2:])
		if err != nil {
			return rec, err
		}
		var old *types.Point
		if len(nums) == 4 {
			old = &types.Point{X: nums[2], Y: nums[3]}
		}
		rec = types.RepositionRecord(fields[1], old, types.Point{X: nums[0], Y: nums[1]})
	}
	return rec, rec.Validate()
}

func atoiAll(fields []string) ([]int, error) {
	out := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: coordinate %q", types.ErrMalformedRecord, f)
		}
		out[i] = n
	}
	return out, nil
}
