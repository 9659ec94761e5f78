package desktop

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

// iconPositionKey is the GNOME desktop metadata attribute holding "x,y".
const iconPositionKey = "metadata::nautilus-icon-position"

// CommandRunner runs an external program and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// GioPositioner stores icon positions as GNOME file metadata via gio(1).
type GioPositioner struct {
	run CommandRunner
}

// NewGioPositioner returns a positioner using run, or ExecRunner if nil.
func NewGioPositioner(run CommandRunner) *GioPositioner {
	if run == nil {
		run = ExecRunner
	}
	return &GioPositioner{run: run}
}

func fileURI(path string) string {
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// SetIconPosition implements types.IconPositioner.
func (g *GioPositioner) SetIconPosition(ctx context.Context, path string, pos types.Point) error {
	out, err := g.run(ctx, "gio", "set", "-t", "string", fileURI(path), iconPositionKey, pos.String())
	if err != nil {
		return fmt.Errorf("gio set %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// IconPosition implements types.IconLocator. ok is false when the entry has
// no stored position.
func (g *GioPositioner) IconPosition(ctx context.Context, path string) (types.Point, bool, error) {
	out, err := g.run(ctx, "gio", "info", "-a", iconPositionKey, fileURI(path))
	if err != nil {
		return types.Point{}, false, fmt.Errorf("gio info %s: %w", path, err)
	}
	return parseIconPosition(out)
}

func parseIconPosition(out []byte) (types.Point, bool, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, found := strings.CutPrefix(line, iconPositionKey+":")
		if !found {
			continue
		}
		xs, ys, ok := strings.Cut(strings.TrimSpace(value), ",")
		if !ok {
			return types.Point{}, false, fmt.Errorf("unexpected icon position %q", value)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil {
			return types.Point{}, false, fmt.Errorf("unexpected icon position %q", value)
		}
		return types.Point{X: x, Y: y}, true, nil
	}
	return types.Point{}, false, scanner.Err()
}
