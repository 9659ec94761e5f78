package desktop

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// XrandrProber reads the active mode of the first connected output from
// xrandr(1).
type XrandrProber struct {
	run CommandRunner
}

// NewXrandrProber returns a prober using run, or ExecRunner if nil.
func NewXrandrProber(run CommandRunner) *XrandrProber {
	if run == nil {
		run = ExecRunner
	}
	return &XrandrProber{run: run}
}

// ScreenResolution implements types.ScreenProber.
func (x *XrandrProber) ScreenResolution(ctx context.Context) (int, int, error) {
	out, err := x.run(ctx, "xrandr", "--current")
	if err != nil {
		return 0, 0, fmt.Errorf("xrandr: %w", err)
	}
	return parseXrandr(out)
}

// parseXrandr finds the first mode line flagged current ("*") and parses
// its "WIDTHxHEIGHT" field.
func parseXrandr(out []byte) (int, int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		ws, hs, ok := strings.Cut(fields[0], "x")
		if !ok {
			continue
		}
		w, errW := strconv.Atoi(ws)
		h, errH := strconv.Atoi(strings.TrimRight(hs, "i"))
		if errW != nil || errH != nil {
			continue
		}
		return w, h, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}
	return 0, 0, fmt.Errorf("no current mode in xrandr output")
}
