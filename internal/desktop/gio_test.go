package desktop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

type recordedCall struct {
	name string
	args []string
}

func recordingRunner(out string, err error, calls *[]recordedCall) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		return []byte(out), err
	}
}

func TestGioSetIconPosition(t *testing.T) {
	var calls []recordedCall
	g := NewGioPositioner(recordingRunner("", nil, &calls))

	err := g.SetIconPosition(context.Background(), "/home/u/Desktop/my file.txt", types.Point{X: 12, Y: 34})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "gio", calls[0].name)
	assert.Equal(t, []string{
		"set", "-t", "string",
		"file:///home/u/Desktop/my%20file.txt",
		"metadata::nautilus-icon-position", "12,34",
	}, calls[0].args)
}

func TestGioSetIconPositionFailure(t *testing.T) {
	var calls []recordedCall
	g := NewGioPositioner(recordingRunner("gio: Operation not supported", errors.New("exit status 1"), &calls))

	err := g.SetIconPosition(context.Background(), "/d/a", types.Point{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Operation not supported")
}

func TestGioIconPosition(t *testing.T) {
	out := "uri: file:///d/a\nattributes:\n  metadata::nautilus-icon-position: 640,480\n"
	var calls []recordedCall
	g := NewGioPositioner(recordingRunner(out, nil, &calls))

	p, ok, err := g.IconPosition(context.Background(), "/d/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.Point{X: 640, Y: 480}, p)
	assert.Equal(t, []string{"info", "-a", "metadata::nautilus-icon-position", "file:///d/a"}, calls[0].args)
}

func TestParseIconPosition(t *testing.T) {
	_, ok, err := parseIconPosition([]byte("uri: file:///d/a\nattributes:\n"))
	require.NoError(t, err)
	assert.False(t, ok, "no stored position")

	_, _, err = parseIconPosition([]byte("  metadata::nautilus-icon-position: left\n"))
	assert.Error(t, err)
}

func TestParseXrandr(t *testing.T) {
	out := `Screen 0: minimum 320 x 200, current 2560 x 1440, maximum 16384 x 16384
eDP-1 connected primary 2560x1440+0+0 (normal left inverted right x axis y axis) 309mm x 174mm
   2560x1440     60.00*+  48.00
   1920x1080     60.00
HDMI-1 disconnected (normal left inverted right x axis y axis)
`
	w, h, err := parseXrandr([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, 2560, w)
	assert.Equal(t, 1440, h)
}

func TestParseXrandrInterlaced(t *testing.T) {
	w, h, err := parseXrandr([]byte("   1920x1080i    60.00*\n"))
	require.NoError(t, err)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestParseXrandrNoCurrentMode(t *testing.T) {
	_, _, err := parseXrandr([]byte("Can't open display\n"))
	assert.Error(t, err)
}

func TestXrandrProberRunError(t *testing.T) {
	var calls []recordedCall
	x := NewXrandrProber(recordingRunner("", errors.New("executable file not found"), &calls))
	_, _, err := x.ScreenResolution(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"--current"}, calls[0].args)
}
