package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pawku/pkg/types"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(types.LoggingConfig{Level: "debug", JSON: true}, &buf)
	require.NoError(t, err)

	logger.Debug().Str("component", "pet").Msg("hunger rose")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "pet", entry["component"])
	assert.Equal(t, "hunger rose", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(types.LoggingConfig{Level: "WARN", JSON: true}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("quiet")
	assert.Empty(t, buf.String())
	logger.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(types.LoggingConfig{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger.Info().Str("file", "notes.txt").Msg("moved file to trash")
	out := buf.String()
	assert.Contains(t, out, "moved file to trash")
	assert.Contains(t, out, "file=notes.txt")
	assert.NotContains(t, out, "\x1b[", "buffers are not colored")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New(types.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
