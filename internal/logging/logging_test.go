package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New("debug", "json", &buf), "listener")

	logger.Debug().Str("sender", "HDFCBank").Msg("bank sms received")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "listener", line["component"])
	assert.Equal(t, "HDFCBank", line["sender"])
	assert.Equal(t, "bank sms received", line["message"])
	assert.Contains(t, line, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New("loud", "json", &buf)

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New("info", "console", &buf)
	logger.Info().Msg("store cleared")
	assert.Contains(t, buf.String(), "store cleared")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
