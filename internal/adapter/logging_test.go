package adapter

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "playloop.log")

	logger, closer, err := SetupLogger(LoggingConfig{File: path, Level: "warn"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("failed to load trending", "error", "boom")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "failed to load trending", rec["msg"])
	assert.Equal(t, "playloop", rec["app"])
}

func TestSetupLoggerWithoutFile(t *testing.T) {
	logger, closer, err := SetupLogger(LoggingConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
