package adapter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SetupLogger returns a JSON logger writing to cfg.File and the file to close
// on exit. An empty path discards all output.
func SetupLogger(cfg LoggingConfig) (*slog.Logger, io.Closer, error) {
	path := expandHome(cfg.File)
	if path == "" {
		return NullLogger(), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return slog.New(handler).With("app", appName), f, nil
}

// ParseLevel maps a config level name to a slog level, defaulting to INFO
func ParseLevel(level string) slog.Level {
	name := strings.ToUpper(strings.TrimSpace(level))
	if name == "WARNING" {
		name = "WARN"
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
