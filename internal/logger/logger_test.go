package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestFromSettings_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLevel, "error")

	cfg := FromSettings("debug", "json")
	assert.Equal(t, slog.LevelError, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
}

func TestFromSettings_UnknownFallsBack(t *testing.T) {
	t.Setenv(EnvLevel, "")

	cfg := FromSettings("chatty", "yaml")
	assert.Equal(t, slog.LevelInfo, cfg.Level)
	assert.Equal(t, "text", cfg.Format)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	log.Debug("hidden")
	log.Info("track started", slog.String("track_id", "t1"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"track started"`)
	assert.Contains(t, out, `"track_id":"t1"`)
}
